package agent

import (
	"context"

	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/pageclass"
	"github.com/pagescout/pagescout/pkg/sku"
	"github.com/pagescout/pagescout/pkg/urlutil"
)

// isGoodURL is the verification gate every fetched or rendered page must
// pass before its URL may appear in sources or the answer.
func isGoodURL(status int, finalURL string, verdict pageclass.Verdict) bool {
	if status < 200 || status >= 300 {
		return false
	}
	// A redirect that lands on a homepage or search page only counts if
	// the page still shows products.
	if urlutil.IsGenericPath(finalURL) && !verdict.Usable() {
		return false
	}
	return verdict.Usable()
}

// rejectionFor maps a verdict to the reason reported to the model.
// classifierReason is used when the verdict has no fixed phrasing.
func rejectionFor(verdict pageclass.Verdict, classifierReason string) string {
	switch verdict {
	case pageclass.VerdictListingEmpty:
		return "Empty listing page (no products found)"
	case pageclass.VerdictBlocked:
		return "Page is blocked or requires verification"
	case pageclass.VerdictGeneric:
		return "Generic redirect page"
	case pageclass.VerdictError:
		return "Page classification error"
	}
	if classifierReason != "" {
		return classifierReason
	}
	return "Page did not pass verification"
}

// verifyProductURLs is the final correctness pass. For each verified
// product record whose canonical or final URL differs from the URL we
// verified, re-fetch the preferred URL within the remaining page budget
// and promote it when it classifies as a product page. In SKU mode the
// promotion additionally requires the SKUs to agree (or both be absent).
// Records are never dropped here; on any failure the original URL stays.
func (a *Agent) verifyProductURLs(ctx context.Context, st *runState, maxPagesFetched int, mode Mode) {
	if mode == ModeMinimal {
		return
	}
	for _, url := range st.verifiedOrder {
		rec, ok := st.verified[url]
		if !ok || rec.Verdict != pageclass.VerdictProduct {
			continue
		}

		preferred := rec.FinalURL
		if rec.CanonicalURL != "" && rec.CanonicalURL != url {
			preferred = rec.CanonicalURL
		}
		if preferred == "" || preferred == url {
			continue
		}
		if _, done := st.fetched[preferred]; done {
			continue
		}
		if st.pagesFetched() >= maxPagesFetched {
			continue
		}

		a.log.Info().Str("url", url).Str("preferred", preferred).Msg("verifying preferred product URL")
		resp, err := a.fetcher.Fetch(ctx, fetch.Request{URL: preferred})
		if err != nil || resp == nil || resp.Status != 200 || resp.HTML == "" {
			continue
		}
		text := fetch.ExtractText(resp.HTML, fetch.DefaultMaxTextChars)
		cls := pageclass.Classify(resp.HTML, text, preferred, a.classifyCfg)
		if cls.Verdict != pageclass.VerdictProduct {
			continue
		}
		st.fetched[preferred] = struct{}{}

		preferredSKU := sku.Extract(resp.HTML, text)
		if mode == ModeSKU {
			if rec.SKU != preferredSKU {
				a.log.Warn().
					Str("original_sku", rec.SKU).
					Str("preferred_sku", preferredSKU).
					Msg("sku mismatch, keeping original URL")
				continue
			}
			// Neither page exposes a SKU, so the match is vacuous.
			if rec.SKU == "" {
				a.log.Debug().Str("preferred", preferred).Msg("promoting without SKU evidence")
			}
		}
		rec.FinalURL = preferred
		rec.SKU = preferredSKU
		if canonical := fetch.ExtractCanonical(resp.HTML, preferred); canonical != "" {
			rec.CanonicalURL = canonical
		} else {
			rec.CanonicalURL = preferred
		}
	}
}
