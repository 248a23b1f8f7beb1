// Package pageclass classifies fetched pages by structural signals only:
// schema.org markup, URL shape, and DOM patterns. It never looks at
// language-specific text, so it works the same on any storefront locale.
package pageclass

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagescout/pagescout/pkg/urlutil"
)

// Classification is the classifier's full output for one page.
type Classification struct {
	Verdict        Verdict  `json:"verdict"`
	ProductCount   int      `json:"product_count"`
	Reason         string   `json:"reason"`
	Signals        []string `json:"signals,omitempty"`
	CandidateLinks []string `json:"candidate_links,omitempty"`
}

// Classify determines the verdict for a page. Decision order matters: a
// missing body beats everything, a generic path without product signals beats
// blocked detection, and blocked detection beats product detection.
func Classify(html, text, pageURL string, cfg Config) Classification {
	cfg = cfg.WithDefaults()

	if html == "" {
		return Classification{
			Verdict: VerdictError,
			Reason:  "No HTML content",
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Classification{
			Verdict: VerdictError,
			Reason:  "HTML did not parse",
		}
	}

	if urlutil.IsGenericPath(pageURL) {
		if signals := detectProducts(doc); signals.productCount(cfg) == 0 {
			return Classification{
				Verdict: VerdictGeneric,
				Reason:  "Generic redirect page with no products",
				Signals: []string{"generic_path"},
			}
		}
	}

	if blocked, reason, signal := detectBlocked(doc, text, cfg); blocked {
		return Classification{
			Verdict: VerdictBlocked,
			Reason:  reason,
			Signals: []string{signal},
		}
	}

	signals := detectProducts(doc)
	productCount := signals.productCount(cfg)
	listingShaped := isListingURL(pageURL)

	switch {
	case productCount > 0 && listingShaped:
		return Classification{
			Verdict:        VerdictListingWithProducts,
			ProductCount:   productCount,
			Reason:         fmt.Sprintf("Listing page with %d products detected", productCount),
			Signals:        signals.names(),
			CandidateLinks: extractCandidateLinks(doc, pageURL, cfg),
		}
	case productCount > 0:
		return Classification{
			Verdict:      VerdictProduct,
			ProductCount: productCount,
			Reason:       "Product page detected",
			Signals:      signals.names(),
		}
	case listingShaped:
		return Classification{
			Verdict: VerdictListingEmpty,
			Reason:  "Listing/search page with no products",
			Signals: signals.names(),
		}
	case len(text) > cfg.LowConfidenceTextMin:
		// No schema anywhere, but enough content to plausibly be a
		// product page. Low confidence, count of one.
		return Classification{
			Verdict:      VerdictProduct,
			ProductCount: 1,
			Reason:       "Potential product page (no schema but has content)",
			Signals:      signals.names(),
		}
	default:
		return Classification{
			Verdict: VerdictError,
			Reason:  "Page has insufficient content",
			Signals: signals.names(),
		}
	}
}

var listingIndicators = []string{
	"/search",
	"/category",
	"/catalog",
	"/c/",
	"/list",
	"/shop/",
	"/products",
	"/items",
	"/l/",
}

var listingQueryKeys = []string{"q", "search", "category", "filter"}

// isListingURL reports whether the URL is shaped like a search, category, or
// catalog page.
func isListingURL(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, indicator := range listingIndicators {
		if strings.Contains(path, indicator) {
			return true
		}
	}
	query := parsed.Query()
	for _, key := range listingQueryKeys {
		if query.Has(key) {
			return true
		}
	}
	return false
}
