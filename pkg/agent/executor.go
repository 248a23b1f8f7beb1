package agent

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"sort"
	"strings"

	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/pageclass"
	"github.com/pagescout/pagescout/pkg/product"
	"github.com/pagescout/pagescout/pkg/render"
	"github.com/pagescout/pagescout/pkg/search"
	"github.com/pagescout/pagescout/pkg/sku"
	"github.com/pagescout/pagescout/pkg/urlutil"
)

// cachedPage is the serialized form of a fetched or rendered page.
type cachedPage struct {
	FinalURL string `json:"final_url"`
	Status   int    `json:"status"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Title    string `json:"title"`
	Blocked  bool   `json:"blocked,omitempty"`
}

func (a *Agent) executeTool(
	ctx context.Context,
	st *runState,
	name string,
	args json.RawMessage,
	maxPagesFetched int,
) toolResult {
	switch name {
	case toolSearchWeb:
		return a.doSearch(ctx, args)
	case toolFetchURL:
		return a.doFetch(ctx, st, args, maxPagesFetched)
	case toolRenderURL:
		return a.doRender(ctx, st, args, maxPagesFetched)
	case toolExtractReference:
		return a.doExtractReference(ctx, st, args, maxPagesFetched)
	case toolExtractSearchSchema:
		if a.cfg.ExtendedTools {
			return a.doExtractSearchSchema(ctx, args)
		}
	case toolBuildURL:
		if a.cfg.ExtendedTools {
			return a.doBuildURL(args)
		}
	}
	return toolResult{content: fmt.Sprintf("Unknown tool: %s", name)}
}

func (a *Agent) doSearch(ctx context.Context, args json.RawMessage) toolResult {
	var params struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.Query == "" {
		return toolResult{content: "No query provided"}
	}
	if params.Count <= 0 {
		params.Count = search.DefaultSearchCount
	}
	if params.Count > a.cfg.MaxSearchCount {
		params.Count = a.cfg.MaxSearchCount
	}

	var results []search.Result
	if raw, ok := a.store.Get(cache.OpSearch, params.Query); ok {
		if err := json.Unmarshal(raw, &results); err != nil {
			results = nil
		}
	}
	if results == nil {
		resp, err := a.search.Search(ctx, search.Request{Query: params.Query, Count: params.Count})
		if err != nil {
			a.log.Error().Err(err).Str("query", params.Query).Msg("search failed")
			return toolResult{content: fmt.Sprintf("Search failed: %v", err)}
		}
		results = resp.Results
		if encoded, err := json.Marshal(results); err == nil {
			if err := a.store.Set(cache.OpSearch, params.Query, encoded); err != nil {
				a.log.Warn().Err(err).Str("query", params.Query).Msg("cache write failed")
			}
		}
	}

	if len(results) == 0 {
		return toolResult{content: "Search returned no results. Try a different query."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d search results:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "- %s\n  URL: %s\n  %s\n", r.Title, r.URL, r.Snippet)
	}
	return toolResult{content: b.String(), success: true}
}

func (a *Agent) doFetch(
	ctx context.Context,
	st *runState,
	args json.RawMessage,
	maxPagesFetched int,
) toolResult {
	url, ok := urlArg(args)
	if !ok {
		return toolResult{content: "No URL provided"}
	}
	if st.pagesFetched() >= maxPagesFetched {
		return toolResult{content: fmt.Sprintf("Maximum pages fetched (%d). Cannot fetch more.", maxPagesFetched)}
	}

	page, fetchErr := a.loadPage(ctx, cache.OpFetch, url)
	if fetchErr != nil {
		return toolResult{
			content:         fmt.Sprintf("Failed to fetch %s (error: %v). Try render_url if this is a JavaScript-heavy page.", url, fetchErr),
			url:             url,
			rejectionReason: fmt.Sprintf("Failed to fetch (error: %v)", fetchErr),
		}
	}

	// Bot checks respond with 403 or 401 to plain HTTP clients; a real
	// browser usually gets through.
	if page.Status == 403 || page.Status == 401 {
		a.log.Info().Int("status", page.Status).Str("url", url).Msg("falling back to render after bot check")
		return a.renderAfterBotCheck(ctx, st, url)
	}

	if page.HTML == "" && page.Text == "" {
		return toolResult{
			content:         fmt.Sprintf("Failed to fetch %s (status: %d). Try render_url if this is a JavaScript-heavy page.", url, page.Status),
			url:             page.FinalURL,
			rejectionReason: fmt.Sprintf("Failed to fetch (status: %d)", page.Status),
		}
	}

	cls := pageclass.Classify(page.HTML, page.Text, page.FinalURL, a.classifyCfg)
	if !isGoodURL(page.Status, page.FinalURL, cls.Verdict) {
		reason := rejectionFor(cls.Verdict, cls.Reason)
		return toolResult{
			content: fmt.Sprintf("Fetched %s but page is not valid: %s.\n\nPage content:\n%s...",
				url, reason, clip(page.Text, 500)),
			url:             page.FinalURL,
			title:           page.Title,
			verdict:         cls.Verdict,
			productCount:    cls.ProductCount,
			rejectionReason: reason,
		}
	}

	st.fetched[page.FinalURL] = struct{}{}

	skuValue := ""
	dataSection := ""
	if cls.Verdict == pageclass.VerdictProduct {
		skuValue = sku.Extract(page.HTML, page.Text)
		dataSection = productDataSection(page.HTML)
	}

	content := fmt.Sprintf("Fetched %s:\n\n%s", url, page.Text) + dataSection + a.candidateSection(cls.CandidateLinks)
	return toolResult{
		content:            content,
		success:            true,
		url:                page.FinalURL,
		finalURL:           page.FinalURL,
		canonicalURL:       fetch.ExtractCanonical(page.HTML, page.FinalURL),
		title:              page.Title,
		sku:                skuValue,
		verdict:            cls.Verdict,
		productCount:       cls.ProductCount,
		verified:           true,
		verificationReason: verificationReason(cls.Reason),
	}
}

func (a *Agent) doRender(
	ctx context.Context,
	st *runState,
	args json.RawMessage,
	maxPagesFetched int,
) toolResult {
	url, ok := urlArg(args)
	if !ok {
		return toolResult{content: "No URL provided"}
	}
	if st.pagesFetched() >= maxPagesFetched {
		return toolResult{content: fmt.Sprintf("Maximum pages fetched (%d). Cannot render more.", maxPagesFetched)}
	}

	page, err := a.loadPage(ctx, cache.OpRender, url)
	if err != nil || (page.HTML == "" && page.Text == "") {
		return toolResult{
			content:         fmt.Sprintf("Failed to render %s. Page may be blocked or timeout occurred.", url),
			url:             url,
			rejectionReason: "Failed to render (timeout or error)",
		}
	}

	// The render service flags bot-check interstitials itself. Those pages
	// carry enough boilerplate text to confuse the classifier, so the flag
	// wins before classification runs.
	if page.Blocked {
		return a.blockedRenderResult(url, page)
	}

	cls := pageclass.Classify(page.HTML, page.Text, page.FinalURL, a.classifyCfg)
	// The browser always delivers a document, so the render path trusts
	// classification rather than the transfer status.
	if !isGoodURL(200, url, cls.Verdict) {
		reason := rejectionFor(cls.Verdict, cls.Reason)
		return toolResult{
			content: fmt.Sprintf("Rendered %s but page is not valid: %s.\n\nPage content:\n%s...",
				url, reason, clip(page.Text, 500)),
			url:             url,
			verdict:         cls.Verdict,
			productCount:    cls.ProductCount,
			rejectionReason: reason,
		}
	}

	st.fetched[url] = struct{}{}

	skuValue := ""
	dataSection := ""
	if cls.Verdict == pageclass.VerdictProduct {
		skuValue = sku.Extract(page.HTML, page.Text)
		dataSection = productDataSection(page.HTML)
	}

	content := fmt.Sprintf("Rendered %s:\n\n%s", url, page.Text) + dataSection + a.candidateSection(cls.CandidateLinks)
	return toolResult{
		content:            content,
		success:            true,
		url:                page.FinalURL,
		finalURL:           page.FinalURL,
		canonicalURL:       fetch.ExtractCanonical(page.HTML, page.FinalURL),
		title:              page.Title,
		sku:                skuValue,
		verdict:            cls.Verdict,
		productCount:       cls.ProductCount,
		verified:           true,
		verificationReason: verificationReason(cls.Reason),
	}
}

// doExtractReference verifies the reference page like a normal fetch,
// then prefixes the tool output with the structured attributes the later
// phases compare candidates against.
func (a *Agent) doExtractReference(
	ctx context.Context,
	st *runState,
	args json.RawMessage,
	maxPagesFetched int,
) toolResult {
	result := a.doFetch(ctx, st, args, maxPagesFetched)
	if !result.verified {
		return result
	}
	url, _ := urlArg(args)
	page, err := a.loadPage(ctx, cache.OpFetch, url)
	if err != nil {
		return result
	}
	ref := product.ExtractReference(page.HTML, page.Text)
	encoded, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return result
	}
	result.content = fmt.Sprintf("Reference attributes:\n%s\n\n%s", encoded, result.content)
	return result
}

// doExtractSearchSchema renders a page and reports its form schemas so the
// model can construct listing URLs with build_url. Schema extraction does
// not verify anything, so it neither counts against the page budget nor
// records provenance.
func (a *Agent) doExtractSearchSchema(ctx context.Context, args json.RawMessage) toolResult {
	url, ok := urlArg(args)
	if !ok {
		return toolResult{content: "No URL provided"}
	}

	page, err := a.loadPage(ctx, cache.OpRender, url)
	if err != nil || page.HTML == "" {
		return toolResult{content: "Failed to fetch page HTML", url: url}
	}

	forms := fetch.ExtractForms(page.HTML, page.FinalURL)
	if len(forms) == 0 {
		return toolResult{content: fmt.Sprintf("No search forms found on %s.", url), url: page.FinalURL}
	}

	encoded, err := json.MarshalIndent(forms, "", "  ")
	if err != nil {
		return toolResult{content: fmt.Sprintf("Failed to extract schema: %v", err), url: page.FinalURL}
	}
	fields := 0
	for _, f := range forms {
		fields += f.FieldCount()
	}
	a.log.Info().Str("url", url).Int("forms", len(forms)).Int("fields", fields).Msg("extracted search schema")
	return toolResult{
		content: fmt.Sprintf("Extracted %d search form(s) with %d total fields:\n%s", len(forms), fields, encoded),
		success: true,
		url:     page.FinalURL,
	}
}

// doBuildURL appends query parameters to a base URL. The result still has
// to pass fetch verification before it can appear in the answer.
func (a *Agent) doBuildURL(args json.RawMessage) toolResult {
	var params struct {
		BaseURL string         `json:"base_url"`
		Params  map[string]any `json:"params"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.BaseURL == "" {
		return toolResult{content: "No base_url provided"}
	}

	parsed, err := neturl.Parse(params.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return toolResult{content: fmt.Sprintf("Failed to build URL: invalid base_url %q", params.BaseURL)}
	}

	query := parsed.Query()
	keys := make([]string, 0, len(params.Params))
	for key := range params.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch value := params.Params[key].(type) {
		case []any:
			for _, entry := range value {
				query.Add(key, fmt.Sprint(entry))
			}
		default:
			query.Add(key, fmt.Sprint(value))
		}
	}
	parsed.RawQuery = query.Encode()
	parsed.Fragment = ""

	built := urlutil.Clean(parsed.String())
	return toolResult{content: "Built URL: " + built, success: true, url: built}
}

// renderAfterBotCheck retries a 403/401 page through the browser. The
// cache is skipped on purpose: the point is a fresh attempt.
func (a *Agent) renderAfterBotCheck(ctx context.Context, st *runState, url string) toolResult {
	resp, err := a.renderer.Render(ctx, render.Request{URL: url})
	if err != nil || resp == nil || resp.HTML == "" {
		return toolResult{
			content:         fmt.Sprintf("Failed to render %s after 403 error. Page may be blocked or timeout occurred.", url),
			url:             url,
			rejectionReason: "Failed to render after 403",
		}
	}

	page := cachedPage{
		FinalURL: resp.FinalURL,
		Status:   resp.Status,
		HTML:     resp.HTML,
		Text:     fetch.ExtractText(resp.HTML, fetch.DefaultMaxTextChars),
		Title:    resp.Title,
		Blocked:  resp.Blocked,
	}
	a.storePage(cache.OpRender, url, page)

	if page.Blocked {
		return a.blockedRenderResult(url, page)
	}

	cls := pageclass.Classify(page.HTML, page.Text, page.FinalURL, a.classifyCfg)
	if !isGoodURL(200, url, cls.Verdict) {
		reason := rejectionFor(cls.Verdict, cls.Reason)
		return toolResult{
			content: fmt.Sprintf("Rendered %s (after 403) but page is not valid: %s.\n\nPage content:\n%s...",
				url, reason, clip(page.Text, 500)),
			url:             url,
			verdict:         cls.Verdict,
			productCount:    cls.ProductCount,
			rejectionReason: reason,
		}
	}

	st.fetched[url] = struct{}{}

	content := fmt.Sprintf("Fetched %s returned %d (bot check), so rendered with browser instead:\n\n%s",
		url, resp.Status, page.Text) + a.candidateSection(cls.CandidateLinks)
	return toolResult{
		content:            content,
		success:            true,
		url:                page.FinalURL,
		finalURL:           page.FinalURL,
		canonicalURL:       fetch.ExtractCanonical(page.HTML, page.FinalURL),
		title:              page.Title,
		verdict:            cls.Verdict,
		productCount:       cls.ProductCount,
		verified:           true,
		verificationReason: "Rendered after 403: " + verificationReason(cls.Reason),
	}
}

func (a *Agent) blockedRenderResult(url string, page cachedPage) toolResult {
	reason := rejectionFor(pageclass.VerdictBlocked, "")
	a.log.Info().Str("url", url).Int("status", page.Status).Msg("render service flagged page as blocked")
	return toolResult{
		content: fmt.Sprintf("Rendered %s but page is not valid: %s.\n\nPage content:\n%s...",
			url, reason, clip(page.Text, 500)),
		url:             url,
		title:           page.Title,
		verdict:         pageclass.VerdictBlocked,
		rejectionReason: reason,
	}
}

// loadPage returns a page from cache or from the matching collaborator.
// Pages without a body are not cached so a later attempt can retry.
func (a *Agent) loadPage(ctx context.Context, op, url string) (cachedPage, error) {
	if raw, ok := a.store.Get(op, url); ok {
		var page cachedPage
		if err := json.Unmarshal(raw, &page); err == nil {
			a.log.Debug().Str("op", op).Str("url", url).Msg("cache hit")
			return page, nil
		}
	}

	var page cachedPage
	switch op {
	case cache.OpRender:
		resp, err := a.renderer.Render(ctx, render.Request{URL: url})
		if err != nil {
			return page, err
		}
		if resp.Error != "" && resp.HTML == "" {
			return page, fmt.Errorf("%s", resp.Error)
		}
		page = cachedPage{FinalURL: resp.FinalURL, Status: resp.Status, HTML: resp.HTML, Title: resp.Title, Blocked: resp.Blocked}
	default:
		resp, err := a.fetcher.Fetch(ctx, fetch.Request{URL: url})
		if err != nil {
			return page, err
		}
		if resp.Error != "" && resp.HTML == "" {
			return page, fmt.Errorf("%s", resp.Error)
		}
		page = cachedPage{FinalURL: resp.FinalURL, Status: resp.Status, HTML: resp.HTML, Title: resp.Title}
	}

	if page.FinalURL == "" {
		page.FinalURL = url
	}
	if page.HTML != "" {
		page.Text = fetch.ExtractText(page.HTML, fetch.DefaultMaxTextChars)
		a.storePage(op, url, page)
	}
	return page, nil
}

func (a *Agent) storePage(op, url string, page cachedPage) {
	encoded, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := a.store.Set(op, url, encoded); err != nil {
		a.log.Warn().Err(err).Str("url", url).Msg("cache write failed")
	}
}

func (a *Agent) candidateSection(links []string) string {
	if len(links) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n\nFound %d product candidate links:\n", len(links))
	shown := a.cfg.CandidateLinksShown
	for i, link := range links {
		if i >= shown {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, link)
	}
	if len(links) > shown {
		fmt.Fprintf(&b, "... and %d more\n", len(links)-shown)
	}
	return b.String()
}

// productDataSection formats the structured fields of a product page for
// the model, so it can compare candidates without re-reading page text.
func productDataSection(html string) string {
	data := product.ExtractData(html)
	var lines []string
	if data.Title != "" {
		lines = append(lines, "Title: "+data.Title)
	}
	if data.Price != "" {
		price := data.Price
		if data.Currency != "" {
			price += " " + data.Currency
		}
		lines = append(lines, "Price: "+price)
	}
	if data.SKU != "" {
		lines = append(lines, "SKU: "+data.SKU)
	}
	if data.Availability != "" {
		lines = append(lines, "Availability: "+data.Availability)
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\nStructured product data:\n" + strings.Join(lines, "\n") + "\n"
}

func verificationReason(classifierReason string) string {
	if classifierReason != "" {
		return classifierReason
	}
	return "Page verified successfully"
}

func urlArg(args json.RawMessage) (string, bool) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.URL == "" {
		return "", false
	}
	return params.URL, true
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
