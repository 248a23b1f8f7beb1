package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/rs/zerolog"

	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/render"
	"github.com/pagescout/pagescout/pkg/search"
)

const productHTML = `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":"Silver Ring Luna","sku":"SR-100","offers":{"price":"1200","priceCurrency":"UAH"}}
</script>
<title>Silver Ring Luna</title></head>
<body>Silver Ring Luna, sterling silver. Price: 1200 UAH. SKU: SR-100</body></html>`

const blockedHTML = `<html><body><form action="/captcha-verify" id="captcha-form">prove you are human</form></body></html>`

type stubChat struct {
	responses []*openai.ChatCompletionMessage
	errs      []error
	calls     int
	seen      [][]openai.ChatCompletionMessageParamUnion
}

func (s *stubChat) Chat(
	_ context.Context,
	_ string,
	messages []openai.ChatCompletionMessageParamUnion,
	_ []openai.ChatCompletionToolUnionParam,
) (*openai.ChatCompletionMessage, error) {
	idx := s.calls
	s.calls++
	s.seen = append(s.seen, messages)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx >= len(s.responses) {
		return &openai.ChatCompletionMessage{Content: "done"}, nil
	}
	return s.responses[idx], nil
}

func toolCallMsg(id, name, args string) *openai.ChatCompletionMessage {
	return &openai.ChatCompletionMessage{
		ToolCalls: []openai.ChatCompletionMessageToolCallUnion{{
			ID: id,
			Function: openai.ChatCompletionMessageFunctionToolCallFunction{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

func finalMsg(content string) *openai.ChatCompletionMessage {
	return &openai.ChatCompletionMessage{Content: content}
}

type stubSearch struct {
	results []search.Result
	err     error
	calls   int
}

func (s *stubSearch) Name() string { return "stub" }

func (s *stubSearch) Search(_ context.Context, req search.Request) (*search.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &search.Response{Query: req.Query, Results: s.results}, nil
}

type stubFetch struct {
	pages map[string]*fetch.Response
	calls []string
}

func (s *stubFetch) Name() string { return "stub" }

func (s *stubFetch) Fetch(_ context.Context, req fetch.Request) (*fetch.Response, error) {
	s.calls = append(s.calls, req.URL)
	if resp, ok := s.pages[req.URL]; ok {
		out := *resp
		if out.FinalURL == "" {
			out.FinalURL = req.URL
		}
		out.URL = req.URL
		return &out, nil
	}
	return &fetch.Response{URL: req.URL, FinalURL: req.URL, Error: "connection refused"}, nil
}

type stubRender struct {
	pages map[string]*render.Response
	calls []string
}

func (s *stubRender) Name() string { return "stub" }

func (s *stubRender) Render(_ context.Context, req render.Request) (*render.Response, error) {
	s.calls = append(s.calls, req.URL)
	if resp, ok := s.pages[req.URL]; ok {
		out := *resp
		if out.FinalURL == "" {
			out.FinalURL = req.URL
		}
		out.URL = req.URL
		return &out, nil
	}
	return &render.Response{URL: req.URL, FinalURL: req.URL, Error: "timeout"}, nil
}

// memStore is an in-process cache.Store for loop tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(op, id string) ([]byte, bool) {
	v, ok := m.data[op+":"+id]
	return v, ok
}

func (m *memStore) Set(op, id string, value []byte) error {
	m.data[op+":"+id] = value
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestAgent(cfg Config, chat ChatClient, sp search.Provider, fp fetch.Provider, rp render.Provider, store *memStore) *Agent {
	if sp == nil {
		sp = &stubSearch{}
	}
	if fp == nil {
		fp = &stubFetch{}
	}
	if rp == nil {
		rp = &stubRender{}
	}
	if store == nil {
		store = newMemStore()
	}
	return New(cfg, Deps{
		Chat:   chat,
		Search: sp,
		Fetch:  fp,
		Render: rp,
		Cache:  store,
		Logger: zerolog.Nop(),
	})
}

func TestRunSanitizesUnverifiedURLs(t *testing.T) {
	productURL := "https://shop.example.com/product/silver-ring-luna"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		productURL: {Status: 200, HTML: productHTML, Title: "Silver Ring Luna"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, productURL)),
		finalMsg("Verified: " + productURL + "\nGuessed: https://shop.example.com/product/imaginary-ring\nElsewhere: https://other.example.com/p/1"),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, nil, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if !strings.Contains(res.Answer, "Verified: "+productURL) {
		t.Fatalf("verified URL dropped from answer: %q", res.Answer)
	}
	if strings.Contains(res.Answer, "imaginary-ring") {
		t.Fatalf("invented URL survived: %q", res.Answer)
	}
	// Same-host invention is substituted with the verified URL.
	if !strings.Contains(res.Answer, "Guessed: "+productURL) {
		t.Fatalf("same-host URL not substituted: %q", res.Answer)
	}
	if !strings.Contains(res.Answer, removedURLMarker) {
		t.Fatalf("foreign-host URL not removed: %q", res.Answer)
	}
	if len(res.Sources) != 1 || res.Sources[0].Title != "Silver Ring Luna" {
		t.Fatalf("sources = %+v", res.Sources)
	}
}

func TestRunSanitizerIsIdempotent(t *testing.T) {
	a := newTestAgent(Config{}, &stubChat{}, nil, nil, nil, nil)
	st := newRunState()
	st.addVerified(&urlRecord{URL: "https://shop.example.com/product/a", Title: "A"})

	answer := "See https://shop.example.com/product/a and https://nowhere.example.com/x."
	once := a.sanitizeAnswer(answer, st)
	twice := a.sanitizeAnswer(once, st)
	if once != twice {
		t.Fatalf("sanitizer not idempotent:\n%q\n%q", once, twice)
	}
}

func TestRunUsesCacheOnRepeatFetch(t *testing.T) {
	productURL := "https://shop.example.com/product/silver-ring-luna"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		productURL: {Status: 200, HTML: productHTML, Title: "Silver Ring Luna"},
	}}
	store := newMemStore()
	call := fmt.Sprintf(`{"url":%q}`, productURL)
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, call),
		toolCallMsg("c2", toolFetchURL, call),
		finalMsg("done"),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, nil, store)
	a.Run(context.Background(), "find rings", RunOptions{})

	if len(fetcher.calls) != 1 {
		t.Fatalf("network fetches = %d, want 1 (second should hit cache)", len(fetcher.calls))
	}
}

func TestRunFallsBackToRenderAfter403(t *testing.T) {
	url := "https://shop.example.com/product/guarded-ring"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		url: {Status: 403, HTML: "<html>denied</html>"},
	}}
	renderer := &stubRender{pages: map[string]*render.Response{
		url: {Status: 200, HTML: productHTML, Title: "Silver Ring Luna"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, url)),
		finalMsg("Found it: " + url),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, renderer, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if len(renderer.calls) != 1 {
		t.Fatalf("render calls = %d, want 1", len(renderer.calls))
	}
	if len(res.Sources) != 1 {
		t.Fatalf("sources = %+v", res.Sources)
	}
	if !strings.Contains(res.Answer, url) {
		t.Fatalf("rendered page not usable in answer: %q", res.Answer)
	}
}

func TestRunRejectsWhenRenderAfter403Fails(t *testing.T) {
	url := "https://shop.example.com/product/walled-ring"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		url: {Status: 403, HTML: "<html>denied</html>"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, url)),
		finalMsg("Could not verify " + url),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, &stubRender{}, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if len(res.Sources) != 0 {
		t.Fatalf("sources = %+v, want none", res.Sources)
	}
	if !strings.Contains(res.Answer, removedURLMarker) {
		t.Fatalf("unverified URL kept: %q", res.Answer)
	}
}

func TestRunRejectsBlockedPages(t *testing.T) {
	url := "https://shop.example.com/catalog/rings"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		url: {Status: 200, HTML: blockedHTML},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, url)),
		finalMsg("nothing found"),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, nil, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if len(res.Sources) != 0 {
		t.Fatalf("sources = %+v, want none", res.Sources)
	}
}

func TestRunPageBudgetStopsFetching(t *testing.T) {
	urlA := "https://shop.example.com/product/a"
	urlB := "https://shop.example.com/product/b"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		urlA: {Status: 200, HTML: productHTML, Title: "A"},
		urlB: {Status: 200, HTML: productHTML, Title: "B"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, urlA)),
		toolCallMsg("c2", toolFetchURL, fmt.Sprintf(`{"url":%q}`, urlB)),
		finalMsg("done"),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, nil, nil)
	a.Run(context.Background(), "find rings", RunOptions{MaxPagesFetched: 1})

	if len(fetcher.calls) != 1 {
		t.Fatalf("fetch calls = %v, want only the first before budget", fetcher.calls)
	}
}

func TestRunStepLimitWithoutSources(t *testing.T) {
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolSearchWeb, `{"query":"site:shop.example.com rings"}`),
	}}
	a := newTestAgent(Config{Mode: ModeMinimal}, chat, &stubSearch{}, nil, nil, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{MaxSteps: 1})

	if !strings.Contains(res.Answer, "step limit") {
		t.Fatalf("answer = %q", res.Answer)
	}
	if len(res.Sources) != 0 {
		t.Fatalf("sources = %+v", res.Sources)
	}
}

func TestRunStepLimitListsVerifiedSources(t *testing.T) {
	productURL := "https://shop.example.com/product/silver-ring-luna"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		productURL: {Status: 200, HTML: productHTML, Title: "Silver Ring Luna"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, productURL)),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, nil, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{MaxSteps: 1})

	if !strings.Contains(res.Answer, productURL) {
		t.Fatalf("best-effort answer missing verified URL: %q", res.Answer)
	}
	if len(res.Sources) != 1 {
		t.Fatalf("sources = %+v", res.Sources)
	}
}

func TestRunModelTransportFailure(t *testing.T) {
	chat := &stubChat{errs: []error{errors.New("connection reset")}}
	a := newTestAgent(Config{}, chat, nil, nil, nil, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if !strings.Contains(res.Answer, "Error communicating with LLM") {
		t.Fatalf("answer = %q", res.Answer)
	}
	if res.Sources == nil || len(res.Sources) != 0 {
		t.Fatalf("sources = %+v", res.Sources)
	}
}

func TestRunSearchToolFormatsResults(t *testing.T) {
	sp := &stubSearch{results: []search.Result{
		{Title: "Rings", URL: "https://shop.example.com/catalog/rings", Snippet: "All rings"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolSearchWeb, `{"query":"site:shop.example.com rings","count":3}`),
		finalMsg("done"),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, sp, nil, nil, nil)
	a.Run(context.Background(), "find rings", RunOptions{})

	if sp.calls != 1 {
		t.Fatalf("search calls = %d", sp.calls)
	}
	if len(chat.seen) < 2 {
		t.Fatalf("chat calls = %d", len(chat.seen))
	}
}

func TestRunSearchResultsAreCached(t *testing.T) {
	sp := &stubSearch{results: []search.Result{{Title: "R", URL: "https://s.example/r", Snippet: "r"}}}
	call := `{"query":"site:shop.example.com rings"}`
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolSearchWeb, call),
		toolCallMsg("c2", toolSearchWeb, call),
		finalMsg("done"),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, sp, nil, nil, nil)
	a.Run(context.Background(), "find rings", RunOptions{})

	if sp.calls != 1 {
		t.Fatalf("search calls = %d, want 1 (second should hit cache)", sp.calls)
	}
}

func TestRunExtractReference(t *testing.T) {
	refURL := "https://sova.example.com/product/smart-beautiful-ring"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		refURL: {Status: 200, HTML: productHTML, Title: "Silver Ring Luna"},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolExtractReference, fmt.Sprintf(`{"url":%q}`, refURL)),
		finalMsg("Reference understood: " + refURL),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, nil, nil)
	res := a.Run(context.Background(), "find similar to "+refURL, RunOptions{})

	if len(res.Sources) != 1 {
		t.Fatalf("sources = %+v, reference page should be verified", res.Sources)
	}
	if !strings.Contains(res.Answer, refURL) {
		t.Fatalf("reference URL stripped: %q", res.Answer)
	}
	// The tool result should have reached the model with attributes.
	if len(chat.seen) < 2 {
		t.Fatalf("chat calls = %d", len(chat.seen))
	}
}

func TestProductDataSection(t *testing.T) {
	section := productDataSection(productHTML)
	for _, want := range []string{"Silver Ring Luna", "1200 UAH", "SR-100"} {
		if !strings.Contains(section, want) {
			t.Fatalf("section = %q, missing %q", section, want)
		}
	}
	if productDataSection("<html><body>nothing here</body></html>") != "" {
		t.Fatal("expected empty section for unstructured page")
	}
}

func TestRunUnknownToolReported(t *testing.T) {
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", "teleport", `{}`),
		finalMsg("done"),
	}}
	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, nil, nil, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if len(res.Debug) != 1 || res.Debug[0].Success {
		t.Fatalf("debug = %+v", res.Debug)
	}
}

// challengeHTML carries enough boilerplate text that the classifier alone
// would wave it through as a low-confidence product page.
func challengeHTML() string {
	return `<html><body><div id="__cf_chl_widget">Checking your browser before accessing the site.</div>` +
		strings.Repeat("<p>Please stand by while we verify that your request is legitimate. This process is automatic.</p>", 10) +
		`</body></html>`
}

func TestRunRejectsBlockedRender(t *testing.T) {
	url := "https://shop.example.com/product/ring-9001"
	renderer := &stubRender{pages: map[string]*render.Response{
		url: {Status: 403, HTML: challengeHTML(), Blocked: true},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolRenderURL, fmt.Sprintf(`{"url":%q}`, url)),
		finalMsg("Found it: " + url),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, nil, renderer, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if len(res.Sources) != 0 {
		t.Fatalf("sources = %+v, blocked page must not be verified", res.Sources)
	}
	if strings.Contains(res.Answer, url) {
		t.Fatalf("blocked URL survived sanitization: %q", res.Answer)
	}
}

func TestRunRejectsBlockedRenderAfter403(t *testing.T) {
	url := "https://shop.example.com/product/ring-9002"
	fetcher := &stubFetch{pages: map[string]*fetch.Response{
		url: {Status: 403, HTML: "<html>denied</html>"},
	}}
	renderer := &stubRender{pages: map[string]*render.Response{
		url: {Status: 403, HTML: challengeHTML(), Blocked: true},
	}}
	chat := &stubChat{responses: []*openai.ChatCompletionMessage{
		toolCallMsg("c1", toolFetchURL, fmt.Sprintf(`{"url":%q}`, url)),
		finalMsg("Found it: " + url),
	}}

	a := newTestAgent(Config{Mode: ModeMinimal}, chat, nil, fetcher, renderer, nil)
	res := a.Run(context.Background(), "find rings", RunOptions{})

	if len(res.Sources) != 0 {
		t.Fatalf("sources = %+v, blocked page must not be verified", res.Sources)
	}
	if strings.Contains(res.Answer, url) {
		t.Fatalf("blocked URL survived sanitization: %q", res.Answer)
	}
}
