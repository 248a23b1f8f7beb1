package search

// Request is a normalized web search request.
type Request struct {
	Query string
	Count int
}

// Result is a normalized search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Response is a normalized search response.
type Response struct {
	Query   string   `json:"query"`
	Count   int      `json:"count"`
	TookMs  int64    `json:"took_ms"`
	Results []Result `json:"results"`
	Cached  bool     `json:"cached,omitempty"`
}
