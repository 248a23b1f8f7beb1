package fetch

// Request identifies a page to fetch.
type Request struct {
	URL string
}

// Response is a normalized fetch result. HTML is the raw body; Text is
// filled lazily by the executor via ExtractText when absent.
type Response struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Status   int    `json:"status"`
	HTML     string `json:"html"`
	Text     string `json:"text,omitempty"`
	Title    string `json:"title,omitempty"`
	TookMs   int64  `json:"took_ms"`
	Error    string `json:"error,omitempty"`
}
