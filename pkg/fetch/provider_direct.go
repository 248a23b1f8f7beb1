package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const ProviderDirect = "direct"

// maxBodyBytes bounds how much of a page body is read. Product pages are
// rarely above a couple of megabytes of HTML.
const maxBodyBytes = 10 << 20

type directProvider struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewDirect creates the plain-HTTP fetcher.
func NewDirect(cfg Config, log zerolog.Logger) Provider {
	cfg = cfg.WithDefaults()
	maxRedirects := cfg.MaxRedirects
	return &directProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		log: log.With().Str("component", "fetch").Logger(),
	}
}

func (p *directProvider) Name() string {
	return ProviderDirect
}

func (p *directProvider) Fetch(ctx context.Context, req Request) (*Response, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("url must use http or https")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", p.cfg.UserAgent)
	request.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := p.client.Do(request)
	if err != nil {
		// Timeouts and connection failures are recoverable tool errors,
		// not run-level failures.
		p.log.Warn().Err(err).Str("url", req.URL).Msg("fetch failed")
		return &Response{
			URL:      req.URL,
			FinalURL: req.URL,
			Error:    err.Error(),
			TookMs:   time.Since(start).Milliseconds(),
		}, nil
	}
	defer resp.Body.Close()

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	out := &Response{
		URL:      req.URL,
		FinalURL: finalURL,
		Status:   resp.StatusCode,
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.Contains(contentType, "html") || strings.Contains(contentType, "text") {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			out.Error = err.Error()
		} else {
			out.HTML = string(body)
			out.Title = ExtractTitle(out.HTML)
		}
	}
	out.TookMs = time.Since(start).Milliseconds()

	p.log.Debug().
		Str("url", req.URL).
		Str("final_url", finalURL).
		Int("status", resp.StatusCode).
		Int64("took_ms", out.TookMs).
		Msg("fetched page")
	return out, nil
}
