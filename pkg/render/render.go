// Package render talks to a headless-browser service for pages that need
// JavaScript execution or sit behind bot challenges the plain fetcher
// cannot pass.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagescout/pagescout/pkg/httputil"
	"github.com/pagescout/pagescout/pkg/pageclass"
)

type Config struct {
	// Endpoint is the render service base URL, e.g. http://localhost:8700.
	Endpoint string `yaml:"endpoint"`
	// WaitMs is the extra settle time after page load.
	WaitMs      int `yaml:"wait_ms"`
	TimeoutSecs int `yaml:"timeout_secs"`
}

func (c Config) WithDefaults() Config {
	if c.WaitMs <= 0 {
		c.WaitMs = 1000
	}
	if c.TimeoutSecs <= 0 {
		// Rendering includes browser navigation and challenge waits.
		c.TimeoutSecs = 90
	}
	return c
}

type Request struct {
	URL string
}

type Response struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Status   int    `json:"status"`
	HTML     string `json:"html"`
	Title    string `json:"title"`
	Blocked  bool   `json:"blocked"`
	Error    string `json:"error,omitempty"`
	TookMs   int64  `json:"took_ms"`
}

type Provider interface {
	Name() string
	Render(ctx context.Context, req Request) (*Response, error)
}

const ProviderBrowser = "browser"

type browserProvider struct {
	cfg Config
	log zerolog.Logger
}

// NewBrowser creates a client for the render service. The service loads
// the page in a real browser and returns the settled DOM.
func NewBrowser(cfg Config, log zerolog.Logger) Provider {
	return &browserProvider{
		cfg: cfg.WithDefaults(),
		log: log.With().Str("component", "render").Logger(),
	}
}

func (p *browserProvider) Name() string {
	return ProviderBrowser
}

type renderPayload struct {
	URL    string `json:"url"`
	WaitMs int    `json:"wait_ms"`
}

func (p *browserProvider) Render(ctx context.Context, req Request) (*Response, error) {
	if p.cfg.Endpoint == "" {
		return nil, fmt.Errorf("render service endpoint not configured")
	}

	start := time.Now()
	payload := renderPayload{URL: req.URL, WaitMs: p.cfg.WaitMs}
	data, status, err := httputil.PostJSON(ctx, p.cfg.Endpoint+"/render", nil, payload, p.cfg.TimeoutSecs)
	if err != nil {
		p.log.Warn().Err(err).Int("status", status).Str("url", req.URL).Msg("render service call failed")
		return &Response{
			URL:      req.URL,
			FinalURL: req.URL,
			Error:    err.Error(),
			TookMs:   time.Since(start).Milliseconds(),
		}, nil
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return &Response{
			URL:      req.URL,
			FinalURL: req.URL,
			Error:    "render service returned malformed response: " + err.Error(),
			TookMs:   time.Since(start).Milliseconds(),
		}, nil
	}
	out.URL = req.URL
	if out.FinalURL == "" {
		out.FinalURL = req.URL
	}
	out.TookMs = time.Since(start).Milliseconds()

	// The service reports challenge pages, but re-check locally in case
	// an older service version does not set the flag.
	if !out.Blocked {
		out.Blocked = pageclass.LooksBlocked(out.HTML, out.FinalURL) ||
			out.Status == http.StatusUnauthorized ||
			out.Status == http.StatusForbidden ||
			out.Status == http.StatusTooManyRequests
	}

	p.log.Debug().
		Str("url", req.URL).
		Int("status", out.Status).
		Bool("blocked", out.Blocked).
		Int64("took_ms", out.TookMs).
		Msg("rendered page")
	return &out, nil
}
