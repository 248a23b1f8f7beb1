package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pagescout/pagescout/pkg/httputil"
)

const ProviderBrave = "brave"

// braveAPIMaxCount is the result cap at the Brave API boundary, above the
// tool-schema cap.
const braveAPIMaxCount = 20

type braveProvider struct {
	cfg   BraveConfig
	sleep func(time.Duration)
}

// NewBrave creates a Brave Search provider.
func NewBrave(cfg BraveConfig) Provider {
	return &braveProvider{cfg: cfg.withDefaults(), sleep: time.Sleep}
}

func (p *braveProvider) Name() string {
	return ProviderBrave
}

func (p *braveProvider) Search(ctx context.Context, req Request) (*Response, error) {
	if p.cfg.APIKey == "" {
		return nil, errors.New("brave api_key is empty")
	}
	searchURL, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	req = Normalize(req)
	count := req.Count
	if count > braveAPIMaxCount {
		count = braveAPIMaxCount
	}
	queryValues := searchURL.Query()
	queryValues.Set("q", req.Query)
	queryValues.Set("count", fmt.Sprintf("%d", count))
	searchURL.RawQuery = queryValues.Encode()

	headers := map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": p.cfg.APIKey,
	}

	start := time.Now()
	var data []byte
	for attempt := 0; ; attempt++ {
		var status int
		data, status, err = httputil.GetJSON(ctx, searchURL.String(), headers, p.cfg.TimeoutSecs)
		if err == nil {
			break
		}
		// Rate limiting is the only condition worth retrying; everything
		// else surfaces to the executor immediately.
		if status != 429 || attempt >= p.cfg.RetryAttempts-1 {
			return nil, err
		}
		delay := time.Duration(p.cfg.RetryBaseSecs) * time.Second << attempt
		p.sleep(delay)
	}

	var resp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Web.Results))
	for _, entry := range resp.Web.Results {
		results = append(results, Result{
			Title:   strings.TrimSpace(entry.Title),
			URL:     entry.URL,
			Snippet: strings.TrimSpace(entry.Description),
		})
	}

	return &Response{
		Query:   req.Query,
		Count:   len(results),
		TookMs:  time.Since(start).Milliseconds(),
		Results: results,
	}, nil
}
