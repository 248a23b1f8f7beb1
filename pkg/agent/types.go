// Package agent runs the research loop: it drives the model through
// search, fetch and render tools, tracks which URLs were actually
// verified, and guarantees the final answer only cites verified pages.
package agent

import (
	"encoding/json"

	"github.com/pagescout/pagescout/pkg/pageclass"
)

// Source is a verified page the final answer may reference.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Trace records one tool invocation for debugging.
type Trace struct {
	Step         int             `json:"step"`
	Tool         string          `json:"tool"`
	Args         json.RawMessage `json:"args"`
	ResultLength int             `json:"result_length"`
	Success      bool            `json:"success"`
}

// Result is the outcome of a single agent run.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Debug   []Trace  `json:"debug,omitempty"`
}

// urlRecord holds provenance for a URL that passed the verification gate.
type urlRecord struct {
	URL          string
	Title        string
	Verdict      pageclass.Verdict
	ProductCount int
	Reason       string
	FinalURL     string
	CanonicalURL string
	SKU          string
}

// toolResult is what the executor hands back to the loop for one call.
type toolResult struct {
	content string
	success bool

	// url is set for fetch/render calls; empty for searches.
	url          string
	finalURL     string
	canonicalURL string
	title        string
	sku          string
	verdict      pageclass.Verdict
	productCount int

	verified           bool
	verificationReason string
	rejectionReason    string
}
