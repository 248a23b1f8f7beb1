package agent

// Mode selects how strictly the loop polices URLs in its output.
type Mode string

const (
	// ModeMinimal applies the verification gate and output sanitizer but
	// skips the final re-fetch pass over product URLs.
	ModeMinimal Mode = "minimal"
	// ModeProvenance re-fetches preferred canonical/final URLs for
	// product records and promotes them when they classify as products.
	ModeProvenance Mode = "provenance"
	// ModeSKU additionally requires the promoted URL's SKU to match the
	// original page's SKU, or both to be absent.
	ModeSKU Mode = "sku"
)

// ParseMode validates a mode string. The empty string is valid and
// means "use the configured default".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeMinimal, ModeProvenance, ModeSKU, "":
		return Mode(s), true
	}
	return "", false
}

type Config struct {
	Model           string `yaml:"model"`
	MaxSteps        int    `yaml:"max_steps"`
	MaxPagesFetched int    `yaml:"max_pages_fetched"`
	Mode            Mode   `yaml:"mode"`
	// MaxSearchCount caps the per-call search result count the model may
	// request.
	MaxSearchCount int `yaml:"max_search_count"`
	// CandidateLinksShown is how many candidate links are listed inline
	// in tool output before collapsing to a "more" marker.
	CandidateLinksShown int `yaml:"candidate_links_shown"`
	// ExtendedTools exposes the build_url and extract_search_schema tools,
	// which let the model construct listing URLs from site search forms.
	ExtendedTools bool `yaml:"extended_tools"`
}

func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = "google/gemini-2.0-flash"
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = 10
	}
	if c.MaxPagesFetched <= 0 {
		c.MaxPagesFetched = 8
	}
	if c.Mode == "" {
		c.Mode = ModeSKU
	}
	if c.MaxSearchCount <= 0 {
		c.MaxSearchCount = 10
	}
	if c.CandidateLinksShown <= 0 {
		c.CandidateLinksShown = 10
	}
	return c
}
