package pageclass

const (
	DefaultMinHeuristicLinks    = 3
	DefaultBlockedTextMax       = 200
	DefaultMetaRefreshTextMax   = 500
	DefaultBlockedScriptCount   = 5
	DefaultLowConfidenceTextMin = 500
	DefaultMaxCandidateLinks    = 50
)

// Config holds the classifier's tunable thresholds. The defaults come from
// empirical runs against e-commerce sites and should be recalibrated per
// deployment rather than treated as ground truth.
type Config struct {
	// MinHeuristicLinks is how many product-shaped anchors a page needs
	// before the heuristic counter is trusted as a product count.
	MinHeuristicLinks int `yaml:"min_heuristic_links"`
	// BlockedTextMax is the text length under which captcha forms or
	// script-heavy pages are treated as blocked.
	BlockedTextMax int `yaml:"blocked_text_max"`
	// MetaRefreshTextMax is the text length under which a meta-refresh tag
	// marks the page as an interstitial.
	MetaRefreshTextMax int `yaml:"meta_refresh_text_max"`
	// BlockedScriptCount is the script-tag count that, combined with low
	// text, marks a page as blocked.
	BlockedScriptCount int `yaml:"blocked_script_count"`
	// LowConfidenceTextMin is the minimum text length for the schema-less
	// product fallback.
	LowConfidenceTextMin int `yaml:"low_confidence_text_min"`
	// MaxCandidateLinks caps candidate-link extraction on listing pages.
	MaxCandidateLinks int `yaml:"max_candidate_links"`
}

func (c Config) WithDefaults() Config {
	if c.MinHeuristicLinks <= 0 {
		c.MinHeuristicLinks = DefaultMinHeuristicLinks
	}
	if c.BlockedTextMax <= 0 {
		c.BlockedTextMax = DefaultBlockedTextMax
	}
	if c.MetaRefreshTextMax <= 0 {
		c.MetaRefreshTextMax = DefaultMetaRefreshTextMax
	}
	if c.BlockedScriptCount <= 0 {
		c.BlockedScriptCount = DefaultBlockedScriptCount
	}
	if c.LowConfidenceTextMin <= 0 {
		c.LowConfidenceTextMin = DefaultLowConfidenceTextMin
	}
	if c.MaxCandidateLinks <= 0 {
		c.MaxCandidateLinks = DefaultMaxCandidateLinks
	}
	return c
}
