package search

const (
	DefaultSearchCount = 5
	MaxSearchCount     = 10
	DefaultTimeoutSecs = 30

	// Backoff schedule for rate-limited requests.
	DefaultRetryAttempts = 3
	DefaultRetryBaseSecs = 1
)

// Config controls the search provider and its credentials.
type Config struct {
	Brave BraveConfig `yaml:"brave"`
}

// BraveConfig configures the Brave Search API client.
type BraveConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	TimeoutSecs   int    `yaml:"timeout_seconds"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryBaseSecs int    `yaml:"retry_base_seconds"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	c.Brave = c.Brave.withDefaults()
	return c
}

func (c BraveConfig) withDefaults() BraveConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.search.brave.com/res/v1/web/search"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryBaseSecs <= 0 {
		c.RetryBaseSecs = DefaultRetryBaseSecs
	}
	return c
}
