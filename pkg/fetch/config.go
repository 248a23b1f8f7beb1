package fetch

const (
	DefaultTimeoutSecs  = 30
	DefaultMaxRedirects = 10
	DefaultMaxTextChars = 20_000
	DefaultMaxLinks     = 50
)

// Config controls the direct HTTP fetcher.
type Config struct {
	TimeoutSecs  int    `yaml:"timeout_seconds"`
	UserAgent    string `yaml:"user_agent"`
	MaxRedirects int    `yaml:"max_redirects"`
	MaxTextChars int    `yaml:"max_text_chars"`
}

func (c Config) WithDefaults() Config {
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.MaxTextChars <= 0 {
		c.MaxTextChars = DefaultMaxTextChars
	}
	return c
}
