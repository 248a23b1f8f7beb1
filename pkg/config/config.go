// Package config loads the service configuration from YAML with
// environment overrides for credentials.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagescout/pagescout/pkg/agent"
	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/httpapi"
	"github.com/pagescout/pagescout/pkg/render"
	"github.com/pagescout/pagescout/pkg/search"
)

type Config struct {
	LogLevel string           `yaml:"log_level"`
	Agent    agent.Config     `yaml:"agent"`
	LLM      agent.ChatConfig `yaml:"llm"`
	Search   search.Config    `yaml:"search"`
	Fetch    fetch.Config     `yaml:"fetch"`
	Render   render.Config    `yaml:"render"`
	Cache    cache.Config     `yaml:"cache"`
	API      httpapi.Config   `yaml:"api"`
}

// Load reads the file at path when it exists, then applies environment
// overrides and defaults. A missing file is not an error; the defaults
// plus environment are a workable configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OR_MODEL"); v != "" {
		c.Agent.Model = v
	}
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		c.Search.Brave.APIKey = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("RENDER_ENDPOINT"); v != "" {
		c.Render.Endpoint = v
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Agent = c.Agent.WithDefaults()
	c.LLM = c.LLM.WithDefaults()
	c.Search = *c.Search.WithDefaults()
	c.Fetch = c.Fetch.WithDefaults()
	c.Render = c.Render.WithDefaults()
	c.Cache = c.Cache.WithDefaults()
	c.API = c.API.WithDefaults()
}

// Validate reports configuration the agent cannot run without.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key (or OPENROUTER_API_KEY) is required")
	}
	if c.Search.Brave.APIKey == "" {
		return fmt.Errorf("search.brave.api_key (or BRAVE_API_KEY) is required")
	}
	return nil
}
