// Package app wires configuration into a ready-to-run agent.
package app

import (
	"github.com/rs/zerolog"

	"github.com/pagescout/pagescout/pkg/agent"
	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/config"
	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/render"
	"github.com/pagescout/pagescout/pkg/search"
)

// Build constructs the agent with all collaborators from config. The
// returned closer releases the cache store.
func Build(cfg *config.Config, log zerolog.Logger) (*agent.Agent, func() error, error) {
	store, err := cache.Open(cfg.Cache, log)
	if err != nil {
		return nil, nil, err
	}
	a := agent.New(cfg.Agent, agent.Deps{
		Chat:   agent.NewOpenRouterClient(cfg.LLM),
		Search: search.NewBrave(cfg.Search.Brave),
		Fetch:  fetch.NewDirect(cfg.Fetch, log),
		Render: render.NewBrowser(cfg.Render, log),
		Cache:  store,
		Logger: log,
	})
	return a, store.Close, nil
}
