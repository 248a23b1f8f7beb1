package agent

import (
	"github.com/rs/zerolog"

	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/pageclass"
	"github.com/pagescout/pagescout/pkg/render"
	"github.com/pagescout/pagescout/pkg/search"
)

// Deps are the collaborators a loop needs. All of them are interfaces so
// tests can script them.
type Deps struct {
	Chat     ChatClient
	Search   search.Provider
	Fetch    fetch.Provider
	Render   render.Provider
	Cache    cache.Store
	Classify pageclass.Config
	Logger   zerolog.Logger
}

type Agent struct {
	cfg         Config
	chat        ChatClient
	search      search.Provider
	fetcher     fetch.Provider
	renderer    render.Provider
	store       cache.Store
	classifyCfg pageclass.Config
	log         zerolog.Logger
}

func New(cfg Config, deps Deps) *Agent {
	return &Agent{
		cfg:         cfg.WithDefaults(),
		chat:        deps.Chat,
		search:      deps.Search,
		fetcher:     deps.Fetch,
		renderer:    deps.Render,
		store:       deps.Cache,
		classifyCfg: deps.Classify.WithDefaults(),
		log:         deps.Logger.With().Str("component", "agent").Logger(),
	}
}
