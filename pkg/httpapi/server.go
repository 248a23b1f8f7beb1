// Package httpapi exposes the agent over REST.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/pagescout/pagescout/pkg/agent"
)

// Runner is the part of the agent the API needs.
type Runner interface {
	Run(ctx context.Context, prompt string, opts agent.RunOptions) agent.Result
}

type Config struct {
	Addr string `yaml:"addr"`
	// RequestTimeoutSecs bounds a single /browse request end to end.
	RequestTimeoutSecs int `yaml:"request_timeout_secs"`
}

func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.RequestTimeoutSecs <= 0 {
		// Runs span several model and page round trips.
		c.RequestTimeoutSecs = 600
	}
	return c
}

type Server struct {
	cfg    Config
	runner Runner
	log    zerolog.Logger
}

func NewServer(cfg Config, runner Runner, log zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg.WithDefaults(),
		runner: runner,
		log:    log.With().Str("component", "httpapi").Logger(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Get("/health", s.handleHealth)
	r.Post("/browse", s.handleBrowse)
	return r
}

// ListenAndServe blocks until the context is cancelled, then shuts the
// server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := xid.New().String()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
