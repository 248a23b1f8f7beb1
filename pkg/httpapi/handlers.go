package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pagescout/pagescout/pkg/agent"
)

const (
	minSteps = 1
	maxSteps = 20
)

type browseRequest struct {
	Prompt   string `json:"prompt"`
	Mode     string `json:"mode,omitempty"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

type browseResponse struct {
	Answer  string         `json:"answer"`
	Sources []agent.Source `json:"sources"`
	Debug   []agent.Trace  `json:"debug,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	var req browseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}
	if req.MaxSteps != 0 && (req.MaxSteps < minSteps || req.MaxSteps > maxSteps) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max_steps must be between 1 and 20"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.RequestTimeoutSecs)*time.Second)
	defer cancel()

	s.log.Info().
		Str("mode", req.Mode).
		Int("max_steps", req.MaxSteps).
		Msg("browse request")

	result := s.runner.Run(ctx, req.Prompt, agent.RunOptions{MaxSteps: req.MaxSteps})

	resp := browseResponse{
		Answer:  result.Answer,
		Sources: result.Sources,
	}
	if resp.Sources == nil {
		resp.Sources = []agent.Source{}
	}
	// Tool traces are internal; only the debug mode exposes them.
	if req.Mode == "debug" {
		resp.Debug = result.Debug
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
