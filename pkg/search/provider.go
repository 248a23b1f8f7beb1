// Package search wraps the web-search collaborator behind a Provider
// interface so the agent loop can be tested against stubs.
package search

import "context"

// Provider performs web searches for a given backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) (*Response, error)
}

// Normalize clamps the request count into the allowed range.
func Normalize(req Request) Request {
	if req.Count <= 0 {
		req.Count = DefaultSearchCount
	}
	if req.Count > MaxSearchCount {
		req.Count = MaxSearchCount
	}
	return req
}
