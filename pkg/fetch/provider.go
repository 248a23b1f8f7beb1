// Package fetch retrieves pages over plain HTTP and extracts readable text
// and links from them. JavaScript-dependent pages go through pkg/render
// instead.
package fetch

import "context"

// Provider fetches a page. Implementations return a Response even on HTTP
// errors so the caller can see the status and final URL; a nil Response
// means a transport-level failure.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) (*Response, error)
}
