package ports

import (
	"context"
)

// Fetcher abstracts remote source acquisition.
type Fetcher interface {
	// Fetch downloads the resource at uri and returns its bytes.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc is a function adapter for Fetcher.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}
