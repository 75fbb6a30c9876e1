package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/animrender/pkg/ports"
)

// Fetcher is a mock implementation of ports.Fetcher serving canned
// responses by URI.
type Fetcher struct {
	mu        sync.Mutex
	responses map[string][]byte

	FetchFunc func(ctx context.Context, uri string) ([]byte, error)

	// Recorded calls for verification
	FetchedURIs []string
}

// NewFetcher creates a new mock Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{responses: make(map[string][]byte)}
}

// Respond registers canned bytes for uri.
func (m *Fetcher) Respond(uri string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[uri] = data
}

func (m *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	m.mu.Lock()
	m.FetchedURIs = append(m.FetchedURIs, uri)
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, uri)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.responses[uri]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("no canned response for %s", uri)
}

var _ ports.Fetcher = (*Fetcher)(nil)
