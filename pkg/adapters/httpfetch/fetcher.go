// Package httpfetch provides source acquisition over HTTP.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// DefaultTimeout bounds a single source download.
const DefaultTimeout = 30 * time.Second

// Fetcher downloads source bytes over HTTP.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher with the default timeout.
func New() *Fetcher {
	return NewWithClient(&http.Client{Timeout: DefaultTimeout})
}

// NewWithClient creates a Fetcher using the given client.
func NewWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads uri and returns its body. Transport failures and non-2xx
// statuses fail with DownloadFailed.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, render.NewError(render.ErrDownloadFailed, fmt.Sprintf("build request for %s", uri), err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, render.NewError(render.ErrDownloadFailed, fmt.Sprintf("request %s", uri), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, render.Errorf(render.ErrDownloadFailed, "unexpected status %d for %s", resp.StatusCode, uri)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, render.NewError(render.ErrDownloadFailed, fmt.Sprintf("read body of %s", uri), err)
	}
	return data, nil
}

var _ ports.Fetcher = (*Fetcher)(nil)
