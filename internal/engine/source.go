package engine

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// Source is where the raw CSV comes from. ID identifies it for caching.
type Source interface {
	ID() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// NewSource picks an HTTP source for http(s) URLs and a file source otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return &HTTPSource{URL: location, Client: &http.Client{Timeout: timeout}}
	}
	return FileSource(location)
}

// FileSource reads a local CSV file.
type FileSource string

func (f FileSource) ID() string { return string(f) }

// Path returns the local file path.
func (f FileSource) Path() string { return string(f) }

func (f FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", string(f))
	}
	return file, nil
}

// HTTPSource fetches the CSV with a single GET.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h *HTTPSource) ID() string { return h.URL }

func (h *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", h.URL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Newf("fetch %s: unexpected status %d", h.URL, resp.StatusCode)
	}
	return resp.Body, nil
}
