package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/3-lines-studio/ogimage/internal/core"
)

const maxPageBytes = 10 << 20

// UpstreamFetcher reads rendered pages from the running site.
type UpstreamFetcher struct {
	baseURL string
	client  *http.Client
}

func NewUpstreamFetcher(baseURL string, client *http.Client) *UpstreamFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &UpstreamFetcher{baseURL: baseURL, client: client}
}

func (f *UpstreamFetcher) Fetch(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, core.JoinURL(f.baseURL, path), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s returned %s", req.URL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
