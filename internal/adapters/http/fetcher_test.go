package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpstreamFetcher(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/about" {
			_, _ = w.Write([]byte("<html>about</html>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	fetcher := NewUpstreamFetcher(upstream.URL+"/", upstream.Client())

	html, err := fetcher.Fetch(context.Background(), "/about")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if html != "<html>about</html>" {
		t.Errorf("Fetch() = %q", html)
	}

	if _, err := fetcher.Fetch(context.Background(), "/missing"); err == nil {
		t.Error("expected an error for a 404 page")
	}
}
