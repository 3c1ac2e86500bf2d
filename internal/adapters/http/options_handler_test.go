package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/3-lines-studio/ogimage/internal/core"
	"github.com/3-lines-studio/ogimage/internal/usecase"
)

type stubResolver struct {
	results map[string]usecase.OptionsResult
	errs    map[string]error
	gotPath string
}

func (s *stubResolver) Resolve(ctx context.Context, path string) (usecase.OptionsResult, error) {
	s.gotPath = path
	if err, ok := s.errs[path]; ok {
		return usecase.OptionsResult{}, err
	}
	return s.results[path], nil
}

func TestOptionsHandler(t *testing.T) {
	resolver := &stubResolver{
		results: map[string]usecase.OptionsResult{
			"/about": {Spec: core.ImageSpec{
				Path:      "/about",
				Provider:  core.ProviderVector,
				Width:     1200,
				Height:    630,
				Component: "Basic",
				Options:   core.Options{"title": "About"},
			}},
			"/admin": {Disabled: true},
		},
		errs: map[string]error{
			"/plain": fmt.Errorf("%w: the path /plain is missing the og:image payload", core.ErrMissingDirective),
		},
	}
	router := NewRouter(NewOptionsHandler(resolver, nil))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		check      func(t *testing.T, body string)
	}{
		{
			name:       "resolved spec",
			query:      "?path=/about",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body string) {
				var got map[string]any
				if err := json.Unmarshal([]byte(body), &got); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if got["height"] != float64(630) || got["component"] != "Basic" || got["title"] != "About" {
					t.Errorf("body = %v", got)
				}
				if got["path"] != "/about" {
					t.Errorf("path = %v", got["path"])
				}
			},
		},
		{
			name:       "disabled",
			query:      "?path=/admin",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body string) {
				if strings.TrimSpace(body) != "false" {
					t.Errorf("body = %q, want false", body)
				}
			},
		},
		{
			name:       "missing payload",
			query:      "?path=/plain",
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body string) {
				if !strings.Contains(body, "missing the og:image payload") {
					t.Errorf("body = %q", body)
				}
			},
		},
		{
			name:       "invalid path",
			query:      "?path=../etc",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, OptionsRoute+tt.query, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, rec.Body.String())
			}
		})
	}
}

func TestOptionsHandlerDefaultsToRoot(t *testing.T) {
	resolver := &stubResolver{errs: map[string]error{"/": errors.New("boom")}}
	rec := httptest.NewRecorder()

	NewOptionsHandler(resolver, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, OptionsRoute, nil))

	if resolver.gotPath != "/" {
		t.Errorf("resolved path = %q, want /", resolver.gotPath)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
