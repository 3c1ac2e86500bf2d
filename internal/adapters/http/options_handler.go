package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/3-lines-studio/ogimage/internal/core"
	"github.com/3-lines-studio/ogimage/internal/usecase"
)

const OptionsRoute = "/" + core.ArtifactDir + "/options"

type OptionsResolver interface {
	Resolve(ctx context.Context, path string) (usecase.OptionsResult, error)
}

// OptionsHandler answers with the resolved image options of ?path=, or
// false when a route rule disables the image.
type OptionsHandler struct {
	resolver OptionsResolver
	logger   *slog.Logger
}

func NewOptionsHandler(resolver OptionsResolver, logger *slog.Logger) *OptionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OptionsHandler{resolver: resolver, logger: logger}
}

func (h *OptionsHandler) Register(r chi.Router) {
	r.Get(OptionsRoute, h.ServeHTTP)
}

func (h *OptionsHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	if err := core.ValidateRoutePath(path); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.resolver.Resolve(req.Context(), path)
	if err != nil {
		h.logger.Warn("og:image options failed", "path", path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if result.Disabled {
		writeJSON(w, http.StatusOK, false)
		return
	}
	writeJSON(w, http.StatusOK, result.Spec.Flatten())
}

// NewRouter mounts the options endpoint behind the usual middleware stack.
func NewRouter(options *OptionsHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	options.Register(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
