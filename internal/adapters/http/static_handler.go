package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// StaticHandler serves a generated output directory the way static hosts
// do: "/about" resolves to about/index.html, then about.html.
type StaticHandler struct {
	root string
}

func NewStaticHandler(root string) http.Handler {
	return &StaticHandler{root: root}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + req.URL.Path)
	fullPath, ok := h.resolve(clean)
	if !ok {
		http.NotFound(w, req)
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		http.NotFound(w, req)
		return
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", core.GetContentType(fullPath))
	http.ServeContent(w, req, info.Name(), info.ModTime(), file)
}

func (h *StaticHandler) resolve(clean string) (string, bool) {
	rel := filepath.FromSlash(strings.TrimPrefix(clean, "/"))
	candidates := []string{
		filepath.Join(h.root, rel),
		filepath.Join(h.root, rel, "index.html"),
	}
	if clean != "/" {
		candidates = append(candidates, filepath.Join(h.root, rel+".html"))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
