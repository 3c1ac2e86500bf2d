package fs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// PageReader loads a route's generated markup straight from an output
// directory.
type PageReader struct {
	fs   FileSystem
	root string
}

func NewPageReader(fs FileSystem, root string) *PageReader {
	return &PageReader{fs: fs, root: root}
}

func (r *PageReader) Fetch(ctx context.Context, route string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	candidates := []string{core.FileNameForRoute(route)}
	if normalized := core.NormalizePath(route); normalized != "/" {
		candidates = append(candidates, normalized[1:]+".html")
	}

	for _, name := range candidates {
		full := filepath.Join(r.root, filepath.FromSlash(name))
		if !r.fs.FileExists(full) {
			continue
		}
		data, err := r.fs.ReadFile(full)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return "", fmt.Errorf("no generated page for %s under %s", route, r.root)
}
