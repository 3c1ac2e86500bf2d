package ogimage

import (
	"context"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/ogimage/internal/core"
)

type RenderFailure struct {
	Route string
	Err   error
}

type DirResult struct {
	Pages    int
	Images   int
	Rendered []string
	Failed   []RenderFailure
	Report   Report
}

// GenerateDir runs a full static export over pages already written to the
// output directory: every .html file is processed and rewritten without its
// directive, then the queued screenshots are captured.
func (g *Generator) GenerateDir(ctx context.Context) (DirResult, error) {
	var result DirResult
	run := g.NewRun(true)

	err := g.fs.WalkDir(g.outDir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == core.ArtifactDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return g.processFile(ctx, run, path, &result)
	})
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", g.outDir, err)
	}

	g.logger.Debug("og:image scan finished", "pages", result.Pages, "images", result.Images, "queued", run.Queued())
	result.Report = run.Close(ctx)
	return result, nil
}

func (g *Generator) processFile(ctx context.Context, run *Run, path string, result *DirResult) error {
	rel, err := filepath.Rel(g.outDir, path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	data, err := g.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	html := string(data)

	out, err := run.Page(ctx, Page{Route: core.RouteForFile(rel), FileName: rel, HTML: html})
	if out.HTML != "" && out.HTML != html {
		if werr := g.fs.WriteFile(path, []byte(out.HTML), 0644); werr != nil {
			return fmt.Errorf("write %s: %w", rel, werr)
		}
	}
	if err != nil {
		return err
	}
	result.Pages++

	if out.Spec != nil {
		result.Images++
	}
	if out.Rendered != "" {
		result.Rendered = append(result.Rendered, out.Rendered)
	}
	if out.RenderErr != nil {
		result.Failed = append(result.Failed, RenderFailure{Route: out.Spec.Path, Err: out.RenderErr})
	}
	return nil
}
