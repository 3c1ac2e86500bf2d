package core

import (
	"path"
	"strings"
)

type Provider string

const (
	ProviderVector  Provider = "vector"
	ProviderBrowser Provider = "browser"
)

const (
	ArtifactDir  = "__og_image__"
	ArtifactFile = "og.png"

	DefaultComponent = "OgImageBasic"
	DefaultWidth     = 1200
	DefaultHeight    = 630
)

// PageContext carries the build metadata of the page a spec came from.
// FileName is the page's primary output file relative to the output root.
type PageContext struct {
	Route    string
	FileName string
}

type ImageSpec struct {
	Path      string
	Provider  Provider
	Width     int
	Height    int
	Component string
	Prerender bool
	Options   Options
	Context   PageContext
}

func DefaultOptions() Options {
	return Options{
		"component": DefaultComponent,
		"width":     DefaultWidth,
		"height":    DefaultHeight,
	}
}

// ArtifactPath is the slash separated location of the image relative to
// the output root.
func (s ImageSpec) ArtifactPath() string {
	fileName := s.Context.FileName
	if fileName == "" {
		fileName = FileNameForRoute(s.Path)
	}
	return ArtifactPathFor(fileName)
}

// Flatten returns the merged options with the resolved identity fields set,
// the shape the options endpoint answers with.
func (s ImageSpec) Flatten() Options {
	out := s.Options.Clone()
	out["path"] = s.Path
	out["provider"] = string(s.Provider)
	out["width"] = s.Width
	out["height"] = s.Height
	if s.Component != "" {
		out["component"] = s.Component
	}
	return out
}

func ArtifactPathFor(fileName string) string {
	name := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(fileName, "\\", "/")), "/")

	dir := path.Dir(name)
	base := path.Base(name)
	if base != "index.html" {
		dir = path.Join(dir, strings.TrimSuffix(base, path.Ext(base)))
	}

	return path.Join(dir, ArtifactDir, ArtifactFile)
}
