package core

import (
	"fmt"
	"path"
	"strings"
)

func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func ValidateRoutePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("path must start with /")
	}

	if strings.Contains(p, "?") {
		return fmt.Errorf("path cannot contain query string")
	}

	if strings.Contains(p, "#") {
		return fmt.Errorf("path cannot contain fragment")
	}

	if strings.Contains(p, "..") {
		return fmt.Errorf("path cannot contain parent directory references")
	}

	if strings.Contains(p, "*") {
		return fmt.Errorf("path cannot contain wildcards")
	}

	return nil
}

// ShouldScanRoute reports whether a generated route can carry a directive.
// File-like routes (already compiled assets) and the image routes themselves
// are never scanned.
func ShouldScanRoute(route string) bool {
	if route == "" {
		return false
	}
	if strings.Contains("/"+strings.Trim(route, "/")+"/", "/"+ArtifactDir+"/") {
		return false
	}
	return !strings.Contains(path.Base(NormalizePath(route)), ".")
}

// RouteForFile maps an output file such as "blog/post/index.html" back to
// the route "/blog/post".
func RouteForFile(fileName string) string {
	name := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(fileName, "\\", "/")), "/")
	switch {
	case name == "index.html":
		return "/"
	case strings.HasSuffix(name, "/index.html"):
		return NormalizePath(strings.TrimSuffix(name, "/index.html"))
	default:
		return NormalizePath(strings.TrimSuffix(name, path.Ext(name)))
	}
}

func FileNameForRoute(route string) string {
	route = NormalizePath(route)
	if route == "/" {
		return "index.html"
	}
	return strings.TrimPrefix(route, "/") + "/index.html"
}

func JoinURL(base, route string) string {
	return strings.TrimSuffix(base, "/") + NormalizePath(route)
}
