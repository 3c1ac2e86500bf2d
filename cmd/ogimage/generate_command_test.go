package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3-lines-studio/ogimage/internal/core"
)

func TestGenerateWithoutCapture(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), testConfig)
	site := t.TempDir()
	writeSitePage(t, site, "index.html", core.Options{"title": "Home"})
	writeSitePage(t, site, "blog/hello/index.html", core.Options{"provider": "browser"})
	writeSitePage(t, site, "admin/index.html", core.Options{"title": "Admin"})

	out, _, err := runCLI(t, "--config", cfgPath, "generate", "--dir", site, "--no-capture")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	requireContains(t, out, "Scanned 3 pages, 2 with an og:image")
	requireContains(t, out, "Rendered 1 vector images")
	requireContains(t, out, "og:image capture skipped: capture disabled")

	if _, err := os.Stat(filepath.Join(site, "__og_image__", "og.png")); err != nil {
		t.Fatalf("home image missing: %v", err)
	}
	for _, rel := range []string{"index.html", "blog/hello/index.html", "admin/index.html"} {
		data, err := os.ReadFile(filepath.Join(site, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), core.DirectiveScriptID) {
			t.Errorf("%s still carries the directive", rel)
		}
	}
}

func TestGenerateMissingDir(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), testConfig)
	_, _, err := runCLI(t, "--config", cfgPath, "generate", "--dir", filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected an error for a missing output directory")
	}
}
