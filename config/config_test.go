package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
listen: ":9000"
debounce: 100ms
metrics: false
site:
  headline: "YINI"
  nav_playground: true
fence_handlers:
  - pattern: "^yini$"
    language_id: "bash"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	on := true
	want := Default()
	want.Listen = ":9000"
	want.Debounce = 100 * time.Millisecond
	want.Metrics = false
	want.Site = SiteOverrides{Headline: "YINI", Playground: &on}
	want.FenceHandlers = []FenceHandler{{Pattern: "^yini$", LanguageID: "bash"}}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
	if _, err := Load(writeFile(t, "listen: [")); err == nil {
		t.Error("Load of malformed YAML succeeded")
	}
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || cfg.Listen != Default().Listen {
		t.Errorf("LoadOptional = %+v, %v; want defaults", cfg, err)
	}
	if cfg, err := Load(""); err != nil || len(cfg.FenceHandlers) == 0 {
		t.Errorf("Load(\"\") = %+v, %v; want defaults", cfg, err)
	}
}
