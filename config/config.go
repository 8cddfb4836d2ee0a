// Package config handles loading and parsing yini-homepage's YAML config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of the config file passed with -config.
type Config struct {
	// Listen is the HTTP listen address for serve.
	Listen string `yaml:"listen"`

	// ContentDir holds index.toml, the Markdown pages and static assets.
	ContentDir string `yaml:"content_dir"`

	// DataFile is the bbolt file holding persisted playground drafts.
	DataFile string `yaml:"data_file"`

	// Debounce overrides the playground's automatic evaluation quiet
	// period.  Zero keeps the built-in default.
	Debounce time.Duration `yaml:"debounce"`

	// BaseURL prefixes page paths in sitemap.txt.
	BaseURL string `yaml:"base_url"`

	// Metrics enables the /metrics endpoint.
	Metrics bool `yaml:"metrics"`

	// Site overrides fields of the built-in site configuration.
	Site SiteOverrides `yaml:"site"`

	// FenceHandlers maps Markdown code-fence info strings to grammar
	// language IDs.  Evaluated in order; first match wins.  Patterns are Go
	// regular expressions.
	FenceHandlers []FenceHandler `yaml:"fence_handlers"`
}

// SiteOverrides replaces site configuration fields that are non-empty.
type SiteOverrides struct {
	Headline string `yaml:"headline"`
	Tagline  string `yaml:"tagline"`
	Author   string `yaml:"author"`
	// Playground shows the playground link in the navigation header.
	Playground *bool `yaml:"nav_playground"`
}

// FenceHandler associates an info-string regex pattern with a grammar
// language ID.
type FenceHandler struct {
	Pattern    string `yaml:"pattern"`
	LanguageID string `yaml:"language_id"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:     "localhost:8080",
		ContentDir: "content",
		DataFile:   "yini-homepage.db",
		Metrics:    true,
		FenceHandlers: []FenceHandler{
			{Pattern: `^(go|golang)$`, LanguageID: "go"},
			{Pattern: `^(sh|bash|shell|console|zsh)$`, LanguageID: "bash"},
			{Pattern: `^(js|javascript|mjs|cjs|ts|typescript)$`, LanguageID: "javascript"},
			{Pattern: `^(json|jsonc)$`, LanguageID: "json"},
			{Pattern: `^(py|python)$`, LanguageID: "python"},
			{Pattern: `^(rs|rust)$`, LanguageID: "rust"},
			{Pattern: `^(c|h)$`, LanguageID: "c"},
			{Pattern: `^(cpp|c\+\+|cc|hpp)$`, LanguageID: "cpp"},
			{Pattern: `^java$`, LanguageID: "java"},
			{Pattern: `^(scala|sc)$`, LanguageID: "scala"},
		},
	}
}

// Load reads path and returns the parsed Config layered over Default.  An
// empty path yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, treating a missing file as empty.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}
