package site

import "github.com/yini-lang/yini-homepage/config"

// Config is the site-wide record of texts and links shared by templates.
type Config struct {
	Author        string
	Headline      string
	Tagline       string
	ElevatorPitch string

	// Hero links on the home page.
	Hero Hero

	IntroURL string
	AboutURL string

	// SpecPDF is the path of the latest specification PDF.
	SpecPDF          string
	SpecOnGitHub     string
	NpmCLI           string
	NpmParser        string
	GitHubOrg        string
	GitHubCLI        string
	GitHubParser     string
	GitHubDemoApps   string
	GitHubSyntax     string
	GitHubHomepage   string
	GitHubSpecSource string

	// NavPlayground shows the playground link in the header.
	NavPlayground bool
}

// Hero holds the home page call-to-action links.
type Hero struct {
	Home       string
	GetStarted string
	Playground string
	Tutorial   string
	FAQ        string
	Spec       string
}

// LatestSpecPDF is the path of the specification PDF linked from the header.
const LatestSpecPDF = "/specs/YINI-Specification-1.0.0-RC.3.pdf"

// DefaultConfig returns the built-in site record.
func DefaultConfig() *Config {
	return &Config{
		Author:        "Marko K. Seppänen",
		Headline:      "YINI: Simple, Structured Config",
		Tagline:       "INI-familiar syntax with nesting, comments, and clear, simple rules.",
		ElevatorPitch: "The YINI config format is a modern, structured, and human-friendly configuration language designed to bridge the gap between the simplicity of INI and the expressiveness of YAML, and even more.",
		Hero: Hero{
			Home:       "/",
			GetStarted: "/get-started",
			Playground: "/playground",
			Tutorial:   "/yini-tutorial",
			FAQ:        "/yini-faq",
			Spec:       "/specification",
		},
		IntroURL:         "/intro-yini-config-format",
		AboutURL:         "/about-yini",
		SpecPDF:          LatestSpecPDF,
		SpecOnGitHub:     "https://github.com/YINI-lang/YINI-spec/blob/production/YINI-Specification.md",
		NpmCLI:           "https://www.npmjs.com/package/yini-cli",
		NpmParser:        "https://www.npmjs.com/package/yini-parser",
		GitHubOrg:        "https://github.com/YINI-lang",
		GitHubCLI:        "https://github.com/YINI-lang/yini-cli",
		GitHubParser:     "https://github.com/YINI-lang/yini-parser-typescript",
		GitHubDemoApps:   "https://github.com/YINI-lang/yini-demo-apps",
		GitHubSyntax:     "https://github.com/YINI-lang/syntax-highlighting",
		GitHubHomepage:   "https://github.com/YINI-lang/yini-homepage",
		GitHubSpecSource: "https://github.com/YINI-lang/YINI-spec",
	}
}

// Apply overlays the non-empty fields of o.
func (c *Config) Apply(o config.SiteOverrides) {
	if o.Headline != "" {
		c.Headline = o.Headline
	}
	if o.Tagline != "" {
		c.Tagline = o.Tagline
	}
	if o.Author != "" {
		c.Author = o.Author
	}
	if o.Playground != nil {
		c.NavPlayground = *o.Playground
	}
}
