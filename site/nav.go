package site

import "strings"

// Theme is the colour scheme of a page.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme returns the theme named s, ignoring case and surrounding
// quotes as sent in client hints.  ok is false for anything else.
func ParseTheme(s string) (t Theme, ok bool) {
	switch Theme(strings.ToLower(strings.Trim(strings.TrimSpace(s), `"`))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// InitialTheme picks the theme for a visitor: the saved preference when
// there is one, else the browser's colour-scheme hint, else light.
func InitialTheme(saved, hint string) Theme {
	if t, ok := ParseTheme(saved); ok {
		return t
	}
	if t, ok := ParseTheme(hint); ok && t == Dark {
		return Dark
	}
	return Light
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// ToggleLabel is the caption of the theme button: the theme it switches to.
func (t Theme) ToggleLabel() string {
	if t == Dark {
		return "Light"
	}
	return "Dark"
}

// NavLink is one entry of the navigation header.
type NavLink struct {
	Label string
	Href  string
	// External links open in a new tab.
	External bool
}

// NavLinks returns the header entries in display order.
func (c *Config) NavLinks() []NavLink {
	links := []NavLink{
		{Label: "Home", Href: c.Hero.Home},
		{Label: "Get Started", Href: c.Hero.GetStarted},
	}
	if c.NavPlayground {
		links = append(links, NavLink{Label: "Playground", Href: c.Hero.Playground})
	}
	return append(links,
		NavLink{Label: "Quick Tutorial", Href: c.Hero.Tutorial},
		NavLink{Label: "FAQ", Href: c.Hero.FAQ},
		NavLink{Label: "Spec ↗", Href: c.SpecPDF, External: true},
	)
}

// Header is the data of the navigation header template.
type Header struct {
	Links       []NavLink
	Theme       Theme
	ToggleLabel string
	// Current is the path of the page being rendered.
	Current string
}

// Header returns the header for a page at path rendered in theme t.
func (c *Config) Header(path string, t Theme) Header {
	return Header{Links: c.NavLinks(), Theme: t, ToggleLabel: t.ToggleLabel(), Current: path}
}
