// Package site renders the YINI homepage: Markdown pages listed in a TOML
// content index, the navigation header, and the playground page.  The same
// Site serves live requests and static builds.
package site

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yuin/goldmark"

	homepage "github.com/yini-lang/yini-homepage"
)

// ErrNotFound is returned for paths that name no page.
var ErrNotFound = errors.New("page not found")

// Page kinds.
const (
	KindMarkdown   = "markdown"
	KindPlayground = "playground"
)

// PublicDir is the content subdirectory served at the site root.
const PublicDir = "public"

//go:embed templates/*.html
var templateFS embed.FS

// indexConf is the content index, index.toml.
type indexConf struct {
	Page []pageMeta
}

// pageMeta describes one page of the content index.
type pageMeta struct {
	// Name is the path segment; empty for the home page.
	Name   string
	Title  string
	Source string
	Kind   string
	// Hero shows the headline block above the body.
	Hero bool
}

// Page is a page ready to render.
type Page struct {
	pageMeta
	Path string
	Body template.HTML
}

// Site is an immutable snapshot of the content directory.
type Site struct {
	Config *Config
	Pages  []*Page

	dir    string
	tmpl   *template.Template
	byPath map[string]*Page
}

// Load reads dir/index.toml and renders every Markdown page it lists.
func Load(dir string, cfg *Config, handlers []homepage.FenceHandler) (*Site, error) {
	var idx indexConf
	if _, err := toml.DecodeFile(filepath.Join(dir, "index.toml"), &idx); err != nil {
		return nil, fmt.Errorf("content index: %w", err)
	}
	tmpl, err := template.New("site").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	md := NewMarkdown(handlers)
	s := &Site{Config: cfg, dir: dir, tmpl: tmpl, byPath: make(map[string]*Page)}
	for _, pm := range idx.Page {
		if pm.Kind == "" {
			pm.Kind = KindMarkdown
		}
		p := &Page{pageMeta: pm, Path: "/" + pm.Name}
		if _, dup := s.byPath[p.Path]; dup {
			return nil, fmt.Errorf("content index: duplicate page %q", p.Path)
		}
		switch pm.Kind {
		case KindMarkdown:
			body, err := renderMarkdown(md, filepath.Join(dir, pm.Source))
			if err != nil {
				return nil, err
			}
			p.Body = body
		case KindPlayground:
		default:
			return nil, fmt.Errorf("content index: page %q: unknown kind %q", p.Path, pm.Kind)
		}
		s.Pages = append(s.Pages, p)
		s.byPath[p.Path] = p
	}
	return s, nil
}

func renderMarkdown(md goldmark.Markdown, path string) (template.HTML, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	return template.HTML(buf.String()), nil
}

// Dir returns the content directory.
func (s *Site) Dir() string { return s.dir }

// PublicDir returns the directory of files served at the site root.
func (s *Site) PublicDir() string { return filepath.Join(s.dir, PublicDir) }

// Page returns the page at path.  A trailing slash is ignored.
func (s *Site) Page(path string) (*Page, error) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	p, ok := s.byPath[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return p, nil
}

// Playground is the data of the playground template.
type Playground struct {
	Code       string
	Options    homepage.Options
	Mode       homepage.OutputMode
	Result     homepage.Result
	OutputHTML template.HTML
	FailLevels []homepage.FailLevel
	Modes      []homepage.OutputMode
	// MetaMode is the mode offered only while metadata is included.
	MetaMode homepage.OutputMode
}

// NewPlayground prepares the playground page for st, already evaluated
// to res.
func NewPlayground(st homepage.State, res homepage.Result) *Playground {
	return &Playground{
		Code:       st.Text,
		Options:    st.Options,
		Mode:       st.Mode,
		Result:     res,
		OutputHTML: template.HTML(homepage.HTML(res.Output, homepage.HighlightOutput(res.Output))),
		FailLevels: []homepage.FailLevel{homepage.FailIgnoreErrors, homepage.FailErrors, homepage.FailWarningsAndErrors},
		Modes:      []homepage.OutputMode{homepage.ModeJSON, homepage.ModePOJO, homepage.ModeMeta},
		MetaMode:   homepage.ModeMeta,
	}
}

type pageDot struct {
	Site       *Config
	Page       *Page
	Header     Header
	Playground *Playground
}

// Render writes page p in theme t.  pg is required for the playground page
// and ignored otherwise.
func (s *Site) Render(w io.Writer, p *Page, t Theme, pg *Playground) error {
	if p.Kind == KindPlayground && pg == nil {
		return fmt.Errorf("%s: playground page without playground state", p.Path)
	}
	return s.tmpl.ExecuteTemplate(w, "layout", &pageDot{
		Site:       s.Config,
		Page:       p,
		Header:     s.Config.Header(p.Path, t),
		Playground: pg,
	})
}

// Build writes every page as <path>/index.html under outDir, copies the
// public directory, and writes sitemap.txt with one absolute URL per page.
// The playground page shows the sample evaluated with default options.
func (s *Site) Build(outDir, baseURL string) error {
	var sitemap strings.Builder
	for _, p := range s.Pages {
		var pg *Playground
		if p.Kind == KindPlayground {
			st := homepage.NewStore(homepage.DefaultSnippet).Snapshot()
			pg = NewPlayground(st, homepage.Evaluate(homepage.YINI, st))
		}
		dir := filepath.Join(outDir, filepath.FromSlash(p.Path))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := s.Render(&buf, p, Light, pg); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "index.html"), buf.Bytes(), 0o644); err != nil {
			return err
		}
		sitemap.WriteString(strings.TrimSuffix(baseURL, "/") + p.Path + "\n")
	}
	if err := copyTree(s.PublicDir(), outDir); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "sitemap.txt"), []byte(sitemap.String()), 0o644)
}

// copyTree copies the regular files under src into dst.  A missing src is
// not an error.
func copyTree(src, dst string) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
