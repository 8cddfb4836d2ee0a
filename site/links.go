package site

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	specLinkRE      = regexp.MustCompile(`(?i)^[./]*YINI-Specification\.md(?:#(.+))?$`)
	rationaleLinkRE = regexp.MustCompile(`(?i)^[./]*RATIONALE\.md(?:#.*)?$`)
)

// normalizeLink maps a Markdown link destination to its site address.
// Links into the specification source go to the specification page.  For
// links to the rationale document, which the site does not publish, plain
// is true and the link should be rendered as its text.
func normalizeLink(dest string) (out string, plain bool) {
	if m := specLinkRE.FindStringSubmatch(dest); m != nil {
		if m[1] != "" {
			return "specification#" + m[1], false
		}
		return "specification", false
	}
	if rationaleLinkRE.MatchString(dest) {
		return "", true
	}
	return dest, false
}

// linkNormalizer rewrites links with normalizeLink.  Reference links are
// resolved by the parser before transformers run, so they are covered too.
type linkNormalizer struct{}

func (linkNormalizer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	var plain []*ast.Link
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest, drop := normalizeLink(string(link.Destination))
		if drop {
			plain = append(plain, link)
		} else {
			link.Destination = []byte(dest)
		}
		return ast.WalkSkipChildren, nil
	})

	for _, link := range plain {
		label := linkText(link, src)
		if label == "" {
			label = "RATIONALE.md"
		}
		parent := link.Parent()
		parent.ReplaceChild(parent, link, ast.NewString([]byte(label)))
	}
}

// linkText joins the literal text children of link.
func linkText(link *ast.Link, src []byte) string {
	var b []byte
	for c := link.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b = append(b, c.Segment.Value(src)...)
		case *ast.String:
			b = append(b, c.Value...)
		}
	}
	return string(b)
}
