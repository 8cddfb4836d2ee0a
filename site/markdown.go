package site

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	homepage "github.com/yini-lang/yini-homepage"
)

// NewMarkdown returns the Markdown converter for site pages: GitHub
// flavoured, with heading anchors, normalized links, and fenced code
// highlighted by language.
func NewMarkdown(handlers []homepage.FenceHandler) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkNormalizer{}, 100)),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&fenceRenderer{handlers: handlers}, 100)),
		),
	)
}

// fenceRenderer renders fenced code blocks with highlight spans.
type fenceRenderer struct {
	handlers []homepage.FenceHandler
}

func (r *fenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.render)
}

func (r *fenceRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	fenced := n.(*ast.FencedCodeBlock)

	var body bytes.Buffer
	lines := fenced.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		body.Write(line.Value(source))
	}
	info := string(fenced.Language(source))
	lang := homepage.DetectFenceLanguage(r.handlers, info, body.String())

	w.WriteString(`<pre class="code"`)
	if info != "" {
		w.WriteString(` data-info="`)
		w.WriteString(html.EscapeString(info))
		w.WriteString(`"`)
	}
	w.WriteString("><code>")
	if lang != "" {
		w.WriteString(homepage.HTML(body.String(), homepage.Highlight(lang, body.String())))
	} else {
		w.WriteString(html.EscapeString(body.String()))
	}
	w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}
