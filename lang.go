package homepage

import (
	_ "embed"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_js "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_scala "github.com/tree-sitter/tree-sitter-scala/bindings/go"
	"go.uber.org/zap"
)

//go:embed queries/go.scm
var goHighlights string

//go:embed queries/c.scm
var cHighlights string

//go:embed queries/python.scm
var pythonHighlights string

//go:embed queries/rust.scm
var rustHighlights string

//go:embed queries/javascript.scm
var jsHighlights string

//go:embed queries/json.scm
var jsonHighlights string

//go:embed queries/bash.scm
var bashHighlights string

//go:embed queries/java.scm
var javaHighlights string

//go:embed queries/scala.scm
var scalaHighlights string

// jsonLangID names playground output.  It reuses the javascript grammar.
const jsonLangID = "json"

// Language bundles a compiled tree-sitter Language pointer and a pre-compiled
// Query.  Both are safe to share across goroutines (read-only after init).
type Language struct {
	Name  string
	lang  *tree_sitter.Language
	query *tree_sitter.Query // nil if query compilation failed
}

var (
	langOnce   sync.Once
	langByName map[string]*Language
)

func init() {
	initLanguages()
}

// initLanguages compiles all language grammars and their highlight queries.
// Grammars whose query fails to parse are registered without a query, so
// their code blocks render unhighlighted.
func initLanguages() {
	langOnce.Do(func() {
		js := tree_sitter.NewLanguage(tree_sitter_js.Language())
		c := tree_sitter.NewLanguage(tree_sitter_c.Language())
		specs := []struct {
			id    string // matches language_id values in fence handlers
			lang  *tree_sitter.Language
			query string
		}{
			{"go", tree_sitter.NewLanguage(tree_sitter_go.Language()), goHighlights},
			{"c", c, cHighlights},
			{"cpp", c, cHighlights}, // C grammar until tree-sitter-cpp is added
			{"python", tree_sitter.NewLanguage(tree_sitter_python.Language()), pythonHighlights},
			{"rust", tree_sitter.NewLanguage(tree_sitter_rust.Language()), rustHighlights},
			{"javascript", js, jsHighlights},
			{jsonLangID, js, jsonHighlights},
			{"bash", tree_sitter.NewLanguage(tree_sitter_bash.Language()), bashHighlights},
			{"java", tree_sitter.NewLanguage(tree_sitter_java.Language()), javaHighlights},
			{"scala", tree_sitter.NewLanguage(tree_sitter_scala.Language()), scalaHighlights},
		}

		langByName = make(map[string]*Language, len(specs))
		for _, s := range specs {
			l := &Language{Name: s.id, lang: s.lang}
			q, qerr := tree_sitter.NewQuery(s.lang, s.query)
			if qerr != nil {
				zap.L().Warn("highlight query does not compile",
					zap.String("lang", s.id),
					zap.Uint("offset", uint(qerr.Offset)),
					zap.String("message", qerr.Message))
			} else {
				// q lives for the process lifetime.
				l.query = q
			}
			langByName[s.id] = l
		}
	})
}

// langByID returns the Language for the given language_id, or nil if unknown.
func langByID(id string) *Language {
	return langByName[id]
}

// Languages lists the registered language ids in sorted order.
func Languages() []string {
	ids := make([]string, 0, len(langByName))
	for id := range langByName {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
