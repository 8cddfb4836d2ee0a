package homepage

import (
	"github.com/yini-lang/yini-homepage/yini"
)

// Parser is the contract the playground evaluates against.  With
// IncludeMetadata set, implementations return a value satisfying
// MetaResult; otherwise the parsed data itself.
type Parser interface {
	Parse(src string, opts ParseOptions) (any, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(src string, opts ParseOptions) (any, error)

// Parse calls f.
func (f ParserFunc) Parse(src string, opts ParseOptions) (any, error) { return f(src, opts) }

// MetaResult is the wrapper a Parser returns when metadata is requested.
type MetaResult interface {
	PrimaryData() any
	Metadata() any
}

// YINI is the bundled parser engine.
var YINI Parser = ParserFunc(parseYINI)

func parseYINI(src string, opts ParseOptions) (any, error) {
	v, err := yini.Parse(src, yini.Options{
		StrictMode:           opts.StrictMode,
		FailLevel:            yini.FailLevel(opts.FailLevel),
		IncludeMetadata:      opts.IncludeMetadata,
		IncludeDiagnostics:   opts.IncludeDiagnostics,
		RequireDocTerminator: yini.DocTerminator(opts.RequireDocTerminator),
		ThrowOnError:         opts.ThrowOnError,
		Quiet:                opts.Quiet,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
