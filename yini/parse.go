// Package yini parses documents in the YINI configuration format.
//
// A document is a sequence of members ("key = value") grouped under
// section headers ("^ Name", "^^ Child", ...).  Values are strings,
// numbers, booleans, null, lists ("[a, b]") and inline objects
// ("{ k: v }").  Parse returns the document as a tree of *Object, []any and
// scalar values, optionally wrapped together with metadata.
package yini

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Version is reported in document metadata.
const Version = "1.0.0"

// Document is returned by Parse when Options.IncludeMetadata is set.
type Document struct {
	Result *Object `json:"result"`
	Meta   *Meta   `json:"meta"`
}

// PrimaryData returns the parsed document.
func (d *Document) PrimaryData() any { return d.Result }

// Metadata returns the metadata record.
func (d *Document) Metadata() any { return d.Meta }

// Meta describes a parse run.
type Meta struct {
	ParserVersion    string       `json:"parserVersion"`
	Mode             string       `json:"mode"`
	TotalErrors      int          `json:"totalErrors"`
	TotalWarnings    int          `json:"totalWarnings"`
	SectionCount     int          `json:"sectionCount"`
	MemberCount      int          `json:"memberCount"`
	HasDocTerminator bool         `json:"hasDocTerminator"`
	Source           SourceInfo   `json:"source"`
	Options          MetaOptions  `json:"options"`
	Diagnostics      *Diagnostics `json:"diagnostics,omitempty"`
}

// SourceInfo identifies the parsed input.
type SourceInfo struct {
	LineCount int    `json:"lineCount"`
	ByteSize  int    `json:"byteSize"`
	SHA256    string `json:"sha256"`
}

// MetaOptions echoes the effective options.
type MetaOptions struct {
	StrictMode           bool          `json:"strictMode"`
	FailLevel            FailLevel     `json:"failLevel"`
	RequireDocTerminator DocTerminator `json:"requireDocTerminator"`
}

// Diagnostics lists every issue found, fatal or not.
type Diagnostics struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Parse parses src.  Without IncludeMetadata the result is the root
// *Object; with it, a *Document.  Issues that are fatal under the
// effective fail level make Parse return a *Error.
func Parse(src string, opts Options) (any, error) {
	p := &parser{lx: newLexer(src), opts: opts, root: NewObject()}
	p.stack = []*Object{p.root}
	p.advance()
	p.document()
	if p.abort != nil {
		return nil, p.abort
	}

	switch opts.RequireDocTerminator {
	case TerminatorWarnIfMissing:
		if !p.terminated {
			p.report(SeverityWarning, p.tok.line, "missing document terminator '/END'")
		}
	case TerminatorRequired:
		if !p.terminated {
			p.report(SeverityError, p.tok.line, "missing document terminator '/END'")
		}
	}
	if p.abort != nil {
		return nil, p.abort
	}

	if fatal := p.fatalIssues(); len(fatal) > 0 {
		return nil, &Error{Issues: fatal}
	}
	if !opts.IncludeMetadata {
		return p.root, nil
	}
	return &Document{Result: p.root, Meta: p.meta(src)}, nil
}

type parser struct {
	lx   *lexer
	tok  token
	opts Options

	root  *Object
	stack []*Object // stack[0] is root; stack[n] is the open level-n section

	issues     []Issue
	abort      *Error
	terminated bool
	sections   int
	members    int
}

func (p *parser) advance() { p.tok = p.lx.next() }

// skipNewlines is used inside brackets, where line breaks are insignificant.
func (p *parser) skipNewlines() {
	for p.tok.kind == tokNewline {
		p.advance()
	}
}

// skipLine discards the rest of the current statement.
func (p *parser) skipLine() {
	for p.tok.kind != tokNewline && p.tok.kind != tokEOF {
		p.advance()
	}
}

func (p *parser) atLineEnd() bool {
	return p.tok.kind == tokNewline || p.tok.kind == tokEOF
}

func (p *parser) isFatal(sev Severity) bool {
	switch p.opts.failLevel() {
	case FailIgnoreErrors:
		return false
	case FailWarningsAndErrors:
		return true
	}
	return sev == SeverityError
}

func (p *parser) report(sev Severity, line int, format string, args ...any) {
	if p.abort != nil {
		return
	}
	is := Issue{Line: line, Severity: sev, Message: fmt.Sprintf(format, args...)}
	p.issues = append(p.issues, is)
	if !p.opts.Quiet {
		log := p.opts.logger()
		fields := []zap.Field{zap.Int("line", line), zap.String("message", is.Message)}
		if sev == SeverityError {
			log.Error("yini parse error", fields...)
		} else {
			log.Warn("yini parse warning", fields...)
		}
	}
	if p.opts.ThrowOnError && p.isFatal(sev) {
		p.abort = &Error{Issues: []Issue{is}}
	}
}

// strictly reports an error in strict mode and a warning otherwise.
func (p *parser) strictly(line int, format string, args ...any) {
	sev := SeverityWarning
	if p.opts.StrictMode {
		sev = SeverityError
	}
	p.report(sev, line, format, args...)
}

func (p *parser) fatalIssues() []Issue {
	var out []Issue
	for _, is := range p.issues {
		if p.isFatal(is.Severity) {
			out = append(out, is)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

func (p *parser) document() {
	for p.tok.kind != tokEOF && p.abort == nil {
		switch p.tok.kind {
		case tokNewline:
			p.advance()
		case tokSection:
			p.section()
		case tokIdent:
			p.member()
		case tokDirective:
			p.directive()
		case tokTerminator:
			p.terminated = true
			p.advance()
			p.afterTerminator()
			return
		case tokIllegal:
			p.report(SeverityError, p.tok.line, "%s", p.tok.text)
			p.advance()
			p.skipLine()
		default:
			p.report(SeverityError, p.tok.line, "unexpected %s at start of line", p.tok.kind)
			p.skipLine()
		}
	}
}

func (p *parser) afterTerminator() {
	for p.tok.kind != tokEOF {
		if p.tok.kind != tokNewline {
			p.report(SeverityError, p.tok.line, "content after document terminator '/END'")
			return
		}
		p.advance()
	}
}

func (p *parser) directive() {
	name := strings.ToLower(strings.Fields(p.tok.text)[0])
	if name != "@yini" {
		p.strictly(p.tok.line, "unknown directive %q", name)
	}
	p.advance()
}

func (p *parser) section() {
	t := p.tok
	depth := len(p.stack) - 1
	level := t.level
	if level > depth+1 {
		p.strictly(t.line, "section %q jumps from level %d to level %d", t.text, depth, level)
		level = depth + 1
	}
	p.stack = p.stack[:level]
	parent := p.stack[level-1]
	if parent.Has(t.text) {
		p.strictly(t.line, "duplicate section name %q", t.text)
	}
	obj := NewObject()
	parent.Set(t.text, obj)
	p.stack = append(p.stack, obj)
	p.sections++

	p.advance()
	if !p.atLineEnd() {
		p.report(SeverityError, p.tok.line, "unexpected %s after section header %q", p.tok.kind, t.text)
		p.skipLine()
	}
}

func (p *parser) member() {
	key := p.tok
	p.advance()

	var v any
	switch p.tok.kind {
	case tokAssign:
		p.advance()
		if p.atLineEnd() {
			if p.opts.StrictMode {
				p.report(SeverityError, key.line, "missing value for key %q", key.text)
				return
			}
			break // lenient: empty value is null
		}
		var ok bool
		if v, ok = p.value(); !ok {
			p.skipLine()
			return
		}
	case tokColon:
		p.advance()
		list, ok := p.colonList()
		if !ok {
			p.skipLine()
			return
		}
		v = list
	default:
		p.report(SeverityError, key.line, "expected '=' after key %q, found %s", key.text, p.tok.kind)
		p.skipLine()
		return
	}

	if !p.atLineEnd() {
		if p.tok.kind == tokIllegal {
			p.report(SeverityError, p.tok.line, "%s", p.tok.text)
		} else {
			p.report(SeverityError, p.tok.line, "unexpected %s after value of %q", p.tok.kind, key.text)
		}
		p.skipLine()
		return
	}

	target := p.stack[len(p.stack)-1]
	if target.Has(key.text) {
		p.strictly(key.line, "duplicate key %q", key.text)
	}
	target.Set(key.text, v)
	p.members++
}

// colonList parses the "key: a, b, c" list form, which ends at the line end.
func (p *parser) colonList() ([]any, bool) {
	list := []any{}
	if p.atLineEnd() {
		return list, true
	}
	for {
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		list = append(list, v)
		if p.tok.kind != tokComma {
			return list, true
		}
		p.advance()
		if p.atLineEnd() {
			p.strictly(p.tok.line, "trailing comma in list")
			return list, true
		}
	}
}

func (p *parser) value() (any, bool) {
	t := p.tok
	switch t.kind {
	case tokString:
		p.advance()
		return t.text, true
	case tokNumber:
		p.advance()
		n, err := parseNumber(t.text)
		if err != nil {
			p.report(SeverityError, t.line, "invalid number %q", t.text)
			return nil, false
		}
		return n, true
	case tokIdent:
		p.advance()
		switch strings.ToLower(t.text) {
		case "true", "yes", "on":
			return true, true
		case "false", "no", "off":
			return false, true
		case "null":
			return nil, true
		}
		p.report(SeverityError, t.line, "unquoted string value %q", t.text)
		return nil, false
	case tokLBracket:
		return p.list()
	case tokLBrace:
		return p.object()
	case tokIllegal:
		p.report(SeverityError, t.line, "%s", t.text)
		p.advance()
		return nil, false
	}
	p.report(SeverityError, t.line, "expected a value, found %s", t.kind)
	return nil, false
}

func (p *parser) list() (any, bool) {
	open := p.tok.line
	p.advance()
	list := []any{}
	p.skipNewlines()
	if p.tok.kind == tokRBracket {
		p.advance()
		return list, true
	}
	for {
		if p.tok.kind == tokEOF {
			p.report(SeverityError, open, "unterminated list")
			return nil, false
		}
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		list = append(list, v)
		p.skipNewlines()
		switch p.tok.kind {
		case tokComma:
			p.advance()
			p.skipNewlines()
			if p.tok.kind == tokRBracket {
				p.strictly(p.tok.line, "trailing comma in list")
				p.advance()
				return list, true
			}
		case tokRBracket:
			p.advance()
			return list, true
		case tokEOF:
			p.report(SeverityError, open, "unterminated list")
			return nil, false
		default:
			p.report(SeverityError, p.tok.line, "expected ',' or ']' in list, found %s", p.tok.kind)
			return nil, false
		}
	}
}

func (p *parser) object() (any, bool) {
	open := p.tok.line
	p.advance()
	obj := NewObject()
	p.skipNewlines()
	if p.tok.kind == tokRBrace {
		p.advance()
		return obj, true
	}
	for {
		var key string
		switch p.tok.kind {
		case tokIdent, tokString:
			key = p.tok.text
		case tokEOF:
			p.report(SeverityError, open, "unterminated object")
			return nil, false
		default:
			p.report(SeverityError, p.tok.line, "expected object key, found %s", p.tok.kind)
			return nil, false
		}
		keyLine := p.tok.line
		p.advance()
		if p.tok.kind != tokColon && p.tok.kind != tokAssign {
			p.report(SeverityError, p.tok.line, "expected ':' after object key %q", key)
			return nil, false
		}
		p.advance()
		p.skipNewlines()
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		if obj.Has(key) {
			p.strictly(keyLine, "duplicate key %q in object", key)
		}
		obj.Set(key, v)
		p.skipNewlines()
		switch p.tok.kind {
		case tokComma:
			p.advance()
			p.skipNewlines()
			if p.tok.kind == tokRBrace {
				p.strictly(p.tok.line, "trailing comma in object")
				p.advance()
				return obj, true
			}
		case tokRBrace:
			p.advance()
			return obj, true
		case tokEOF:
			p.report(SeverityError, open, "unterminated object")
			return nil, false
		default:
			p.report(SeverityError, p.tok.line, "expected ',' or '}' in object, found %s", p.tok.kind)
			return nil, false
		}
	}
}

func parseNumber(s string) (any, error) {
	body := strings.TrimLeft(s, "+-")
	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		return strconv.ParseInt(s, 0, 64)
	}
	clean := strings.ReplaceAll(s, "_", "")
	if strings.ContainsAny(lower, ".e") {
		return strconv.ParseFloat(clean, 64)
	}
	return strconv.ParseInt(clean, 10, 64)
}

func (p *parser) meta(src string) *Meta {
	sum := sha256.Sum256([]byte(src))
	m := &Meta{
		ParserVersion:    Version,
		Mode:             p.opts.mode(),
		SectionCount:     p.sections,
		MemberCount:      p.members,
		HasDocTerminator: p.terminated,
		Source: SourceInfo{
			LineCount: strings.Count(src, "\n") + 1,
			ByteSize:  len(src),
			SHA256:    hex.EncodeToString(sum[:]),
		},
		Options: MetaOptions{
			StrictMode:           p.opts.StrictMode,
			FailLevel:            p.opts.failLevel(),
			RequireDocTerminator: p.opts.RequireDocTerminator,
		},
	}
	diag := &Diagnostics{Errors: []Issue{}, Warnings: []Issue{}}
	for _, is := range p.issues {
		if is.Severity == SeverityError {
			m.TotalErrors++
			diag.Errors = append(diag.Errors, is)
		} else {
			m.TotalWarnings++
			diag.Warnings = append(diag.Warnings, is)
		}
	}
	if p.opts.IncludeDiagnostics {
		m.Diagnostics = diag
	}
	if m.Options.RequireDocTerminator == "" {
		m.Options.RequireDocTerminator = TerminatorOptional
	}
	return m
}
