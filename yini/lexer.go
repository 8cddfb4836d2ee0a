package yini

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokSection
	tokIdent
	tokString
	tokNumber
	tokAssign
	tokColon
	tokComma
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokTerminator
	tokDirective
	tokIllegal
)

var tokenNames = [...]string{
	tokEOF:        "end of input",
	tokNewline:    "newline",
	tokSection:    "section header",
	tokIdent:      "identifier",
	tokString:     "string",
	tokNumber:     "number",
	tokAssign:     "'='",
	tokColon:      "':'",
	tokComma:      "','",
	tokLBracket:   "'['",
	tokRBracket:   "']'",
	tokLBrace:     "'{'",
	tokRBrace:     "'}'",
	tokTerminator: "'/END'",
	tokDirective:  "directive",
	tokIllegal:    "invalid token",
}

func (k tokenKind) String() string { return tokenNames[k] }

// token is one lexical unit.  For tokIllegal, text holds the message.
type token struct {
	kind  tokenKind
	text  string
	level int // section nesting level, tokSection only
	line  int
}

// lexer splits a YINI document into tokens.  Comments are dropped.  A
// newline token is emitted for every line break outside block comments and
// triple-quoted strings; the parser decides where they matter.
type lexer struct {
	src         string
	pos         int
	line        int
	atLineStart bool
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, atLineStart: true}
}

func (lx *lexer) peekByte(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

func (lx *lexer) skipToEOL() {
	for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
		lx.pos++
	}
}

func (lx *lexer) illegal(line int, format string, args ...any) token {
	lx.atLineStart = false
	return token{kind: tokIllegal, text: fmt.Sprintf(format, args...), line: line}
}

func (lx *lexer) next() token {
	for {
		for lx.pos < len(lx.src) {
			c := lx.src[lx.pos]
			if c != ' ' && c != '\t' && c != '\r' && c != '\f' && c != '\v' {
				break
			}
			lx.pos++
		}
		if lx.pos >= len(lx.src) {
			return token{kind: tokEOF, line: lx.line}
		}
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			t := token{kind: tokNewline, line: lx.line}
			lx.pos++
			lx.line++
			lx.atLineStart = true
			return t
		case c == '/' && lx.peekByte(1) == '/':
			lx.skipToEOL()
			continue
		case c == '/' && lx.peekByte(1) == '*':
			start := lx.line
			end := strings.Index(lx.src[lx.pos+2:], "*/")
			if end < 0 {
				lx.line += strings.Count(lx.src[lx.pos:], "\n")
				lx.pos = len(lx.src)
				return lx.illegal(start, "unterminated block comment")
			}
			body := lx.src[lx.pos : lx.pos+2+end+2]
			lx.line += strings.Count(body, "\n")
			lx.pos += len(body)
			continue
		case c == '#' && isCommentBoundary(lx.peekByte(1)):
			lx.skipToEOL()
			continue
		case c == ';' && lx.atLineStart:
			lx.skipToEOL()
			continue
		}

		atStart := lx.atLineStart
		lx.atLineStart = false
		line := lx.line

		switch {
		case atStart && (c == '^' || c == '~'):
			return lx.section(c)
		case atStart && c == '@':
			start := lx.pos
			lx.skipToEOL()
			return token{kind: tokDirective, text: strings.TrimSpace(lx.src[start:lx.pos]), line: line}
		case atStart && c == '/' && lx.isTerminator():
			lx.pos += len("/END")
			return token{kind: tokTerminator, line: line}
		case c == '=':
			lx.pos++
			return token{kind: tokAssign, line: line}
		case c == ':':
			lx.pos++
			return token{kind: tokColon, line: line}
		case c == ',':
			lx.pos++
			return token{kind: tokComma, line: line}
		case c == '[':
			lx.pos++
			return token{kind: tokLBracket, line: line}
		case c == ']':
			lx.pos++
			return token{kind: tokRBracket, line: line}
		case c == '{':
			lx.pos++
			return token{kind: tokLBrace, line: line}
		case c == '}':
			lx.pos++
			return token{kind: tokRBrace, line: line}
		case c == '"' || c == '\'':
			return lx.str(false)
		case (c == 'c' || c == 'C') && (lx.peekByte(1) == '"' || lx.peekByte(1) == '\''):
			lx.pos++
			return lx.str(true)
		case isDigit(c) || ((c == '-' || c == '+' || c == '.') && isDigit(lx.peekByte(1))):
			return lx.number()
		case c == '`':
			name, ok := lx.backticked()
			if !ok {
				return lx.illegal(line, "unterminated backticked name")
			}
			return token{kind: tokIdent, text: name, line: line}
		case isIdentStart(c):
			start := lx.pos
			for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
				lx.pos++
			}
			return token{kind: tokIdent, text: lx.src[start:lx.pos], line: line}
		}
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		lx.pos += size
		return lx.illegal(line, "unexpected character %q", r)
	}
}

// section lexes a header such as "^^ Name" or "~ `Long name`".
func (lx *lexer) section(marker byte) token {
	line := lx.line
	level := 0
	for lx.pos < len(lx.src) && lx.src[lx.pos] == marker {
		level++
		lx.pos++
	}
	for lx.pos < len(lx.src) && (lx.src[lx.pos] == ' ' || lx.src[lx.pos] == '\t') {
		lx.pos++
	}
	c := lx.peekByte(0)
	switch {
	case c == '`':
		name, ok := lx.backticked()
		if !ok {
			lx.skipToEOL()
			return lx.illegal(line, "unterminated section header: missing closing '`'")
		}
		if strings.TrimSpace(name) == "" {
			return lx.illegal(line, "empty section name")
		}
		return token{kind: tokSection, text: name, level: level, line: line}
	case isIdentStart(c):
		start := lx.pos
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
			lx.pos++
		}
		return token{kind: tokSection, text: lx.src[start:lx.pos], level: level, line: line}
	}
	lx.skipToEOL()
	return lx.illegal(line, "unterminated section header: missing section name")
}

// backticked reads a `name` that may not span lines.
func (lx *lexer) backticked() (string, bool) {
	lx.pos++ // opening backtick
	start := lx.pos
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case '`':
			name := lx.src[start:lx.pos]
			lx.pos++
			return name, true
		case '\n':
			return "", false
		}
		lx.pos++
	}
	return "", false
}

func (lx *lexer) isTerminator() bool {
	rest := lx.src[lx.pos:]
	if len(rest) < 4 || !strings.EqualFold(rest[:4], "/END") {
		return false
	}
	return len(rest) == 4 || !isIdentPart(rest[4])
}

// str lexes a quoted string.  Plain strings are raw; classic strings
// (C-prefixed) interpret backslash escapes.  Triple-quoted strings may span
// lines.
func (lx *lexer) str(classic bool) token {
	line := lx.line
	q := lx.src[lx.pos]
	triple := strings.Repeat(string(q), 3)
	if strings.HasPrefix(lx.src[lx.pos:], triple) {
		lx.pos += 3
		end := strings.Index(lx.src[lx.pos:], triple)
		if end < 0 {
			lx.line += strings.Count(lx.src[lx.pos:], "\n")
			lx.pos = len(lx.src)
			return lx.illegal(line, "unterminated triple-quoted string")
		}
		body := lx.src[lx.pos : lx.pos+end]
		lx.line += strings.Count(body, "\n")
		lx.pos += end + 3
		if classic {
			return lx.unescape(body, line)
		}
		return token{kind: tokString, text: body, line: line}
	}

	lx.pos++
	var sb strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			return lx.illegal(line, "unterminated string")
		case c == '\\' && classic && lx.pos+1 < len(lx.src):
			sb.WriteByte(c)
			sb.WriteByte(lx.src[lx.pos+1])
			lx.pos += 2
			continue
		case c == q:
			lx.pos++
			if classic {
				return lx.unescape(sb.String(), line)
			}
			return token{kind: tokString, text: sb.String(), line: line}
		}
		sb.WriteByte(c)
		lx.pos++
	}
	return lx.illegal(line, "unterminated string")
}

func (lx *lexer) unescape(body string, line int) token {
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '"', '\'':
			sb.WriteByte(body[i])
		case 'u':
			if i+4 >= len(body) {
				return lx.illegal(line, "truncated \\u escape")
			}
			n, err := strconv.ParseUint(body[i+1:i+5], 16, 32)
			if err != nil {
				return lx.illegal(line, "invalid \\u escape %q", body[i-1:i+5])
			}
			sb.WriteRune(rune(n))
			i += 4
		default:
			return lx.illegal(line, "unknown escape sequence \\%c", body[i])
		}
	}
	return token{kind: tokString, text: sb.String(), line: line}
}

func (lx *lexer) number() token {
	start := lx.pos
	line := lx.line
	for lx.pos < len(lx.src) && isNumberPart(lx.src[lx.pos]) {
		lx.pos++
	}
	return token{kind: tokNumber, text: lx.src[start:lx.pos], line: line}
}

func isCommentBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-' || c == '.'
}

func isNumberPart(c byte) bool {
	return isDigit(c) || c == '.' || c == '_' || c == '-' || c == '+' ||
		(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') ||
		c == 'x' || c == 'X' || c == 'o' || c == 'O'
}
