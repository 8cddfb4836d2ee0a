package yini

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `^ App
name = "Demo"
version = "1.0.0"
features = ["search", "dark-mode"] # comments allowed

^ Database
host = "localhost"
port = 5432
auth = { user: "admin", pass: "secret" }
`

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := marshalPlain(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestParseSample(t *testing.T) {
	v, err := Parse(sample, Options{FailLevel: FailErrors, Quiet: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := `{"App":{"name":"Demo","version":"1.0.0","features":["search","dark-mode"]},` +
		`"Database":{"host":"localhost","port":5432,"auth":{"user":"admin","pass":"secret"}}}`
	if diff := cmp.Diff(want, mustJSON(t, v)); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestParseValues(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`a = 'raw\n'`, `{"a":"raw\\n"}`},
		{`a = C"tab\there"`, `{"a":"tab\there"}`},
		{`a = -12`, `{"a":-12}`},
		{`a = 0x1F`, `{"a":31}`},
		{`a = 0b101`, `{"a":5}`},
		{`a = 1_000`, `{"a":1000}`},
		{`a = 3.5e2`, `{"a":350}`},
		{`a = YES`, `{"a":true}`},
		{`a = off`, `{"a":false}`},
		{`a = Null`, `{"a":null}`},
		{`a =`, `{"a":null}`},
		{`a = []`, `{"a":[]}`},
		{`a = {}`, `{"a":{}}`},
		{"a = [1,\n  [2, 3],\n]", `{"a":[1,[2,3]]}`},
		{`a: "x", "y"`, `{"a":["x","y"]}`},
		{"a = \"\"\"one\ntwo\"\"\"", `{"a":"one\ntwo"}`},
		{"`my key` = 1", `{"my key":1}`},
		{"// line\n/* block\ncomment */\n; full line\na = 1", `{"a":1}`},
		{`a = "<b>"`, `{"a":"<b>"}`},
	}
	for _, c := range cases {
		v, err := Parse(c.src, Options{FailLevel: FailErrors, Quiet: true})
		if err != nil {
			t.Errorf("Parse(%q): %v", c.src, err)
			continue
		}
		if got := mustJSON(t, v); got != c.want {
			t.Errorf("Parse(%q) = %s, want %s", c.src, got, c.want)
		}
	}
}

func TestParseNestedSections(t *testing.T) {
	src := "^ A\nx = 1\n^^ B\ny = 2\n^^^ C\nz = 3\n^ D\nw = 4\n"
	v, err := Parse(src, Options{Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"A":{"x":1,"B":{"y":2,"C":{"z":3}}},"D":{"w":4}}`
	if got := mustJSON(t, v); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated backtick header", "^ `App\nname = 1\n", "unterminated section header"},
		{"missing header name", "^\nname = 1\n", "missing section name"},
		{"unterminated string", `a = "abc`, "unterminated string"},
		{"unterminated list", "a = [1, 2", "unterminated list"},
		{"unquoted value", "a = hello", `unquoted string value "hello"`},
		{"missing assign", "a 1", "expected '='"},
		{"content after end", "a = 1\n/END\nb = 2\n", "content after document terminator"},
		{"stray character", "a = 1 $", "unexpected character"},
	}
	for _, c := range cases {
		_, err := Parse(c.src, Options{FailLevel: FailErrors, Quiet: true})
		var perr *Error
		if !errors.As(err, &perr) {
			t.Errorf("%s: err = %v, want *Error", c.name, err)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: err = %q, want substring %q", c.name, err, c.want)
		}
	}
}

func TestFailLevels(t *testing.T) {
	// One warning (duplicate key, lenient) and one error (unquoted value).
	src := "a = 1\na = 2\nb = bad\n"
	cases := []struct {
		level   FailLevel
		wantErr bool
		issues  int
	}{
		{FailIgnoreErrors, false, 0},
		{FailErrors, true, 1},
		{FailWarningsAndErrors, true, 2},
	}
	for _, c := range cases {
		_, err := Parse(src, Options{FailLevel: c.level, Quiet: true})
		if (err != nil) != c.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", c.level, err, c.wantErr)
			continue
		}
		if err != nil {
			if n := len(err.(*Error).Issues); n != c.issues {
				t.Errorf("%s: %d fatal issues, want %d", c.level, n, c.issues)
			}
		}
	}
}

func TestIgnoreErrorsKeepsGoodMembers(t *testing.T) {
	v, err := Parse("a = 1\nb = bad\nc = 3\n", Options{FailLevel: FailIgnoreErrors, Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := mustJSON(t, v), `{"a":1,"c":3}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestStrictMode(t *testing.T) {
	cases := []string{
		"a = 1\na = 2\n",
		"a =\n",
		"a = [1, 2,]\n",
		"^ A\n^^^ C\n",
		"@weird\n",
	}
	for _, src := range cases {
		if _, err := Parse(src, Options{FailLevel: FailErrors, Quiet: true}); err != nil {
			t.Errorf("lenient Parse(%q): %v", src, err)
		}
		if _, err := Parse(src, Options{StrictMode: true, FailLevel: FailErrors, Quiet: true}); err == nil {
			t.Errorf("strict Parse(%q) succeeded, want error", src)
		}
	}
}

func TestThrowOnErrorStopsAtFirst(t *testing.T) {
	src := "a = bad\nb = worse\n"
	_, err := Parse(src, Options{FailLevel: FailErrors, Quiet: true})
	if n := len(err.(*Error).Issues); n != 2 {
		t.Errorf("collected %d issues, want 2", n)
	}
	_, err = Parse(src, Options{FailLevel: FailErrors, ThrowOnError: true, Quiet: true})
	if n := len(err.(*Error).Issues); n != 1 {
		t.Errorf("fail-fast reported %d issues, want 1", n)
	}
}

func TestDocTerminator(t *testing.T) {
	if _, err := Parse("a = 1\n", Options{RequireDocTerminator: TerminatorRequired, FailLevel: FailErrors, Quiet: true}); err == nil {
		t.Error("missing /END accepted with required terminator")
	}
	if _, err := Parse("a = 1\n/end\n", Options{RequireDocTerminator: TerminatorRequired, FailLevel: FailErrors, Quiet: true}); err != nil {
		t.Errorf("terminated document rejected: %v", err)
	}
	if _, err := Parse("a = 1\n", Options{RequireDocTerminator: TerminatorWarnIfMissing, FailLevel: FailWarningsAndErrors, Quiet: true}); err == nil {
		t.Error("missing /END not reported as warning")
	}
}

func TestMetadata(t *testing.T) {
	v, err := Parse(sample, Options{FailLevel: FailErrors, IncludeMetadata: true, IncludeDiagnostics: true, Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	doc, ok := v.(*Document)
	if !ok {
		t.Fatalf("got %T, want *Document", v)
	}
	m := doc.Meta
	if m.SectionCount != 2 || m.MemberCount != 6 {
		t.Errorf("counts = %d sections, %d members; want 2, 6", m.SectionCount, m.MemberCount)
	}
	if m.Mode != "lenient" || m.Options.RequireDocTerminator != TerminatorOptional {
		t.Errorf("mode/options = %q/%q", m.Mode, m.Options.RequireDocTerminator)
	}
	if m.Diagnostics == nil || len(m.Diagnostics.Errors) != 0 {
		t.Errorf("diagnostics = %+v, want empty lists", m.Diagnostics)
	}
	if len(m.Source.SHA256) != 64 {
		t.Errorf("sha256 = %q", m.Source.SHA256)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(mustJSON(t, doc)), &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["result"]; !ok {
		t.Error("document JSON has no result")
	}

	v, _ = Parse(sample, Options{IncludeMetadata: true, Quiet: true})
	if v.(*Document).Meta.Diagnostics != nil {
		t.Error("diagnostics present without IncludeDiagnostics")
	}
}

func TestParseFailLevel(t *testing.T) {
	for _, s := range []string{"", "auto", "ignore-errors", "errors", "warnings-and-errors"} {
		if _, err := ParseFailLevel(s); err != nil {
			t.Errorf("ParseFailLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseFailLevel("fatal"); err == nil {
		t.Error("ParseFailLevel accepted unknown level")
	}
}
