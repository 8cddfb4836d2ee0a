package homepage

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// memStorage is an in-memory Storage; setErr makes every Set fail.
type memStorage struct {
	mu     sync.Mutex
	m      map[string]string
	getErr error
	setErr error
}

func newMemStorage() *memStorage { return &memStorage{m: make(map[string]string)} }

func (s *memStorage) Get(k string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.m[k], nil
}

func (s *memStorage) Set(k, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.m[k] = v
	return nil
}

type failingQuery struct{}

func (failingQuery) Param(string) (string, bool, error) {
	return "", false, errors.New("no location")
}

type recordingClipboard struct{ got []string }

func (r *recordingClipboard) WriteText(s string) error {
	r.got = append(r.got, s)
	return nil
}

const wantSampleOutput = `{
  "App": {
    "name": "Demo",
    "version": "1.0.0",
    "features": [
      "search",
      "dark-mode"
    ]
  },
  "Database": {
    "host": "localhost",
    "port": 5432,
    "auth": {
      "user": "admin",
      "pass": "secret"
    }
  }
}`

func TestEvaluateDefaultSample(t *testing.T) {
	c := NewController(NewStore(DefaultSnippet), YINI)
	res := c.Evaluate()
	if res.State != ShowingResult || res.Error != "" {
		t.Fatalf("result = %+v, want success", res)
	}
	if diff := cmp.Diff(wantSampleOutput, res.Output); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if res.Label != "JSON" {
		t.Errorf("label = %q, want JSON", res.Label)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	texts := []string{DefaultSnippet, "^ `broken\n", "a = [1, 2\n", ""}
	for _, text := range texts {
		c := NewController(NewStore(text), YINI)
		first := c.Evaluate()
		second := c.Evaluate()
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("text %q: second evaluation differs:\n%s", text, diff)
		}
	}
}

func TestEvaluateMalformed(t *testing.T) {
	c := NewController(NewStore("^ `App\nname = \"Demo\"\n"), YINI)
	res := c.Evaluate()
	if res.State != ShowingError {
		t.Fatalf("state = %v, want error", res.State)
	}
	if res.Output != "" || res.Error == "" {
		t.Errorf("output = %q, error = %q; want only an error", res.Output, res.Error)
	}
	if !strings.Contains(res.Error, "unterminated section header") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestEvaluateExclusivePanes(t *testing.T) {
	cases := []struct {
		name   string
		parser Parser
		want   PaneState
		errMsg string
	}{
		{"value", ParserFunc(func(string, ParseOptions) (any, error) { return map[string]int{"a": 1}, nil }), ShowingResult, ""},
		{"error", ParserFunc(func(string, ParseOptions) (any, error) { return nil, errors.New("boom") }), ShowingError, "boom"},
		{"empty message", ParserFunc(func(string, ParseOptions) (any, error) { return nil, errors.New("") }), ShowingError, "*errors.errorString"},
		{"panic", ParserFunc(func(string, ParseOptions) (any, error) { panic("kaput") }), ShowingError, "kaput"},
		{"unencodable", ParserFunc(func(string, ParseOptions) (any, error) { return func() {}, nil }), ShowingError, ""},
	}
	for _, c := range cases {
		res := NewController(NewStore("x"), c.parser).Evaluate()
		if res.State != c.want {
			t.Errorf("%s: state = %v, want %v", c.name, res.State, c.want)
		}
		if (res.Output == "") == (res.Error == "") {
			t.Errorf("%s: output %q and error %q not exclusive", c.name, res.Output, res.Error)
		}
		if c.errMsg != "" && res.Error != c.errMsg {
			t.Errorf("%s: error = %q, want %q", c.name, res.Error, c.errMsg)
		}
	}
}

func TestForcedParseOptions(t *testing.T) {
	var got ParseOptions
	p := ParserFunc(func(_ string, o ParseOptions) (any, error) {
		got = o
		return nil, nil
	})
	s := NewStore("x")
	s.SetOptions(Options{StrictMode: true, FailLevel: FailWarningsAndErrors, IncludeMetadata: true})
	NewController(s, p).Evaluate()
	want := ParseOptions{
		StrictMode:           true,
		FailLevel:            FailWarningsAndErrors,
		IncludeMetadata:      true,
		RequireDocTerminator: "optional",
		ThrowOnError:         false,
		Quiet:                true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parse options (-want +got):\n%s", diff)
	}
}

func TestMetaMode(t *testing.T) {
	s := NewStore(DefaultSnippet)
	if err := s.SetOption(OptIncludeMetadata, "true"); err != nil {
		t.Fatal(err)
	}
	s.SetOutputMode(ModeMeta)
	res := NewController(s, YINI).Evaluate()
	if res.State != ShowingResult {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, `"sectionCount": 2`) {
		t.Errorf("meta output missing sectionCount:\n%s", res.Output)
	}
	if strings.Contains(res.Output, `"Demo"`) {
		t.Errorf("meta output contains primary data:\n%s", res.Output)
	}
	if res.Label != "Meta" {
		t.Errorf("label = %q, want Meta", res.Label)
	}

	// json and pojo both show the primary data.
	for _, m := range []OutputMode{ModeJSON, ModePOJO} {
		s.SetOutputMode(m)
		res := NewController(s, YINI).Evaluate()
		if res.Output != wantSampleOutput {
			t.Errorf("%s output:\n%s", m, res.Output)
		}
	}
}

func TestMetaModeWithoutMetadataFallsBack(t *testing.T) {
	s := NewStore(DefaultSnippet)
	s.SetOutputMode(ModeMeta)
	res := NewController(s, YINI).Evaluate()
	if res.State != ShowingResult || res.Output != wantSampleOutput {
		t.Errorf("result = %+v, want primary data", res)
	}
	if res.Label != "META" {
		t.Errorf("label = %q", res.Label)
	}
}

type nilMeta struct{}

func (nilMeta) PrimaryData() any { return 1 }
func (nilMeta) Metadata() any    { return (*struct{})(nil) }

func TestMetaModeMissingMetadata(t *testing.T) {
	s := NewStore("x")
	s.SetOptions(Options{FailLevel: FailErrors, IncludeMetadata: true})
	s.SetOutputMode(ModeMeta)
	p := ParserFunc(func(string, ParseOptions) (any, error) { return nilMeta{}, nil })
	if res := NewController(s, p).Evaluate(); res.Output != "{}" {
		t.Errorf("output = %q, want {}", res.Output)
	}
}

func TestPersistence(t *testing.T) {
	st := newMemStorage()
	s := NewStore("a = 1")
	c := NewController(s, YINI, WithStorage(st))
	c.Evaluate()
	if got := st.m[CodeKey]; got != "a = 1" {
		t.Errorf("persisted %q", got)
	}

	s.SetText("a = bad")
	c.Evaluate()
	if got := st.m[CodeKey]; got != "a = 1" {
		t.Errorf("failed evaluation persisted %q", got)
	}

	st.setErr = errors.New("quota exceeded")
	s.SetText("b = 2")
	if res := c.Evaluate(); res.State != ShowingResult || res.Error != "" {
		t.Errorf("storage failure surfaced: %+v", res)
	}
}

func TestInitialText(t *testing.T) {
	saved := newMemStorage()
	saved.m[CodeKey] = "saved = 1"
	broken := newMemStorage()
	broken.getErr = errors.New("denied")

	cases := []struct {
		name string
		q    Query
		st   Storage
		want string
	}{
		{"query wins", QueryMap{"code": "q = 1"}, saved, "q = 1"},
		{"storage next", QueryMap{}, saved, "saved = 1"},
		{"empty query ignored", QueryMap{"code": ""}, saved, "saved = 1"},
		{"default", nil, nil, DefaultSnippet},
		{"failing capabilities", failingQuery{}, broken, DefaultSnippet},
	}
	for _, c := range cases {
		if got := InitialText(c.q, c.st); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestCopy(t *testing.T) {
	cb := &recordingClipboard{}
	c := NewController(NewStore("a = 1"), YINI, WithClipboard(cb))
	if c.Copy() {
		t.Error("copied before any evaluation")
	}
	c.Evaluate()
	if !c.Copy() || len(cb.got) != 1 || cb.got[0] != "{\n  \"a\": 1\n}" {
		t.Errorf("clipboard = %q", cb.got)
	}
}

func TestSetOption(t *testing.T) {
	s := NewStore("")
	cases := []struct {
		name, value string
		wantErr     bool
	}{
		{OptStrictMode, "true", false},
		{OptFailLevel, "ignore-errors", false},
		{OptFailLevel, "sometimes", true},
		{OptIncludeMetadata, "1", false},
		{OptIncludeDiagnostics, "false", false},
		{OptAutoValidate, "maybe", true},
		{"colour", "blue", true},
	}
	for _, c := range cases {
		if err := s.SetOption(c.name, c.value); (err != nil) != c.wantErr {
			t.Errorf("SetOption(%q, %q) = %v, wantErr %v", c.name, c.value, err, c.wantErr)
		}
	}
	want := Options{StrictMode: true, FailLevel: FailIgnoreErrors, IncludeMetadata: true, AutoValidate: true}
	if diff := cmp.Diff(want, s.Snapshot().Options); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
	if err := s.SetOption("colour", "blue"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("err = %v, want ErrUnknownOption", err)
	}
}

func TestIsEvaluateChord(t *testing.T) {
	cases := []struct {
		chord string
		want  bool
	}{
		{"ctrl+enter", true},
		{"Ctrl+Enter", true},
		{"Control + Return", true},
		{"cmd+enter", true},
		{"Meta+Enter", true},
		{"alt+enter", true},
		{"ctrl+s", true},
		{"enter", false},
		{"shift+enter", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsEvaluateChord(c.chord); got != c.want {
			t.Errorf("IsEvaluateChord(%q) = %v, want %v", c.chord, got, c.want)
		}
	}
}

func TestHandleKey(t *testing.T) {
	var calls int
	p := ParserFunc(func(string, ParseOptions) (any, error) {
		calls++
		return 1, nil
	})
	s := NewStore("x")
	c := NewController(s, p)

	if c.HandleKey("ctrl+enter") {
		t.Error("shortcut evaluated while auto-validate is on")
	}
	if err := s.SetOption(OptAutoValidate, "false"); err != nil {
		t.Fatal(err)
	}
	if c.HandleKey("shift+enter") {
		t.Error("non-shortcut evaluated")
	}
	if !c.HandleKey("ctrl+enter") || calls != 1 {
		t.Errorf("shortcut ran %d evaluations, want 1", calls)
	}
}

// gateParser blocks its first call until release is closed.
type gateParser struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *gateParser) Parse(src string, _ ParseOptions) (any, error) {
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.entered)
		<-p.release
	}
	return src, nil
}

func TestEvaluateCommitsLatestState(t *testing.T) {
	in := NewStore("first")
	p := &gateParser{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController(in, p)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.Evaluate()
	}()
	<-p.entered
	in.SetText("mid")
	go func() {
		defer wg.Done()
		c.Evaluate()
	}()
	// Let the second evaluation queue behind the first.
	time.Sleep(50 * time.Millisecond)
	in.SetText("last")
	close(p.release)
	wg.Wait()

	got := c.Result()
	if got.Version != 2 || got.Output != `"last"` {
		t.Errorf("Result() = version %d output %q, want version 2 output %q", got.Version, got.Output, `"last"`)
	}
}

func TestModeSelectable(t *testing.T) {
	cases := []struct {
		meta bool
		mode OutputMode
		want bool
	}{
		{false, ModeJSON, true},
		{false, ModePOJO, true},
		{false, ModeMeta, false},
		{true, ModeMeta, true},
	}
	for _, c := range cases {
		if got := ModeSelectable(Options{IncludeMetadata: c.meta}, c.mode); got != c.want {
			t.Errorf("ModeSelectable(meta=%v, %s) = %v, want %v", c.meta, c.mode, got, c.want)
		}
	}
}
