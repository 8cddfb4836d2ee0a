package homepage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PaneState is the state of the output pane.
type PaneState int

const (
	Idle PaneState = iota
	ShowingResult
	ShowingError
)

func (s PaneState) String() string {
	switch s {
	case ShowingResult:
		return "result"
	case ShowingError:
		return "error"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s PaneState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Result is what the output pane shows after an evaluation.  Exactly one
// of Output and Error is non-empty unless State is Idle.
type Result struct {
	State   PaneState `json:"state"`
	Output  string    `json:"output"`
	Error   string    `json:"error"`
	Label   string    `json:"label"`
	Version uint64    `json:"version"`
}

// DebounceQuiet is how long input must stay unchanged before an automatic
// evaluation runs.
const DebounceQuiet = 250 * time.Millisecond

// Controller turns store state into evaluation results.  Evaluate may be
// called from any goroutine; Run drives automatic evaluation.
type Controller struct {
	store     *Store
	parser    Parser
	storage   Storage
	clipboard Clipboard
	clock     Clock
	quiet     time.Duration
	log       *zap.Logger

	mu        sync.Mutex // serializes evaluations
	result    Result
	observers []func(Result, time.Duration)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithStorage persists evaluated text to st.
func WithStorage(st Storage) ControllerOption { return func(c *Controller) { c.storage = st } }

// WithClipboard sets the Copy target.
func WithClipboard(cb Clipboard) ControllerOption { return func(c *Controller) { c.clipboard = cb } }

// WithClock replaces the wall clock used for debouncing.
func WithClock(clk Clock) ControllerOption { return func(c *Controller) { c.clock = clk } }

// WithQuietPeriod overrides DebounceQuiet.
func WithQuietPeriod(d time.Duration) ControllerOption { return func(c *Controller) { c.quiet = d } }

// WithLogger sets the logger; the default is zap.L().
func WithLogger(l *zap.Logger) ControllerOption { return func(c *Controller) { c.log = l } }

// WithObserver registers fn to be called after every evaluation with the
// result and the time the parser took.
func WithObserver(fn func(Result, time.Duration)) ControllerOption {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// NewController returns a Controller evaluating store with p.
func NewController(store *Store, p Parser, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:  store,
		parser: p,
		clock:  wallClock{},
		quiet:  DebounceQuiet,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.L()
	}
	return c
}

// Store returns the controller's input store.
func (c *Controller) Store() *Store { return c.store }

// Result returns the latest result, or an Idle one before the first
// evaluation.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Evaluate runs the parser on the current state and replaces the result.
// The state is read under the evaluation lock, so results are committed in
// version order.
func (c *Controller) Evaluate() Result {
	c.mu.Lock()
	st := c.store.Snapshot()
	start := time.Now()
	res := Evaluate(c.parser, st)
	took := time.Since(start)
	c.result = res
	observers := c.observers
	c.mu.Unlock()

	c.log.Debug("evaluated",
		zap.Uint64("version", st.Version),
		zap.Stringer("state", res.State),
		zap.Duration("took", took))

	if res.State == ShowingResult && c.storage != nil {
		if err := c.storage.Set(CodeKey, st.Text); err != nil {
			c.log.Debug("persist draft", zap.Error(err))
		}
	}
	for _, fn := range observers {
		fn(res, took)
	}
	return res
}

// HandleKey evaluates when chord is the evaluate shortcut and automatic
// mode is off.  It reports whether an evaluation ran.
func (c *Controller) HandleKey(chord string) bool {
	if !IsEvaluateChord(chord) || c.store.Snapshot().Options.AutoValidate {
		return false
	}
	c.Evaluate()
	return true
}

// Copy writes the current output to the clipboard.  It reports whether
// anything was copied; clipboard failures are logged and swallowed.
func (c *Controller) Copy() bool {
	out := c.Result().Output
	if out == "" || c.clipboard == nil {
		return false
	}
	if err := c.clipboard.WriteText(out); err != nil {
		c.log.Debug("copy output", zap.Error(err))
		return false
	}
	return true
}

// Evaluate computes the Result for st without side effects.
func Evaluate(p Parser, st State) Result {
	res := Result{Label: OutputLabel(st.Options, st.Mode), Version: st.Version}

	v, err := callParser(p, st.Text, st.Options.parseOptions())
	if err != nil {
		res.State = ShowingError
		res.Error = errorText(err)
		return res
	}

	display := v
	if st.Options.IncludeMetadata {
		if mr, ok := v.(MetaResult); ok {
			if st.Mode == ModeMeta {
				display = mr.Metadata()
				if isNil(display) {
					display = map[string]any{}
				}
			} else {
				// json and pojo render the same data.
				display = mr.PrimaryData()
			}
		}
	}

	out, err := Render(display)
	if err != nil {
		res.State = ShowingError
		res.Error = errorText(err)
		return res
	}
	res.State = ShowingResult
	res.Output = out
	return res
}

// OutputLabel names the output pane: "Meta" when metadata is shown, else
// the upper-cased mode.
func OutputLabel(o Options, m OutputMode) string {
	if o.IncludeMetadata && m == ModeMeta {
		return "Meta"
	}
	return strings.ToUpper(string(m))
}

// Render serializes v as indented JSON.
func Render(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// callParser converts a parser panic into an error.
func callParser(p Parser, src string, opts ParseOptions) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	return p.Parse(src, opts)
}

func errorText(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%T", err)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
