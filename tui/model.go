// Package tui is the terminal front-end of the playground: a text editor
// on the left, the evaluated output on the right, and function keys for
// the parser options.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	homepage "github.com/yini-lang/yini-homepage"
)

// resultMsg carries an evaluation from the controller to the model.
type resultMsg homepage.Result

// Model is the bubbletea model of one terminal playground.
type Model struct {
	ctrl    *homepage.Controller
	results chan homepage.Result

	editor textarea.Model
	result homepage.Result
	spans  []homepage.Span
	status string

	Width  int
	Height int
}

// New returns a playground model editing in.  opts configure the
// controller; its results are delivered to the model.
func New(in *homepage.Store, p homepage.Parser, opts ...homepage.ControllerOption) Model {
	results := make(chan homepage.Result, 1)
	opts = append(opts, homepage.WithObserver(func(res homepage.Result, _ time.Duration) {
		offer(results, res)
	}))

	ed := textarea.New()
	ed.CharLimit = 0
	ed.ShowLineNumbers = true
	ed.Placeholder = "Type YINI here"
	ed.SetValue(in.Snapshot().Text)
	ed.Focus()

	return Model{
		ctrl:    homepage.NewController(in, p, opts...),
		results: results,
		editor:  ed,
	}
}

// Controller returns the model's controller.
func (m Model) Controller() *homepage.Controller { return m.ctrl }

// Result returns the result on display.
func (m Model) Result() homepage.Result { return m.result }

// Run drives automatic evaluation and the terminal program until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) (Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.ctrl.Run(ctx)
	}()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	cancel()
	<-done
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitResult(m.results))
}

func waitResult(ch <-chan homepage.Result) tea.Cmd {
	return func() tea.Msg { return resultMsg(<-ch) }
}

// offer replaces whatever is waiting in ch with res.
func offer(ch chan homepage.Result, res homepage.Result) {
	for {
		select {
		case ch <- res:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		res := homepage.Result(msg)
		if res.Version >= m.result.Version {
			m.result = res
			m.spans = homepage.HighlightOutput(res.Output)
		}
		return m, waitResult(m.results)

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.editor.SetWidth(paneWidth(m.Width))
		m.editor.SetHeight(paneHeight(m.Height))
		return m, nil

	case tea.KeyMsg:
		if cmd, ok := m.handleKey(msg); ok {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	in := m.ctrl.Store()
	if v := m.editor.Value(); v != in.Snapshot().Text {
		in.SetText(v)
		m.status = ""
	}
	return m, cmd
}

// handleKey performs the playground's own shortcuts; other keys belong to
// the editor.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	in := m.ctrl.Store()
	opts := in.Snapshot().Options
	chord := msg.String()

	switch {
	case chord == "ctrl+c" || chord == "esc":
		return tea.Quit, true

	case homepage.IsEvaluateChord(chord):
		if opts.AutoValidate {
			m.status = "auto-validate is on; F6 switches to manual"
			return nil, true
		}
		m.status = ""
		ctrl := m.ctrl
		return func() tea.Msg {
			ctrl.HandleKey(chord)
			return nil
		}, true

	case chord == "ctrl+y":
		if m.ctrl.Copy() {
			m.status = "output copied"
		} else {
			m.status = "nothing copied"
		}
		return nil, true
	}

	var err error
	switch chord {
	case "f2":
		err = in.SetOption(homepage.OptStrictMode, strconv.FormatBool(!opts.StrictMode))
	case "f3":
		err = in.SetOption(homepage.OptFailLevel, string(nextFailLevel(opts.FailLevel)))
	case "f4":
		err = in.SetOption(homepage.OptIncludeMetadata, strconv.FormatBool(!opts.IncludeMetadata))
		if st := in.Snapshot(); err == nil && !homepage.ModeSelectable(st.Options, st.Mode) {
			in.SetOutputMode(homepage.ModeJSON)
		}
	case "f5":
		err = in.SetOption(homepage.OptIncludeDiagnostics, strconv.FormatBool(!opts.IncludeDiagnostics))
	case "f6":
		err = in.SetOption(homepage.OptAutoValidate, strconv.FormatBool(!opts.AutoValidate))
	case "f7":
		in.SetOutputMode(nextMode(in.Snapshot().Mode, opts))
	default:
		return nil, false
	}
	if err != nil {
		m.status = err.Error()
	}
	return nil, true
}

var (
	failLevels = []homepage.FailLevel{homepage.FailIgnoreErrors, homepage.FailErrors, homepage.FailWarningsAndErrors}
	modes      = []homepage.OutputMode{homepage.ModeJSON, homepage.ModePOJO, homepage.ModeMeta}
)

func nextFailLevel(l homepage.FailLevel) homepage.FailLevel {
	for i, f := range failLevels {
		if f == l {
			return failLevels[(i+1)%len(failLevels)]
		}
	}
	return homepage.FailErrors
}

// nextMode returns the mode after m that opts allows.
func nextMode(m homepage.OutputMode, opts homepage.Options) homepage.OutputMode {
	start := -1
	for i, o := range modes {
		if o == m {
			start = i
		}
	}
	if start < 0 {
		return homepage.ModeJSON
	}
	for i := 1; i <= len(modes); i++ {
		if next := modes[(start+i)%len(modes)]; homepage.ModeSelectable(opts, next) {
			return next
		}
	}
	return homepage.ModeJSON
}
