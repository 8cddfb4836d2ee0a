package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	homepage "github.com/yini-lang/yini-homepage"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// classStyles colours output spans by highlight class.
	classStyles = map[string]lipgloss.Style{
		"k": lipgloss.NewStyle().Foreground(lipgloss.Color("170")),
		"s": lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		"t": lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		"n": lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		"c": lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	// chrome is the lines taken by the header, footer and pane borders.
	chrome = 6
)

func paneWidth(total int) int {
	if total <= 0 {
		total = defaultWidth
	}
	return max(total/2-4, 10)
}

func paneHeight(total int) int {
	if total <= 0 {
		total = defaultHeight
	}
	return max(total-chrome, 3)
}

// View implements tea.Model.
func (m Model) View() string {
	st := m.ctrl.Store().Snapshot()
	w, h := paneWidth(m.Width), paneHeight(m.Height)

	left := paneStyle.Render(m.editor.View())
	right := paneStyle.Width(w + 2).Height(h).Render(m.outputView(w, h))

	var b strings.Builder
	b.WriteString(titleStyle.Render("YINI playground") + "  " + flags(st) + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	} else {
		b.WriteString(helpStyle.Render(help(st.Options.AutoValidate)))
	}
	return b.String()
}

func (m Model) outputView(w, h int) string {
	lines := []string{labelStyle.Render(m.result.Label)}
	switch m.result.State {
	case homepage.ShowingResult:
		lines = append(lines, strings.Split(styleOutput(m.result.Output, m.spans), "\n")...)
	case homepage.ShowingError:
		lines = append(lines, errorStyle.Width(w).Render(m.result.Error))
	default:
		lines = append(lines, helpStyle.Render("not evaluated yet"))
	}
	if len(lines) > h {
		lines = append(lines[:h-1], helpStyle.Render(fmt.Sprintf("… %d more lines", len(lines)-h+1)))
	}
	return strings.Join(lines, "\n")
}

func flags(st homepage.State) string {
	o := st.Options
	parts := []string{
		flag("F2", "strict", onOff(o.StrictMode)),
		flag("F3", "fail", string(o.FailLevel)),
		flag("F4", "metadata", onOff(o.IncludeMetadata)),
		flag("F5", "diagnostics", onOff(o.IncludeDiagnostics)),
		flag("F6", "auto", onOff(o.AutoValidate)),
		flag("F7", "mode", string(st.Mode)),
	}
	return strings.Join(parts, " ")
}

func flag(key, name, value string) string {
	v := value
	if value == "on" {
		v = onStyle.Render(value)
	}
	return flagStyle.Render(key+" "+name+":") + v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func help(auto bool) string {
	if auto {
		return "ctrl+y copy • esc quit"
	}
	return "ctrl+s/alt+enter parse • ctrl+y copy • esc quit"
}

// styleOutput colours out by its highlight spans.
func styleOutput(out string, spans []homepage.Span) string {
	runes := []rune(out)
	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		if sp.Start < pos || sp.End > len(runes) || sp.Start >= sp.End {
			continue
		}
		b.WriteString(string(runes[pos:sp.Start]))
		text := string(runes[sp.Start:sp.End])
		if style, ok := classStyles[sp.Class]; ok {
			text = style.Render(text)
		}
		b.WriteString(text)
		pos = sp.End
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}
