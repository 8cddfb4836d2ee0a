package yini

import (
	"fmt"
	"strings"
)

// Severity classifies an Issue.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one problem found in a document.
type Issue struct {
	Line     int      `json:"line"`
	Severity Severity `json:"-"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Severity, i.Message)
}

// Error is returned by Parse when a document has fatal issues.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	switch len(e.Issues) {
	case 0:
		return "parse failed"
	case 1:
		return e.Issues[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d issues:", len(e.Issues))
	for _, i := range e.Issues {
		sb.WriteString("\n  ")
		sb.WriteString(i.String())
	}
	return sb.String()
}
