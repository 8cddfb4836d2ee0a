package yini

import (
	"fmt"

	"go.uber.org/zap"
)

// FailLevel selects which issues make Parse return an error.
type FailLevel string

const (
	// FailAuto behaves like FailIgnoreErrors in lenient mode and like
	// FailErrors in strict mode.
	FailAuto              FailLevel = "auto"
	FailIgnoreErrors      FailLevel = "ignore-errors"
	FailErrors            FailLevel = "errors"
	FailWarningsAndErrors FailLevel = "warnings-and-errors"
)

// ParseFailLevel validates s.  The empty string means FailAuto.
func ParseFailLevel(s string) (FailLevel, error) {
	switch l := FailLevel(s); l {
	case "":
		return FailAuto, nil
	case FailAuto, FailIgnoreErrors, FailErrors, FailWarningsAndErrors:
		return l, nil
	}
	return "", fmt.Errorf("unknown fail level %q", s)
}

// DocTerminator controls how a missing "/END" line is treated.
type DocTerminator string

const (
	TerminatorOptional      DocTerminator = "optional"
	TerminatorWarnIfMissing DocTerminator = "warn-if-missing"
	TerminatorRequired      DocTerminator = "required"
)

// Options configures a single Parse call.
type Options struct {
	StrictMode bool
	FailLevel  FailLevel

	// IncludeMetadata makes Parse return a *Document instead of the bare
	// *Object.
	IncludeMetadata bool
	// IncludeDiagnostics adds the issue lists to the metadata.  Ignored
	// unless IncludeMetadata is set.
	IncludeDiagnostics bool

	RequireDocTerminator DocTerminator

	// ThrowOnError stops at the first fatal issue instead of collecting
	// every issue in the document before failing.
	ThrowOnError bool

	// Quiet suppresses logging of issues.  When false, issues are logged to
	// Logger, or to zap.L() if Logger is nil.
	Quiet  bool
	Logger *zap.Logger
}

func (o Options) failLevel() FailLevel {
	if o.FailLevel == "" || o.FailLevel == FailAuto {
		if o.StrictMode {
			return FailErrors
		}
		return FailIgnoreErrors
	}
	return o.FailLevel
}

func (o Options) mode() string {
	if o.StrictMode {
		return "strict"
	}
	return "lenient"
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.L()
}
