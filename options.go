package homepage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// OutputMode selects which part of a successful evaluation is displayed.
type OutputMode string

const (
	ModeJSON OutputMode = "json"
	ModePOJO OutputMode = "pojo"
	ModeMeta OutputMode = "meta"
)

// ParseOutputMode validates s.
func ParseOutputMode(s string) (OutputMode, error) {
	switch m := OutputMode(strings.ToLower(s)); m {
	case ModeJSON, ModePOJO, ModeMeta:
		return m, nil
	}
	return "", fmt.Errorf("unknown output mode %q", s)
}

// ModeSelectable reports whether the mode control offers m under o.  The
// meta mode is disabled while metadata is off.
func ModeSelectable(o Options, m OutputMode) bool {
	return m != ModeMeta || o.IncludeMetadata
}

// FailLevel selects which parser issues fail an evaluation.
type FailLevel string

const (
	FailIgnoreErrors      FailLevel = "ignore-errors"
	FailErrors            FailLevel = "errors"
	FailWarningsAndErrors FailLevel = "warnings-and-errors"
)

// ParseFailLevel validates s.
func ParseFailLevel(s string) (FailLevel, error) {
	switch l := FailLevel(s); l {
	case FailIgnoreErrors, FailErrors, FailWarningsAndErrors:
		return l, nil
	}
	return "", fmt.Errorf("unknown fail level %q", s)
}

// Option names accepted by (*Store).SetOption.
const (
	OptStrictMode         = "strictMode"
	OptFailLevel          = "failLevel"
	OptIncludeMetadata    = "includeMetadata"
	OptIncludeDiagnostics = "includeDiagnostics"
	OptAutoValidate       = "autoValidate"
)

// ErrUnknownOption is returned by SetOption for names it does not know.
var ErrUnknownOption = errors.New("unknown option")

// Options are the user-controlled parser toggles.
type Options struct {
	StrictMode         bool      `json:"strictMode"`
	FailLevel          FailLevel `json:"failLevel"`
	IncludeMetadata    bool      `json:"includeMetadata"`
	IncludeDiagnostics bool      `json:"includeDiagnostics"`
	AutoValidate       bool      `json:"autoValidate"`
}

// DefaultOptions returns the options a fresh playground starts with.
// IncludeDiagnostics has no effect while IncludeMetadata is off.
func DefaultOptions() Options {
	return Options{
		FailLevel:          FailErrors,
		IncludeDiagnostics: true,
		AutoValidate:       true,
	}
}

// set updates the field called name from its string form.
func (o *Options) set(name, value string) error {
	if name == OptFailLevel {
		l, err := ParseFailLevel(value)
		if err != nil {
			return err
		}
		o.FailLevel = l
		return nil
	}
	var field *bool
	switch name {
	case OptStrictMode:
		field = &o.StrictMode
	case OptIncludeMetadata:
		field = &o.IncludeMetadata
	case OptIncludeDiagnostics:
		field = &o.IncludeDiagnostics
	case OptAutoValidate:
		field = &o.AutoValidate
	default:
		return fmt.Errorf("%w %q", ErrUnknownOption, name)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("option %s: %w", name, err)
	}
	*field = b
	return nil
}

// ParseOptions is the fixed-shape record handed to a Parser.
type ParseOptions struct {
	StrictMode           bool
	FailLevel            FailLevel
	IncludeMetadata      bool
	IncludeDiagnostics   bool
	RequireDocTerminator string
	ThrowOnError         bool
	Quiet                bool
}

// DocTerminatorOptional is the only terminator policy the playground uses.
const DocTerminatorOptional = "optional"

// parseOptions maps o field-for-field.  Quiet and ThrowOnError are forced:
// the controller reports failures itself.
func (o Options) parseOptions() ParseOptions {
	return ParseOptions{
		StrictMode:           o.StrictMode,
		FailLevel:            o.FailLevel,
		IncludeMetadata:      o.IncludeMetadata,
		IncludeDiagnostics:   o.IncludeDiagnostics,
		RequireDocTerminator: DocTerminatorOptional,
		ThrowOnError:         false,
		Quiet:                true,
	}
}
