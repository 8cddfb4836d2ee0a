package homepage

import "strings"

// evaluateChords are the key chords that request a manual evaluation.
// Browsers report Ctrl+Enter and Cmd+Enter; most terminals cannot, so the
// terminal front-end also sends alt+enter or ctrl+s.
var evaluateChords = map[string]bool{
	"ctrl+enter":  true,
	"cmd+enter":   true,
	"meta+enter":  true,
	"super+enter": true,
	"alt+enter":   true,
	"ctrl+s":      true,
}

// IsEvaluateChord reports whether chord (e.g. "Ctrl+Enter") requests a
// manual evaluation.  Matching ignores case and spaces.
func IsEvaluateChord(chord string) bool {
	chord = strings.ToLower(strings.ReplaceAll(chord, " ", ""))
	chord = strings.ReplaceAll(chord, "control+", "ctrl+")
	chord = strings.ReplaceAll(chord, "command+", "cmd+")
	chord = strings.ReplaceAll(chord, "return", "enter")
	return evaluateChords[chord]
}
