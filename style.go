package homepage

import (
	"html"
	"strings"
	"unicode/utf8"
)

// Span is a highlighted run of text.  Start and End are rune offsets
// (End exclusive); Class is one of the short names in canonicalTable.
type Span struct {
	Class string `json:"class"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// canonicalTable is the ordered list of short class names Highlight emits.
// Index 0 is the "no style" sentinel.  Stylesheets and the terminal palette
// key on these names.
var canonicalTable = []string{
	"",  // 0 = unstyled
	"k", // keyword
	"c", // comment
	"s", // string
	"t", // type
	"n", // number
	"o", // operator
	"e", // error
	"f", // function
	"m", // macro
}

// canonicalIndex maps both short and long capture names to indices in
// canonicalTable.  The long names are used in the .scm query files.
var canonicalIndex = map[string]int{
	"k": 1, "c": 2, "s": 3, "t": 4, "n": 5,
	"o": 6, "e": 7, "f": 8, "m": 9,
	"keyword": 1, "comment": 2, "string": 3, "type": 4, "number": 5,
	"operator": 6, "error": 7, "function": 8, "macro": 9,
}

// Classes returns the short class names in palette order.
func Classes() []string { return canonicalTable[1:] }

// lookupCaptureIdx converts a tree-sitter capture name (e.g. "@function.method")
// to a canonicalTable index using hierarchical fallback:
//
//	"function.method" → "function" → index 8 ("f")
//
// Index 0 means "skip this capture".
func lookupCaptureIdx(captureName string) int {
	name := strings.TrimPrefix(captureName, "@")
	for {
		if idx, ok := canonicalIndex[name]; ok {
			return idx
		}
		dot := strings.LastIndex(name, ".")
		if dot < 0 {
			return 0
		}
		name = name[:dot]
	}
}

// applyCapture marks bytes [start, end) in stylePerByte with idx,
// but only where the slot is still 0 ("first match wins").
func applyCapture(stylePerByte []byte, start, end, idx int) {
	if idx == 0 {
		return
	}
	for i := start; i < end && i < len(stylePerByte); i++ {
		if stylePerByte[i] == 0 {
			stylePerByte[i] = byte(idx)
		}
	}
}

// compressToSpans converts a per-byte style-index array into spans over
// rune offsets.
func compressToSpans(stylePerByte []byte, src []byte) []Span {
	var spans []Span
	byteOff, runeOff := 0, 0
	curIdx, spanStart := 0, 0

	for byteOff < len(src) {
		_, size := utf8.DecodeRune(src[byteOff:])

		idx := int(stylePerByte[byteOff])
		if idx != curIdx {
			if curIdx != 0 {
				spans = append(spans, Span{Class: canonicalTable[curIdx], Start: spanStart, End: runeOff})
			}
			curIdx = idx
			spanStart = runeOff
		}

		byteOff += size
		runeOff++
	}
	if curIdx != 0 {
		spans = append(spans, Span{Class: canonicalTable[curIdx], Start: spanStart, End: runeOff})
	}
	return spans
}

// HTML renders src as escaped HTML with each span wrapped in
// <span class="hl-X">.  Spans must be sorted and non-overlapping, as
// Highlight returns them.
func HTML(src string, spans []Span) string {
	var b strings.Builder
	runes := []rune(src)
	pos := 0
	for _, sp := range spans {
		if sp.Start < pos || sp.End > len(runes) || sp.Start >= sp.End {
			continue
		}
		b.WriteString(html.EscapeString(string(runes[pos:sp.Start])))
		b.WriteString(`<span class="hl-`)
		b.WriteString(sp.Class)
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(string(runes[sp.Start:sp.End])))
		b.WriteString("</span>")
		pos = sp.End
	}
	b.WriteString(html.EscapeString(string(runes[pos:])))
	return b.String()
}
