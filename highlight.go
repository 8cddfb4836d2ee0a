package homepage

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Highlight returns the highlighted spans of src in the language registered
// as langID, or nil when the language is unknown.
func Highlight(langID, src string) []Span {
	if langID == jsonLangID {
		return HighlightOutput(src)
	}
	return computeHighlights(langByID(langID), []byte(src))
}

// HighlightOutput highlights rendered playground output.  The javascript
// grammar parses a bare object literal as a block, so the text is wrapped
// in parentheses and the offsets shifted back.
func HighlightOutput(out string) []Span {
	if out == "" {
		return nil
	}
	wrapped := computeHighlights(langByID(jsonLangID), []byte("("+out+")"))
	n := len([]rune(out))
	spans := make([]Span, 0, len(wrapped))
	for _, sp := range wrapped {
		sp.Start--
		sp.End--
		if sp.Start < 0 {
			sp.Start = 0
		}
		if sp.End > n {
			sp.End = n
		}
		if sp.Start < sp.End {
			spans = append(spans, sp)
		}
	}
	return spans
}

// computeHighlights parses src with lang's grammar, runs the highlight query,
// and returns rune-offset spans.
//
// "First capture wins": for a given byte position, whichever pattern appears
// earliest in the query file claims that position.  Later catch-all patterns
// therefore do not overwrite specific ones (e.g. a JSON key over @string).
func computeHighlights(lang *Language, src []byte) []Span {
	if lang == nil || lang.query == nil || len(src) == 0 {
		return nil
	}

	// Each call needs its own Parser and QueryCursor.
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang.lang); err != nil {
		return nil
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	// stylePerByte[i] = canonicalTable index (≥1) for byte i; 0 = unclaimed.
	stylePerByte := make([]byte, len(src))

	captureNames := lang.query.CaptureNames()
	captures := qc.Captures(lang.query, tree.RootNode(), src)

	for match, captureIdx := captures.Next(); match != nil; match, captureIdx = captures.Next() {
		if int(captureIdx) >= len(match.Captures) {
			continue
		}
		cap := match.Captures[captureIdx]
		if int(cap.Index) >= len(captureNames) {
			continue
		}
		idx := lookupCaptureIdx(captureNames[cap.Index])
		if idx == 0 {
			continue
		}
		applyCapture(stylePerByte, int(cap.Node.StartByte()), int(cap.Node.EndByte()), idx)
	}

	return compressToSpans(stylePerByte, src)
}
