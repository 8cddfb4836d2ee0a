package homepage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yini-lang/yini-homepage/config"
)

// FenceHandler is a compiled config.FenceHandler, ready for matching.
type FenceHandler struct {
	re   *regexp.Regexp
	lang *Language // nil if LanguageID is unsupported
}

// CompileFenceHandlers pre-compiles the fence info-string regexes from cfg.
// Handlers whose regex is invalid are returned as an error.
func CompileFenceHandlers(cfg *config.Config) ([]FenceHandler, error) {
	out := make([]FenceHandler, 0, len(cfg.FenceHandlers))
	for _, fh := range cfg.FenceHandlers {
		re, err := regexp.Compile(fh.Pattern)
		if err != nil {
			return nil, fmt.Errorf("fence handler pattern %q: %w", fh.Pattern, err)
		}
		out = append(out, FenceHandler{re: re, lang: langByID(fh.LanguageID)})
	}
	return out, nil
}

// DetectFenceLanguage returns the language id for a fenced code block with
// the given info string and body.  Handlers are tried in order and the
// first match wins; a block no handler claims falls back to its shebang
// line.  The result is "" when nothing matches or the matched language has
// no grammar.
func DetectFenceLanguage(handlers []FenceHandler, info, body string) string {
	info = strings.TrimSpace(info)
	if info != "" {
		for _, h := range handlers {
			if h.re.MatchString(info) {
				if h.lang == nil {
					return ""
				}
				return h.lang.Name
			}
		}
	}
	first, _, _ := strings.Cut(body, "\n")
	if l := detectByShebang(first); l != nil {
		return l.Name
	}
	return ""
}

// shebangs maps interpreter base-names to language IDs.
// Version suffixes (python3.11, node20, …) are stripped before lookup.
var shebangs = map[string]string{
	// Shell
	"ash":  "bash",
	"bash": "bash",
	"dash": "bash",
	"fish": "bash",
	"ksh":  "bash",
	"sh":   "bash",
	"zsh":  "bash",
	// Python
	"python":  "python",
	"python2": "python",
	"python3": "python",
	// JavaScript
	"bun":    "javascript",
	"deno":   "javascript",
	"node":   "javascript",
	"nodejs": "javascript",
	// Java
	"java":  "java",
	"jbang": "java",
	// Scala
	"amm":    "scala",
	"scala":  "scala",
	"scala3": "scala",
	// Rust
	"rust-script": "rust",
	// Go
	"gorun": "go",
	"yaegi": "go",
}

// detectByShebang returns the Language named by a #! interpreter line, or
// nil otherwise.
func detectByShebang(firstLine string) *Language {
	interp := shebangInterpreter(firstLine)
	if interp == "" {
		return nil
	}
	return langByID(langIDForInterpreter(interp))
}

// shebangInterpreter extracts the interpreter base-name from a shebang line.
//
//	#!/bin/bash
//	#!/usr/bin/env python3
//	#!/usr/bin/env -S scala -classpath lib   (env flags are skipped)
func shebangInterpreter(line string) string {
	if !strings.HasPrefix(line, "#!") {
		return ""
	}
	fields := strings.Fields(line[2:])
	if len(fields) == 0 {
		return ""
	}
	base := filepath.Base(fields[0])
	if base != "env" {
		return base
	}
	for _, f := range fields[1:] {
		if !strings.HasPrefix(f, "-") {
			return filepath.Base(f)
		}
	}
	return ""
}

// langIDForInterpreter maps an interpreter base-name to a language ID,
// trying the name as given and then with its version suffix removed.
func langIDForInterpreter(name string) string {
	if id, ok := shebangs[name]; ok {
		return id
	}
	stripped := strings.TrimRightFunc(name, func(r rune) bool {
		return r == '.' || (r >= '0' && r <= '9')
	})
	if stripped != "" && stripped != name {
		return shebangs[stripped]
	}
	return ""
}
