package tui

import "github.com/atotto/clipboard"

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

// WriteText implements homepage.Clipboard.
func (SystemClipboard) WriteText(s string) error { return clipboard.WriteAll(s) }
