package ui

import (
	"errors"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

var errClipboardUnsupported = errors.New("clipboard is not available on this system")

// HighlightJSON colorizes a JSON document for the terminal. On failure the
// source is returned unchanged.
func HighlightJSON(src string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, src, "json", "terminal256", "monokai"); err != nil {
		return src
	}
	return b.String()
}

// Wrap word-wraps text to width columns and indents every line by pad spaces.
func Wrap(text string, width int, pad uint) string {
	if width <= int(pad) {
		return indent.String(text, pad)
	}
	return indent.String(wordwrap.String(text, width-int(pad)), pad)
}

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}
