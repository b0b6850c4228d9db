package diagfmt

import (
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"splice/internal/source"
)

func displayPath(f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	if mode == PathModeBasename {
		return filepath.Base(f.Path)
	}
	return f.Path
}

// underline returns the padding and marker for the columns [startCol,
// endCol) of text, measured in display cells. endCol of 0 runs to the end
// of the line. The marker is at least one cell wide.
func underline(text string, startCol, endCol uint32) (pad, mark string) {
	start := clampCol(text, startCol)
	end := len(text)
	if endCol != 0 {
		end = max(clampCol(text, endCol), start)
	}
	pad = strings.Repeat(" ", runewidth.StringWidth(expandTabs(text[:start])))
	w := runewidth.StringWidth(expandTabs(text[start:end]))
	if w <= 1 {
		return pad, "^"
	}
	return pad, "^" + strings.Repeat("~", w-1)
}

func clampCol(text string, col uint32) int {
	if col <= 1 {
		return 0
	}
	return min(int(col-1), len(text))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
