package diagfmt

import "splice/internal/diag"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAsLoaded prints the path the file was registered under.
	PathModeAsLoaded PathMode = iota
	PathModeBasename
)

// PrettyOpts configures human-readable output.
type PrettyOpts struct {
	Color     bool
	Context   int // source lines shown above the primary line
	PathMode  PathMode
	ShowNotes bool
	Max       int // 0 prints everything
	// MinSeverity hides less severe diagnostics.
	MinSeverity diag.Severity
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool
	IncludeNotes     bool
	PathMode         PathMode
	Max              int
	MinSeverity      diag.Severity
}
