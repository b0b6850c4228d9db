package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"

	"splice/internal/diag"
	"splice/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
		note:   mk(color.FgCyan),
	}
}

func (p palette) severity(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return p.err(s.String())
	case diag.SevWarning:
		return p.warn(s.String())
	}
	return p.info(s.String())
}

// Pretty renders the bag in order, one block per diagnostic:
//
//	path:line:col: SEV CODE: message
//	   3 | source line
//	     |    ^~~~
//	  note: path:line:col: message
//
// Callers sort the bag first when they want positional order.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	pw := &prettyWriter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	all := bag.AtLeast(opts.MinSeverity)
	items := all
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	for i := range items {
		pw.diagnostic(&items[i])
	}
	if len(items) < len(all) {
		pw.printf("... %d more diagnostics\n", len(all)-len(items))
	}
	return pw.err
}

type prettyWriter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
	err  error
}

func (pw *prettyWriter) printf(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, args...)
}

func (pw *prettyWriter) position(sp source.Span) string {
	f := pw.fs.Get(sp.File)
	start, _ := pw.fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", displayPath(f, pw.opts.PathMode), start.Line, start.Col)
}

func (pw *prettyWriter) diagnostic(d *diag.Diagnostic) {
	pw.printf("%s: %s %s: %s\n", pw.position(d.Primary), pw.pal.severity(d.Severity), pw.pal.code(d.Code.ID()), d.Message)
	pw.excerpt(d.Primary)
	if !pw.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		pw.printf("  %s %s: %s\n", pw.pal.note("note:"), pw.position(n.Span), n.Msg)
	}
}

func (pw *prettyWriter) excerpt(sp source.Span) {
	f := pw.fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := pw.fs.Resolve(sp)
	ctx, err := safecast.Conv[uint32](max(pw.opts.Context, 0))
	if err != nil {
		ctx = 0
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	gutter := len(strconv.FormatUint(uint64(start.Line), 10))
	for ln := first; ln <= start.Line; ln++ {
		pw.printf("%s %s\n", pw.pal.gutter(fmt.Sprintf("%*d |", gutter+2, ln)), f.Line(ln))
	}
	endCol := end.Col
	if end.Line != start.Line {
		endCol = 0
	}
	pad, mark := underline(f.Line(start.Line), start.Col, endCol)
	pw.printf("%s %s%s\n", pw.pal.gutter(strings.Repeat(" ", gutter+2)+" |"), pad, pw.pal.caret(mark))
}
