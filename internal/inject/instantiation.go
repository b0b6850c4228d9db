package inject

import (
	"fmt"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

// instantiation is one entry of the stack of injections in progress.
type instantiation struct {
	poi      source.Span
	injectee *ast.Decl
}

// InstantiationDepth reports how many injections are in progress.
func (s *Sema) InstantiationDepth() int { return len(s.insts) }

// pushInstantiation records an injection at poi. It fails with a
// backtrace once the configured depth is exceeded.
func (s *Sema) pushInstantiation(poi source.Span, injectee *ast.Decl) (pop func(), ok bool) {
	if len(s.insts) >= s.opts.MaxInjectionDepth {
		s.errorf(diag.SemaInjectionDepthExceeded, poi,
			"injection depth exceeds maximum of %d", s.opts.MaxInjectionDepth).
			WithNotes(s.Backtrace()).
			Emit()
		return func() {}, false
	}
	s.insts = append(s.insts, instantiation{poi: poi, injectee: injectee})
	n := len(s.insts)
	return func() {
		if len(s.insts) != n {
			panic("inject: instantiation stack out of balance")
		}
		s.insts = s.insts[:n-1]
	}, true
}

// Backtrace lists the injections in progress, innermost first.
func (s *Sema) Backtrace() []diag.Note {
	notes := make([]diag.Note, 0, len(s.insts))
	for i := len(s.insts) - 1; i >= 0; i-- {
		in := s.insts[i]
		notes = append(notes, diag.Note{
			Span: in.poi,
			Msg:  fmt.Sprintf("while injecting into %s", describeDecl(in.injectee)),
		})
	}
	return notes
}
