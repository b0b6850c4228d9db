package inject

import (
	"errors"
	"fmt"

	"splice/internal/ast"
	"splice/internal/clone"
	"splice/internal/consteval"
	"splice/internal/diag"
	"splice/internal/source"
	"splice/internal/trace"
)

// InjectFragment expands the members of content, the content of a
// fragment, into injectee. refl is the evaluated fragment value: its
// struct fields are the captured values in capture order.
//
// A member that fails to clone marks the injectee invalid and is skipped;
// the remaining members are still injected. The clones are returned in
// declaration order.
func (s *Sema) InjectFragment(poi source.Span, refl consteval.Operand, content, injectee *ast.Decl) ([]*ast.Decl, bool) {
	if !content.IsRecord() && !content.IsNamespace() {
		panic(fmt.Sprintf("inject: fragment content must be a record or namespace, got %s", content.Kind))
	}
	frag := content.Parent
	if !frag.IsFragment() {
		panic(fmt.Sprintf("inject: %s is not fragment content", describeDecl(content)))
	}
	if !s.checkInjectionContexts(poi, content, injectee) {
		return nil, false
	}

	sp, end := s.beginSpan(trace.ScopeInjection, "inject-fragment")
	sp.Attr("injectee", describeDecl(injectee))
	ok := false
	defer func() { end(ok) }()

	popInst, depthOK := s.pushInstantiation(poi, injectee)
	if !depthOK {
		return nil, false
	}
	defer popInst()

	ic, popCtx := s.Contexts.Push(injectee)
	defer popCtx()
	ic.AddDeclSubstitution(content, injectee)
	ic.AddPlaceholderSubstitutions(frag, refl.Type.RecordDecl(), refl.Value.Fields)

	restore := s.SwitchContext(injectee)
	defer restore()

	ok = true
	in := s.Cloner.NewInstantiation(ic)
	var decls []*ast.Decl
	for _, m := range content.Members {
		if m.IsInjectedClassName() {
			continue
		}
		nd, err := in.CloneDecl(m, injectee)
		if err != nil || nd.IsInvalid() {
			s.reportCloneFailure(poi, m, err)
			injectee.SetInvalid(true)
			ok = false
			continue
		}
		injectee.AddDecl(nd)
		decls = append(decls, nd)
		trace.Point(s.tracer, trace.ScopeDecl, "clone", describeDecl(nd), sp.ID())
	}
	if err := in.Finish(); err != nil {
		s.reportCloneFailure(poi, content, err)
		injectee.SetInvalid(true)
		ok = false
	}
	sp.Attr("decls", fmt.Sprint(len(decls)))
	ok = ok && !injectee.IsInvalid()
	return decls, ok
}

// reportCloneFailure turns an engine error into diagnostics: one per
// joined error, redefinitions with a note at the previous declaration.
func (s *Sema) reportCloneFailure(poi source.Span, d *ast.Decl, err error) {
	if err == nil {
		if b := s.errorf(diag.SemaCloneFailed, poi, "injected %s is invalid", describeDecl(d)); b != nil {
			b.Emit()
		}
		return
	}
	var errs []error
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		var ce *clone.Error
		if errors.As(e, &ce) && ce.Kind == clone.ErrRedefinition {
			b := s.errorf(diag.SemaRedefinition, poi, "%s", ce.Msg)
			if ce.Prev != nil {
				b = b.WithNote(ce.Prev.Span, "previous definition is here")
			}
			b.Emit()
			continue
		}
		b := s.errorf(diag.SemaCloneFailed, poi, "cannot inject %s: %v", describeDecl(d), e)
		if ce != nil && ce.Span != poi {
			b = b.WithNote(ce.Span, "while substituting here")
		}
		b.Emit()
	}
}
