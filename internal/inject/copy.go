package inject

import (
	"fmt"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/meta"
	"splice/internal/source"
	"splice/internal/trace"
)

// CopyDeclaration clones injection into injectee and applies the
// modifications carried by refl. References to the declaration's owner
// are redirected to injectee. Modifications are validated before cloning,
// so a rejected request leaves injectee untouched.
func (s *Sema) CopyDeclaration(poi source.Span, refl consteval.Operand, injection, injectee *ast.Decl) ([]*ast.Decl, bool) {
	if injection.IsInjectedClassName() {
		return nil, true
	}
	owner := injection.Parent
	if !s.checkInjectionContexts(poi, owner, injectee) {
		return nil, false
	}
	if !s.checkInjectionKind(poi, injection, injectee) {
		return nil, false
	}

	mods, _ := meta.ModificationsOf(refl.Type, refl.Value)
	switch mods.Storage {
	case meta.StorageAutomatic, meta.StorageThreadLocal:
		panic(fmt.Sprintf("inject: %s storage cannot be requested", mods.Storage))
	}
	plan, ok := s.planModifications(poi, injection, injectee, mods)
	if !ok {
		return nil, false
	}

	sp, end := s.beginSpan(trace.ScopeInjection, "copy-decl")
	sp.Attr("decl", describeDecl(injection)).Attr("injectee", describeDecl(injectee))
	ok = false
	defer func() { end(ok) }()

	popInst, depthOK := s.pushInstantiation(poi, injectee)
	if !depthOK {
		return nil, false
	}
	defer popInst()

	ic, popCtx := s.Contexts.Push(injectee)
	defer popCtx()
	ic.AddDeclSubstitution(owner, injectee)

	restore := s.SwitchContext(injectee)
	defer restore()

	in := s.Cloner.NewInstantiation(ic)
	var (
		nd  *ast.Decl
		err error
	)
	if plan.static {
		nd, err = in.CloneFieldAsStatic(injection, injectee)
	} else {
		nd, err = in.CloneDecl(injection, injectee)
	}
	if err != nil || nd.IsInvalid() {
		s.reportCloneFailure(poi, injection, err)
		injectee.SetInvalid(true)
		return nil, false
	}
	injectee.AddDecl(nd)
	trace.Point(s.tracer, trace.ScopeDecl, "clone", describeDecl(nd), sp.ID())
	if err := in.Finish(); err != nil {
		s.reportCloneFailure(poi, injection, err)
		injectee.SetInvalid(true)
		return []*ast.Decl{nd}, false
	}

	plan.apply(nd, injectee)

	// bodies deferred by the cloner are needed now: nothing else will
	// instantiate a copied definition
	if injection.HasBody() && nd.Body == nil {
		if err := s.Cloner.InstantiateFunctionDefinition(nd); err != nil {
			s.reportCloneFailure(poi, injection, err)
			injectee.SetInvalid(true)
			return []*ast.Decl{nd}, false
		}
	}

	injectee.UpdateDecl(nd)
	ok = !injectee.IsInvalid()
	return []*ast.Decl{nd}, ok
}
