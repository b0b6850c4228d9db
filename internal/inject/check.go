package inject

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

// describeTarget names the kind of an injectee for diagnostics.
func describeTarget(dc *ast.Decl) string {
	switch {
	case dc.IsFunctionOrMethod():
		return "function"
	case dc.IsRecord():
		return "class"
	case dc.IsNamespace():
		return "namespace"
	case dc.IsTranslationUnit():
		return "translation unit"
	}
	return dc.Kind.String()
}

func isInjectionTarget(dc *ast.Decl) bool {
	return dc.IsFunctionOrMethod() || dc.IsRecord() || dc.IsNamespace() || dc.IsTranslationUnit()
}

// checkInjectionContexts rejects injectees that cannot hold declarations,
// class members going outside a class and namespace members going outside
// file scope.
func (s *Sema) checkInjectionContexts(poi source.Span, injection, injectee *ast.Decl) bool {
	if !isInjectionTarget(injectee) {
		if b := s.errorf(diag.SemaInvalidInjection, poi, "cannot inject into %s %q", describeTarget(injectee), injectee.Name); b != nil {
			b.Emit()
		}
		return false
	}
	var what string
	switch {
	case injection.IsRecord() && !injectee.IsRecord():
		what = "class members"
	case injection.IsFileContext() && !injectee.IsFileContext():
		what = "namespace members"
	default:
		return true
	}
	if b := s.errorf(diag.SemaInvalidInjection, poi, "cannot inject %s into a %s", what, describeTarget(injectee)); b != nil {
		b.Emit()
	}
	return false
}

// checkInjectionKind keeps automatic variables inside functions.
func (s *Sema) checkInjectionKind(poi source.Span, injection, injectee *ast.Decl) bool {
	if injection.Kind != ast.DeclVar && injection.Kind != ast.DeclParam {
		return true
	}
	if !injection.HasLocalStorage() || injectee.IsFunctionOrMethod() {
		return true
	}
	where := "namespace scope"
	if injectee.IsRecord() {
		where = "a class"
	}
	if b := s.errorf(diag.SemaInjectLocalIntoBadScope, poi, "cannot inject local variable %q into %s", injection.Name, where); b != nil {
		b.Emit()
	}
	return false
}

// declFromReflection resolves the declaration a reflection type names;
// class types resolve to their declaration.
func (s *Sema) declFromReflection(t *ast.Type, span source.Span) *ast.Decl {
	construct, ok := s.Lib.EvaluateReflection(t)
	if !ok {
		if b := s.errorf(diag.SemaNotAReflection, span, "expression of type %s is not a reflection", t); b != nil {
			b.Emit()
		}
		return nil
	}
	d := construct.AsDecl()
	if d == nil {
		if b := s.errorf(diag.SemaReflectionNotADecl, span, "reflection of %s does not name a declaration", construct); b != nil {
			b.Emit()
		}
		return nil
	}
	return d
}
