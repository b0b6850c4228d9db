package inject

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

// reflectedParameters returns the parameters a reflection type names: all
// parameters of a reflected function or parameter list, or the single
// reflected parameter.
func (s *Sema) reflectedParameters(t *ast.Type) ([]*ast.Decl, bool) {
	construct, ok := s.Lib.EvaluateReflection(t)
	if !ok || construct.Decl == nil {
		return nil, false
	}
	d := construct.Decl
	kind, _ := s.Lib.ReflectionKind(t)
	switch {
	case kind == ast.MetaParameters, d.IsFunctionOrMethod():
		return d.Params, true
	case d.Kind == ast.DeclParam:
		return []*ast.Decl{d}, true
	}
	return nil, false
}

// ActOnInjectedParameter builds the parameters spliced in by
// `(-> refl name)` in a parameter list. A dependent operand yields one
// parameter of injected-parameter type, expanded when the function is
// instantiated.
func (s *Sema) ActOnInjectedParameter(span source.Span, refl *ast.Expr, name string) ([]*ast.Decl, bool) {
	if refl.IsTypeDependent() {
		p := s.Ctx.NewParam(nil, name, s.Ctx.InjectedParmType(refl, nil), 0, span)
		return []*ast.Decl{p}, true
	}
	parms, ok := s.reflectedParameters(refl.Type)
	if !ok {
		s.invalidParameter(refl)
		return nil, false
	}
	out := make([]*ast.Decl, 0, len(parms))
	for _, orig := range parms {
		p := s.Ctx.NewParam(nil, orig.Name, orig.Type, 0, orig.Span)
		p.Set(ast.FlagInjected, true)
		out = append(out, p)
	}
	return out, true
}

// BuildInjectedParmType builds the type of an injected parameter pack.
func (s *Sema) BuildInjectedParmType(span source.Span, e *ast.Expr) (*ast.Type, bool) {
	if e.IsTypeDependent() {
		return s.Ctx.InjectedParmType(e, nil), true
	}
	if d := e.Referenced(); d != nil {
		d.Set(ast.FlagReferenced, true)
	}
	parms, ok := s.reflectedParameters(e.Type)
	if !ok {
		s.invalidParameter(e)
		return nil, false
	}
	return s.Ctx.InjectedParmType(e, parms), true
}

func (s *Sema) invalidParameter(e *ast.Expr) {
	if b := s.errorf(diag.SemaInvalidInjectedParameter, e.Span, "invalid parameter: %s does not reflect a function or parameter", e.Type); b != nil {
		b.Emit()
	}
}
