package inject

import (
	"errors"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/diag"
	"splice/internal/source"
)

// BuildInjectionStmt builds `-> refl;`. A non-dependent operand must be a
// reflection.
func (s *Sema) BuildInjectionStmt(span source.Span, refl *ast.Expr) (*ast.Stmt, bool) {
	if !refl.IsTypeDependent() && !s.Lib.IsReflectionType(refl.Type) {
		if b := s.errorf(diag.SemaNotAReflection, refl.Span, "expression of type %s is not a reflection", refl.Type); b != nil {
			b.Emit()
		}
		return nil, false
	}
	return ast.NewInjectionStmt(ast.ToRValue(refl), span), true
}

// BuildExtensionStmt builds `-> target : refl;`. A non-dependent target
// must have class type.
func (s *Sema) BuildExtensionStmt(span source.Span, target, refl *ast.Expr) (*ast.Stmt, bool) {
	if !target.IsTypeDependent() && !target.Type.IsRecord() {
		if b := s.errorf(diag.SemaExtendingNonReflection, target.Span, "cannot extend an expression of type %s", target.Type); b != nil {
			b.Emit()
		}
		return nil, false
	}
	return ast.NewExtensionStmt(ast.ToRValue(target), ast.ToRValue(refl), span), true
}

// ActOnInjectionDecl handles `consteval -> refl;` at declaration scope. A
// dependent operand is kept as an injection declaration for later
// instantiation; otherwise the reflected declaration is copied into the
// current context and the copies are returned.
func (s *Sema) ActOnInjectionDecl(span source.Span, refl *ast.Expr) ([]*ast.Decl, bool) {
	if refl.IsTypeDependent() {
		d := s.Ctx.NewInjectionDecl(s.cur, refl, span)
		if s.cur.IsRecord() {
			d.Access = ast.AccessPublic
		}
		s.cur.AddDecl(d)
		return []*ast.Decl{d}, true
	}
	refl = ast.ToRValue(refl)
	injection := s.declFromReflection(refl.Type, refl.Span)
	if injection == nil {
		return nil, false
	}
	op, err := s.Eval.Evaluate(refl)
	if err != nil {
		s.reportNotConstant(refl.Span, err)
		return nil, false
	}
	return s.CopyDeclaration(span, op, injection, s.cur)
}

// reportNotConstant reports a failed evaluation of a reflection operand,
// with a note at the innermost located cause.
func (s *Sema) reportNotConstant(span source.Span, err error) {
	b := s.errorf(diag.SemaNotAReflection, span, "reflection is not a constant expression")
	var ce *consteval.Error
	for e := err; errors.As(e, &ce); e = ce.Err {
		b = b.WithNote(ce.Span, ce.Msg)
	}
	b.Emit()
}
