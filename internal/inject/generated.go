package inject

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

// ActOnGeneratedTypeDecl declares a class generated from a prototype:
//
//	class name {
//	  using prototype = <reflected type>;
//	  constexpr { generator($name, refl); }
//	};
//
// The generator runs while the class is being defined, so its injections
// become members of the class.
func (s *Sema) ActOnGeneratedTypeDecl(span source.Span, isClass bool, name string, generator, refl *ast.Expr) (*ast.Decl, bool) {
	proto, ok := s.reflectedType(refl)
	if !ok {
		return nil, false
	}

	class := s.Ctx.NewRecord(s.cur, name, span, !isClass)
	class.Set(ast.FlagImplicit, true)
	if s.cur.IsRecord() {
		class.Access = ast.AccessPublic
	}
	s.cur.AddDecl(class)
	s.Ctx.StartDefinition(class)
	s.PushDeclContext(class)

	alias := s.Ctx.NewTypeAlias(class, "prototype", proto, span)
	alias.Set(ast.FlagImplicit, true)
	alias.Access = ast.AccessPublic
	class.AddDecl(alias)

	cd := s.ActOnConstexprDecl(span)
	cd.Set(ast.FlagImplicit, true)
	self := s.Lib.Reflect(ast.Reflected{Decl: class}, span)
	call := ast.NewCall(generator, []*ast.Expr{self, ast.ToRValue(refl)}, s.Ctx.Void, span)
	ok = s.ActOnFinishConstexprDecl(cd, ast.NewCompound(span, ast.NewExprStmt(call)))

	s.Ctx.CompleteDefinition(class)
	s.PopDeclContext(class)
	return class, ok
}

// reflectedType is the type a reflection operand denotes: the reflected
// type, or the type of a reflected class declaration.
func (s *Sema) reflectedType(refl *ast.Expr) (*ast.Type, bool) {
	if refl.IsTypeDependent() {
		return s.Ctx.Dependent, true
	}
	construct, ok := s.Lib.EvaluateReflection(refl.Type)
	if !ok {
		if b := s.errorf(diag.SemaNotAReflection, refl.Span, "expression of type %s is not a reflection", refl.Type); b != nil {
			b.Emit()
		}
		return nil, false
	}
	if construct.Type != nil {
		return construct.Type, true
	}
	if d := construct.Decl; d.IsRecord() {
		return d.Type, true
	}
	if b := s.errorf(diag.SemaReflectionNotADecl, refl.Span, "%s does not name a type", construct); b != nil {
		b.Emit()
	}
	return nil, false
}
