package inject

import (
	"fmt"
	"slices"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/source"
)

const (
	capturedPrefix = "__captured_"
	parmPrefix     = "__parm_"
)

// ActOnStartFragment opens a fragment in the current context. Each
// capture gets a placeholder, in capture order, and the fragment becomes
// the current context until ActOnFinishFragment. The fragment is not
// added to its parent.
func (s *Sema) ActOnStartFragment(captures []*ast.Expr, span source.Span) *ast.Decl {
	frag := s.Ctx.NewFragment(s.cur, span)
	for i, c := range captures {
		s.addPlaceholder(frag, captureName(c, i), c.Span)
	}
	s.PushDeclContext(frag)
	return frag
}

// addPlaceholder declares the stand-in for one captured value. Its type
// stays dependent and its opaque initializer is never evaluated.
func (s *Sema) addPlaceholder(frag *ast.Decl, name string, span source.Span) *ast.Decl {
	ph := s.Ctx.NewVar(frag, name, s.Ctx.Dependent, ast.StorageStatic, span)
	ph.Set(ast.FlagConstexpr|ast.FlagImplicit|ast.FlagReferenced|ast.FlagUsed, true)
	ph.Init = ast.NewOpaque(s.Ctx.Dependent, span, nil)
	frag.AddDecl(ph)
	return ph
}

// ActOnFinishFragment attaches content, the single record or namespace
// the fragment wraps, and leaves the fragment context.
func (s *Sema) ActOnFinishFragment(frag, content *ast.Decl) *ast.Decl {
	if content != nil {
		if !content.IsRecord() && !content.IsNamespace() {
			panic(fmt.Sprintf("inject: fragment content must be a record or namespace, got %s", content.Kind))
		}
		frag.Content = content
		if !slices.Contains(frag.Members, content) {
			frag.AddDecl(content)
		}
	}
	s.PopDeclContext(frag)
	return frag
}

// BuildFragmentExpr builds the value of a fragment literal: an object of
// a synthesized class deriving from the reflection of the content, with
// one field per capture initialized by a constexpr constructor. Inside a
// dependent context the expression stays dependent and nothing is
// synthesized.
func (s *Sema) BuildFragmentExpr(span source.Span, captures []*ast.Expr, frag *ast.Decl) (*ast.Expr, bool) {
	if s.cur.IsDependentContext() {
		return ast.NewFragmentExpr(s.Ctx.Dependent, captures, frag, nil, span), true
	}
	if frag.Content == nil {
		if b := s.errorf(diag.SemaReflectionNotADecl, span, "fragment has no content"); b != nil {
			b.Emit()
		}
		return nil, false
	}
	base := s.Lib.ReflectionType(ast.Reflected{Decl: frag.Content})
	class, ctor := s.buildFragmentClass(span, base, captures)
	ty := class.Type

	var init *ast.Expr
	if len(captures) == 1 {
		// T(x) would read as a conversion; keep the constructor call explicit
		init = ast.NewFunctionalCast(ty, ast.NewConstruct(ty, ctor, captures, span), span)
	} else {
		init = ast.NewTemporaryObject(ty, ctor, captures, span)
	}
	return ast.NewFragmentExpr(ty, captures, frag, init, span), true
}

// buildFragmentClass synthesizes
//
//	class : public <base> {
//	  T __captured_x; ...
//	  explicit constexpr (T __parm_x, ...) : <base>(), __captured_x(__parm_x), ... {}
//	};
//
// The class is not added to any context.
func (s *Sema) buildFragmentClass(span source.Span, base *ast.Type, captures []*ast.Expr) (class, ctor *ast.Decl) {
	class = s.Ctx.NewRecord(s.cur, "", span, false)
	class.Set(ast.FlagImplicit|ast.FlagFragmentClass, true)
	s.Ctx.StartDefinition(class)
	class.Bases = []ast.BaseSpec{{Type: base, Access: ast.AccessPublic, Span: span}}

	fields := make([]*ast.Decl, len(captures))
	params := make([]*ast.Decl, len(captures))
	for i, c := range captures {
		name := captureName(c, i)
		f := s.Ctx.NewField(class, capturedPrefix+name, c.Type, c.Span)
		f.Access = ast.AccessPublic
		f.Set(ast.FlagImplicit, true)
		class.AddDecl(f)
		fields[i] = f
		params[i] = s.Ctx.NewParam(nil, parmPrefix+name, c.Type, i, c.Span)
	}

	ctor = s.Ctx.NewFunction(ast.DeclConstructor, class, "", nil, params, span)
	ctor.Access = ast.AccessPublic
	ctor.Set(ast.FlagImplicit|ast.FlagConstexpr|ast.FlagExplicit|ast.FlagInline, true)
	ctor.Inits = append(ctor.Inits, ast.CtorInit{Base: base, Init: ast.NewParenList(base, nil, span)})
	for i, f := range fields {
		ref := ast.ToRValue(ast.NewDeclRef(params[i], span))
		ctor.Inits = append(ctor.Inits, ast.CtorInit{Field: f, Init: ast.NewParenList(f.Type, []*ast.Expr{ref}, span)})
	}
	ctor.Body = ast.NewCompound(span)
	class.AddDecl(ctor)
	s.Ctx.CompleteDefinition(class)
	return class, ctor
}

// captureName is the name of the captured variable, or its position when
// the capture is not a plain variable reference.
func captureName(e *ast.Expr, i int) string {
	if d := e.Referenced(); d != nil && d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("%d", i)
}
