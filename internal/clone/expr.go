//nolint:errcheck // Data assertions are checked by Kind
package clone

import (
	"splice/internal/ast"
)

func (in *Instantiation) cloneExprs(es []*ast.Expr) []*ast.Expr {
	if es == nil {
		return nil
	}
	out := make([]*ast.Expr, len(es))
	for i, e := range es {
		out[i] = in.cloneExpr(e)
	}
	return out
}

func (in *Instantiation) cloneExpr(e *ast.Expr) *ast.Expr {
	if e == nil {
		return nil
	}
	out := &ast.Expr{
		Kind:      e.Kind,
		Type:      in.substType(e.Type),
		Span:      e.Span,
		Category:  e.Category,
		Dependent: e.Dependent,
	}
	switch e.Kind {
	case ast.ExprIntLit, ast.ExprBoolLit:
		out.Data = e.Data
	case ast.ExprDeclRef:
		if repl, ok := in.subst.PlaceholderReplacement(e); ok {
			return repl
		}
		d := e.Data.(ast.DeclRefData).Decl
		nd := in.resolveDecl(d, out, func(r *ast.Decl) {
			out.Data = ast.DeclRefData{Decl: r}
			out.Type = r.Type
		})
		out.Data = ast.DeclRefData{Decl: nd}
		if nd != d {
			out.Type = nd.Type
		}
	case ast.ExprImplicitCast:
		data := e.Data.(ast.ImplicitCastData)
		sub := in.cloneExpr(data.Sub)
		out.Data = ast.ImplicitCastData{Cast: data.Cast, Sub: sub}
		out.Type = sub.Type
		out.Dependent = sub.Dependent
	case ast.ExprOpaque:
		out.Data = ast.OpaqueData{Source: in.cloneExpr(e.Data.(ast.OpaqueData).Source)}
	case ast.ExprConstant:
		data := e.Data.(ast.ConstantData)
		out.Data = ast.ConstantData{Sub: in.cloneExpr(data.Sub), Value: data.Value.Clone()}
	case ast.ExprConstruct:
		data := e.Data.(ast.ConstructData)
		nd := ast.ConstructData{Args: in.cloneExprs(data.Args), List: data.List}
		nd.Ctor = in.resolveDecl(data.Ctor, out, func(r *ast.Decl) {
			cd := out.Data.(ast.ConstructData)
			cd.Ctor = r
			out.Data = cd
		})
		out.Data = nd
	case ast.ExprFunctionalCast:
		out.Data = ast.FunctionalCastData{Sub: in.cloneExpr(e.Data.(ast.FunctionalCastData).Sub)}
	case ast.ExprTemporaryObject:
		data := e.Data.(ast.TemporaryObjectData)
		nd := ast.TemporaryObjectData{Args: in.cloneExprs(data.Args)}
		nd.Ctor = in.resolveDecl(data.Ctor, out, func(r *ast.Decl) {
			td := out.Data.(ast.TemporaryObjectData)
			td.Ctor = r
			out.Data = td
		})
		out.Data = nd
	case ast.ExprParenList:
		out.Data = ast.ParenListData{Exprs: in.cloneExprs(e.Data.(ast.ParenListData).Exprs)}
	case ast.ExprFragment:
		data := e.Data.(ast.FragmentData)
		out.Data = ast.FragmentData{
			Captures: in.cloneExprs(data.Captures),
			Fragment: data.Fragment,
			Init:     in.cloneExpr(data.Init),
		}
	case ast.ExprReflect:
		construct := e.Data.(ast.ReflectData).Construct
		moved := construct
		if construct.Decl != nil {
			moved.Decl = in.resolveDecl(construct.Decl, out, func(r *ast.Decl) {
				rd := out.Data.(ast.ReflectData)
				rd.Construct.Decl = r
				out.Data = rd
				if in.c.Hooks != nil {
					out.Type = in.c.Hooks.ReflectionType(rd.Construct)
				}
			})
		}
		if construct.Type != nil {
			moved.Type = in.substType(construct.Type)
		}
		if moved != construct && in.c.Hooks != nil {
			out.Type = in.c.Hooks.ReflectionType(moved)
		}
		out.Data = ast.ReflectData{Construct: moved}
	case ast.ExprBinary:
		data := e.Data.(ast.BinaryData)
		l, r := in.cloneExpr(data.L), in.cloneExpr(data.R)
		out.Data = ast.BinaryData{Op: data.Op, L: l, R: r}
		if out.Type.IsDependent() && !l.Type.IsDependent() {
			out.Type = l.Type
		}
		out.Dependent = l.IsTypeDependent() || r.IsTypeDependent()
	case ast.ExprCall:
		data := e.Data.(ast.CallData)
		out.Data = ast.CallData{Callee: in.cloneExpr(data.Callee), Args: in.cloneExprs(data.Args)}
	default:
		out.Data = e.Data
	}
	return out
}
