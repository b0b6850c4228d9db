//nolint:errcheck // Data assertions are checked by Kind
package clone

import (
	"splice/internal/ast"
)

// cloneStmt copies s; local declarations are re-parented to fn.
func (in *Instantiation) cloneStmt(s *ast.Stmt, fn *ast.Decl) *ast.Stmt {
	if s == nil {
		return nil
	}
	out := &ast.Stmt{Kind: s.Kind, Span: s.Span}
	switch s.Kind {
	case ast.StmtCompound:
		stmts := s.Data.(ast.CompoundData).Stmts
		cloned := make([]*ast.Stmt, len(stmts))
		for i, st := range stmts {
			cloned[i] = in.cloneStmt(st, fn)
		}
		out.Data = ast.CompoundData{Stmts: cloned}
	case ast.StmtDecl:
		decls := s.Data.(ast.DeclStmtData).Decls
		cloned := make([]*ast.Decl, 0, len(decls))
		for _, d := range decls {
			nd, err := in.cloneDecl(d, fn)
			if err != nil {
				in.errs = append(in.errs, err)
				continue
			}
			cloned = append(cloned, nd)
		}
		out.Data = ast.DeclStmtData{Decls: cloned}
	case ast.StmtExpr:
		out.Data = ast.ExprStmtData{X: in.cloneExpr(s.Data.(ast.ExprStmtData).X)}
	case ast.StmtReturn:
		out.Data = ast.ReturnData{X: in.cloneExpr(s.Data.(ast.ReturnData).X)}
	case ast.StmtInjection:
		out.Data = ast.InjectionData{Reflection: in.cloneExpr(s.Data.(ast.InjectionData).Reflection)}
	case ast.StmtExtension:
		data := s.Data.(ast.ExtensionData)
		out.Data = ast.ExtensionData{Target: in.cloneExpr(data.Target), Reflection: in.cloneExpr(data.Reflection)}
	case ast.StmtPrint:
		out.Data = ast.PrintData{Arg: in.cloneExpr(s.Data.(ast.PrintData).Arg)}
	default:
		out.Data = s.Data
	}
	return out
}
