package inject

import (
	"slices"

	"splice/internal/ast"
	"splice/internal/source"
)

// ActOnFragmentCapture collects the locals a fragment opened at the
// current point captures: initialized variables visible in the scopes of
// the enclosing function, outermost scope first and declaration order
// within a scope. Without an enclosing function the result is empty.
func (s *Sema) ActOnFragmentCapture(span source.Span) []*ast.Expr {
	fn := enclosingFunction(s.cur)
	if fn == nil {
		return nil
	}
	var chain []*Scope
	for sc := s.scope; sc != nil; sc = sc.Parent {
		chain = append(chain, sc)
		if sc.Entity == fn {
			break
		}
	}
	slices.Reverse(chain)

	var captures []*ast.Expr
	for _, sc := range chain {
		for _, d := range sc.Decls {
			// an uninitialized variable would capture itself
			if !d.IsLocalVarOrParm() || d.Init == nil {
				continue
			}
			d.Set(ast.FlagReferenced, true)
			captures = append(captures, ast.ToRValue(ast.NewDeclRef(d, span)))
		}
	}
	return captures
}
