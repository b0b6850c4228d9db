package inject

import (
	"splice/internal/ast"
)

// Scope is one lexical scope. Entity is the function or constexpr block
// whose outermost block the scope is, nil for nested blocks.
type Scope struct {
	Parent *Scope
	Entity *ast.Decl
	Decls  []*ast.Decl
}

// PushScope opens a lexical scope; pop closes it.
func (s *Sema) PushScope(entity *ast.Decl) (pop func()) {
	sc := &Scope{Parent: s.scope, Entity: entity}
	s.scope = sc
	return func() {
		if s.scope != sc {
			panic("inject: scopes closed out of order")
		}
		s.scope = sc.Parent
	}
}

// CurScope returns the innermost lexical scope, or nil.
func (s *Sema) CurScope() *Scope { return s.scope }

// AddToScope makes d visible by name in the innermost scope.
func (s *Sema) AddToScope(d *ast.Decl) {
	if s.scope == nil {
		return
	}
	s.scope.Decls = append(s.scope.Decls, d)
}

// Lookup resolves name the way the front end sees it: lexical scopes
// innermost first, then the members of each enclosing declaration context.
func (s *Sema) Lookup(name string) *ast.Decl {
	name = s.Ctx.Ident(name)
	for sc := s.scope; sc != nil; sc = sc.Parent {
		for i := len(sc.Decls) - 1; i >= 0; i-- {
			if sc.Decls[i].Name == name {
				return sc.Decls[i]
			}
		}
	}
	for c := s.cur; c != nil; c = c.Parent {
		for _, m := range c.Lookup(name) {
			if !m.IsInjectedClassName() {
				return m
			}
		}
		if c.IsFunctionOrMethod() {
			for _, p := range c.Params {
				if p.Name == name {
					return p
				}
			}
		}
	}
	return nil
}

// enclosingFunction returns d or its nearest enclosing function or
// constexpr block.
func enclosingFunction(d *ast.Decl) *ast.Decl {
	for c := d; c != nil && !c.IsFileContext(); c = c.Parent {
		if c.IsCodeContext() {
			return c
		}
	}
	return nil
}
