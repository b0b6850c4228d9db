package inject

import (
	"fmt"

	"splice/internal/ast"
	"splice/internal/consteval"
)

// InjectionContext is the substitution environment of one injection.
// It implements clone.Substitution.
type InjectionContext struct {
	Injectee *ast.Decl

	decls        map[*ast.Decl]*ast.Decl
	placeholders map[*ast.Decl]consteval.Operand
}

// AddDeclSubstitution redirects references to orig toward repl. Each
// declaration may be substituted once per context.
func (ic *InjectionContext) AddDeclSubstitution(orig, repl *ast.Decl) {
	if _, dup := ic.decls[orig]; dup {
		panic(fmt.Sprintf("inject: %s substituted twice in one injection", describeDecl(orig)))
	}
	ic.decls[orig] = repl
}

// AddPlaceholderSubstitutions binds the placeholders of frag to the
// captured values. Placeholder i pairs with field i of class, the
// fragment class the values were built with, and with fields[i].
func (ic *InjectionContext) AddPlaceholderSubstitutions(frag, class *ast.Decl, fields []ast.Value) {
	placeholders := frag.Placeholders()
	layout := class.Fields()
	if len(placeholders) != len(layout) || len(placeholders) != len(fields) {
		panic(fmt.Sprintf("inject: %d placeholders, %d capture fields, %d captured values",
			len(placeholders), len(layout), len(fields)))
	}
	for i, ph := range placeholders {
		ic.placeholders[ph] = consteval.Operand{Type: layout[i].Type, Value: fields[i]}
	}
}

func (ic *InjectionContext) DeclReplacement(d *ast.Decl) (*ast.Decl, bool) {
	r, ok := ic.decls[d]
	return r, ok
}

// PlaceholderReplacement turns a reference to a bound placeholder into a
// constant carrying the captured type and value. The result is a new tree;
// ref stays with the fragment.
func (ic *InjectionContext) PlaceholderReplacement(ref *ast.Expr) (*ast.Expr, bool) {
	d := ref.Referenced()
	if d == nil {
		return nil, false
	}
	op, ok := ic.placeholders[d]
	if !ok {
		return nil, false
	}
	src := ast.NewDeclRef(d, ref.Span)
	return ast.NewConstant(ast.NewOpaque(op.Type, ref.Span, src), op.Value.Clone()), true
}

// ContextStack is the chain of active injection contexts. Lookups go to
// the context handed out by Push; outer contexts are never consulted.
type ContextStack struct {
	items []*InjectionContext
}

// Push opens a context for injectee. pop must run before the enclosing
// context is popped.
func (cs *ContextStack) Push(injectee *ast.Decl) (ic *InjectionContext, pop func()) {
	ic = &InjectionContext{
		Injectee:     injectee,
		decls:        make(map[*ast.Decl]*ast.Decl),
		placeholders: make(map[*ast.Decl]consteval.Operand),
	}
	cs.items = append(cs.items, ic)
	return ic, func() {
		n := len(cs.items)
		if n == 0 || cs.items[n-1] != ic {
			panic("inject: injection contexts popped out of order")
		}
		cs.items = cs.items[:n-1]
	}
}

// Current returns the innermost context, or nil.
func (cs *ContextStack) Current() *InjectionContext {
	if len(cs.items) == 0 {
		return nil
	}
	return cs.items[len(cs.items)-1]
}

func (cs *ContextStack) Depth() int { return len(cs.items) }
