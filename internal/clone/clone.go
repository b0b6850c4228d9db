// Package clone copies declarations into new contexts, rewriting
// references through a Substitution.
package clone

import (
	"errors"
	"fmt"
	"slices"

	"splice/internal/ast"
)

// Substitution redirects references while cloning.
type Substitution interface {
	// DeclReplacement maps a declaration (typically a context) to its
	// counterpart on the injectee side.
	DeclReplacement(d *ast.Decl) (*ast.Decl, bool)
	// PlaceholderReplacement replaces a reference to a placeholder with the
	// value it stands for.
	PlaceholderReplacement(ref *ast.Expr) (*ast.Expr, bool)
}

// NoSubstitution rewrites nothing beyond the clone's own declarations.
type NoSubstitution struct{}

func (NoSubstitution) DeclReplacement(*ast.Decl) (*ast.Decl, bool) { return nil, false }

func (NoSubstitution) PlaceholderReplacement(*ast.Expr) (*ast.Expr, bool) { return nil, false }

// Hooks connect the cloner to semantic analysis.
type Hooks interface {
	// Deferred runs a cloned constexpr block or injection declaration
	// once the surrounding instantiation is complete.
	Deferred(d *ast.Decl) error
	// ExpandParameters resolves an injected parameter pack.
	ExpandParameters(t *ast.Type) ([]*ast.Decl, error)
	// ReflectionType re-encodes a reflection whose construct moved.
	ReflectionType(r ast.Reflected) *ast.Type
}

type Options struct {
	// LazyBodies defers non-constexpr function bodies until
	// InstantiateFunctionDefinition or PerformPendingInstantiations.
	LazyBodies bool
}

// Cloner is the substitution engine. It keeps the queue of function
// bodies whose instantiation was deferred.
type Cloner struct {
	Ctx   *ast.Context
	Opts  Options
	Hooks Hooks

	pending []pendingBody
}

type pendingBody struct {
	fn   *ast.Decl
	inst *Instantiation
}

func New(ctx *ast.Context, opts Options) *Cloner {
	return &Cloner{Ctx: ctx, Opts: opts}
}

// Instantiation is one local instantiation scope: declarations cloned
// through it see each other, and references that could not be resolved
// yet are patched by Finish.
type Instantiation struct {
	c        *Cloner
	subst    Substitution
	locals   map[*ast.Decl]*ast.Decl
	fixups   []fixup
	deferred []*ast.Decl
	errs     []error
}

type fixup struct {
	orig  *ast.Decl
	scope *ast.Decl
	ref   *ast.Expr
	patch func(*ast.Decl)
}

func (c *Cloner) NewInstantiation(subst Substitution) *Instantiation {
	if subst == nil {
		subst = NoSubstitution{}
	}
	return &Instantiation{c: c, subst: subst, locals: make(map[*ast.Decl]*ast.Decl)}
}

// CloneDecl clones d into owner within a single instantiation.
func (c *Cloner) CloneDecl(d, owner *ast.Decl, subst Substitution) (*ast.Decl, error) {
	in := c.NewInstantiation(subst)
	nd, err := in.CloneDecl(d, owner)
	if err != nil {
		return nil, err
	}
	if err := in.Finish(); err != nil {
		return nd, err
	}
	return nd, nil
}

// Instantiated returns the clone of d made by this instantiation.
func (in *Instantiation) Instantiated(d *ast.Decl) (*ast.Decl, bool) {
	nd, ok := in.locals[d]
	return nd, ok
}

// CloneDecl clones d with owner as its semantic parent. The clone is not
// added to owner.
func (in *Instantiation) CloneDecl(d, owner *ast.Decl) (*ast.Decl, error) {
	nd, err := in.cloneDecl(d, owner)
	if err != nil {
		return nil, err
	}
	if prev := Redefinition(owner, nd); prev != nil {
		return nil, &Error{Kind: ErrRedefinition, Span: d.Span, Prev: prev, Msg: fmt.Sprintf("redefinition of %q", nd.Name)}
	}
	return nd, nil
}

// CloneFieldAsStatic rewrites field f as a static member variable of
// owner keeping its name, type and initializer.
func (in *Instantiation) CloneFieldAsStatic(f, owner *ast.Decl) (*ast.Decl, error) {
	if f.Kind != ast.DeclField {
		return nil, &Error{Kind: ErrUnsupported, Span: f.Span, Msg: fmt.Sprintf("%s %q is not a field", f.Kind, f.Name)}
	}
	if f.IsInvalid() {
		return nil, &Error{Kind: ErrInvalidDecl, Span: f.Span, Msg: fmt.Sprintf("field %q is invalid", f.Name)}
	}
	nd := &ast.Decl{
		Kind:    ast.DeclVar,
		Name:    f.Name,
		Span:    f.Span,
		Parent:  owner,
		Access:  f.Access,
		Storage: ast.StorageStatic,
		Flags:   f.Flags &^ (ast.FlagReferenced | ast.FlagUsed),
		Pattern: f,
	}
	in.locals[f] = nd
	nd.Type = in.substType(f.Type)
	nd.Init = in.cloneExpr(f.Init)
	if prev := Redefinition(owner, nd); prev != nil {
		return nil, &Error{Kind: ErrRedefinition, Span: f.Span, Prev: prev, Msg: fmt.Sprintf("redefinition of %q", nd.Name)}
	}
	return nd, nil
}

// Finish patches forward references, then runs deferred constexpr blocks
// and injections. Call it after the clones were added to their owners.
func (in *Instantiation) Finish() error {
	fixups := in.fixups
	in.fixups = nil
	for _, f := range fixups {
		nd := lookupLike(f.scope, f.orig)
		if nd == nil {
			in.errs = append(in.errs, &Error{
				Kind: ErrUnresolved,
				Span: f.ref.Span,
				Msg:  fmt.Sprintf("no member named %q in %s", f.orig.Name, describe(f.scope)),
			})
			continue
		}
		if f.patch != nil {
			f.patch(nd)
		}
	}
	deferred := in.deferred
	in.deferred = nil
	if in.c.Hooks != nil {
		for _, d := range deferred {
			if err := in.c.Hooks.Deferred(d); err != nil {
				d.SetInvalid(true)
				in.errs = append(in.errs, &Error{Kind: ErrDeferred, Span: d.Span, Msg: fmt.Sprintf("in %s", d.Kind), Err: err})
			}
		}
	}
	errs := in.errs
	in.errs = nil
	return errors.Join(errs...)
}

func describe(d *ast.Decl) string {
	if name := d.QualifiedName(); name != "" {
		return fmt.Sprintf("%s %q", d.Kind, name)
	}
	return d.Kind.String()
}

// InstantiateFunctionDefinition gives fn the body of its pattern if the
// body was deferred. It is a no-op for functions that already have one.
func (c *Cloner) InstantiateFunctionDefinition(fn *ast.Decl) error {
	if fn.Body != nil {
		return nil
	}
	var in *Instantiation
	if i := slices.IndexFunc(c.pending, func(p pendingBody) bool { return p.fn == fn }); i >= 0 {
		in = c.pending[i].inst
		c.pending = slices.Delete(c.pending, i, i+1)
	}
	pat := fn.Pattern
	if pat == nil || pat.Body == nil {
		return nil
	}
	if in == nil {
		in = c.NewInstantiation(nil)
		if len(pat.Params) == len(fn.Params) {
			for i, p := range pat.Params {
				in.locals[p] = fn.Params[i]
			}
		}
	}
	in.locals[pat] = fn
	fn.Body = in.cloneStmt(pat.Body, fn)
	return in.Finish()
}

// PendingCount reports deferred function bodies.
func (c *Cloner) PendingCount() int { return len(c.pending) }

// PerformPendingInstantiations instantiates every deferred body.
func (c *Cloner) PerformPendingInstantiations() error {
	var errs []error
	for len(c.pending) > 0 {
		fn := c.pending[0].fn
		if err := c.InstantiateFunctionDefinition(fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Redefinition returns the member of owner that nd would redefine.
// Namespaces reopen, functions overload on type and may be redeclared
// while at most one declaration is a definition.
func Redefinition(owner, nd *ast.Decl) *ast.Decl {
	if owner == nil || nd.Name == "" {
		return nil
	}
	for _, m := range owner.Members {
		if m == nd || m.Name != nd.Name || m.IsInjectedClassName() {
			continue
		}
		switch {
		case m.IsNamespace() && nd.IsNamespace():
			continue
		case m.IsFunctionOrMethod() && nd.IsFunctionOrMethod():
			if m.Kind == nd.Kind && ast.SameType(m.Type, nd.Type) && m.IsDefined() && nd.IsDefined() {
				return m
			}
			continue
		case m.IsRecord() && nd.IsRecord():
			if m.Has(ast.FlagComplete) && nd.Has(ast.FlagComplete) {
				return m
			}
			continue
		}
		return m
	}
	return nil
}

func lookupLike(scope, d *ast.Decl) *ast.Decl {
	var fallback *ast.Decl
	for _, m := range scope.Lookup(d.Name) {
		if m.IsInjectedClassName() {
			continue
		}
		switch {
		case d.IsFunctionOrMethod() && m.IsFunctionOrMethod():
			if ast.SameType(m.Type, d.Type) {
				return m
			}
			if fallback == nil {
				fallback = m
			}
		case d.Kind == m.Kind, d.Kind == ast.DeclField && m.Kind == ast.DeclVar:
			return m
		}
	}
	return fallback
}
