//nolint:errcheck // test assertions on Data are checked by Kind
package clone_test

import (
	"errors"
	"testing"

	"splice/internal/ast"
	"splice/internal/clone"
	"splice/internal/source"
)

var nowhere = source.Span{}

type mapSubst map[*ast.Decl]*ast.Decl

func (m mapSubst) DeclReplacement(d *ast.Decl) (*ast.Decl, bool) {
	r, ok := m[d]
	return r, ok
}

func (mapSubst) PlaceholderReplacement(*ast.Expr) (*ast.Expr, bool) { return nil, false }

func record(c *ast.Context, name string) *ast.Decl {
	rec := c.NewRecord(c.TU, name, nowhere, false)
	c.StartDefinition(rec)
	c.TU.AddDecl(rec)
	return rec
}

func field(c *ast.Context, rec *ast.Decl, name string, init *ast.Expr) *ast.Decl {
	f := c.NewField(rec, name, c.Int, nowhere)
	f.Access = ast.AccessPublic
	f.Init = init
	rec.AddDecl(f)
	return f
}

// getter adds `int name() { return target; }` to rec.
func getter(c *ast.Context, rec *ast.Decl, name string, target *ast.Decl) *ast.Decl {
	fn := c.NewFunction(ast.DeclMethod, rec, name, c.Int, nil, nowhere)
	fn.Access = ast.AccessPublic
	fn.Body = ast.NewCompound(nowhere, ast.NewReturn(ast.ToRValue(ast.NewDeclRef(target, nowhere)), nowhere))
	rec.AddDecl(fn)
	return fn
}

func returned(fn *ast.Decl) *ast.Decl {
	ret := fn.Body.Data.(ast.CompoundData).Stmts[0]
	return ret.Data.(ast.ReturnData).X.Referenced()
}

func TestCopyMethodResolvesMembersOfNewOwner(t *testing.T) {
	c := ast.NewContext()
	a := record(c, "A")
	ay := field(c, a, "y", nil)
	f := getter(c, a, "f", ay)
	b := record(c, "B")
	by := field(c, b, "y", nil)

	cl := clone.New(c, clone.Options{})
	nf, err := cl.CloneDecl(f, b, mapSubst{a: b})
	if err != nil {
		t.Fatalf("CloneDecl: %v", err)
	}
	if nf.Parent != b || nf.Pattern != f {
		t.Fatal("clone has wrong parent or pattern")
	}
	if got := returned(nf); got != by {
		t.Fatalf("body refers to %v, want B::y", got)
	}
	if returned(f) != ay {
		t.Fatal("pattern was modified")
	}
}

func TestForwardReferencesArePatchedOnFinish(t *testing.T) {
	c := ast.NewContext()
	content := record(c, "")
	z := c.NewField(content, "z", c.Int, nowhere)
	getter(c, content, "get", z)
	content.AddDecl(z)
	injectee := record(c, "I")

	in := clone.New(c, clone.Options{}).NewInstantiation(mapSubst{content: injectee})
	for _, m := range content.Members {
		if m.IsInjectedClassName() {
			continue
		}
		nm, err := in.CloneDecl(m, injectee)
		if err != nil {
			t.Fatalf("CloneDecl(%s): %v", m.Name, err)
		}
		injectee.AddDecl(nm)
	}
	if err := in.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	get := injectee.Lookup("get")[0]
	iz := injectee.Lookup("z")[0]
	if returned(get) != iz {
		t.Fatal("forward reference not patched to the injected field")
	}
}

func TestUnresolvedReference(t *testing.T) {
	c := ast.NewContext()
	a := record(c, "A")
	ay := field(c, a, "y", nil)
	f := getter(c, a, "f", ay)
	b := record(c, "B")

	_, err := clone.New(c, clone.Options{}).CloneDecl(f, b, mapSubst{a: b})
	var cerr *clone.Error
	if !errors.As(err, &cerr) || cerr.Kind != clone.ErrUnresolved {
		t.Fatalf("expected unresolved reference, got %v", err)
	}
}

func TestRedefinition(t *testing.T) {
	c := ast.NewContext()
	a := record(c, "A")
	x := field(c, a, "x", nil)
	b := record(c, "B")
	prev := field(c, b, "x", nil)

	_, err := clone.New(c, clone.Options{}).CloneDecl(x, b, mapSubst{a: b})
	var cerr *clone.Error
	if !errors.As(err, &cerr) || cerr.Kind != clone.ErrRedefinition || cerr.Prev != prev {
		t.Fatalf("expected redefinition of B::x, got %v", err)
	}
}

func TestCloneFieldAsStatic(t *testing.T) {
	c := ast.NewContext()
	a := record(c, "A")
	x := field(c, a, "x", ast.NewIntLit(c, 4, nowhere))
	b := record(c, "B")

	in := clone.New(c, clone.Options{}).NewInstantiation(mapSubst{a: b})
	v, err := in.CloneFieldAsStatic(x, b)
	if err != nil {
		t.Fatalf("CloneFieldAsStatic: %v", err)
	}
	b.AddDecl(v)
	if err := in.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if v.Kind != ast.DeclVar || v.Storage != ast.StorageStatic || v.Name != "x" || v.Type != c.Int {
		t.Fatalf("unexpected static member: %+v", ast.Snap(v))
	}
	if v.Init == nil || v.Init == x.Init {
		t.Fatal("initializer must be translated, not shared")
	}
	if len(b.Fields()) != 0 {
		t.Fatal("static member is part of the instance layout")
	}
}

func TestLazyBodies(t *testing.T) {
	c := ast.NewContext()
	a := record(c, "A")
	ay := field(c, a, "y", nil)
	f := getter(c, a, "f", ay)
	b := record(c, "B")
	by := field(c, b, "y", nil)

	cl := clone.New(c, clone.Options{LazyBodies: true})
	nf, err := cl.CloneDecl(f, b, mapSubst{a: b})
	if err != nil {
		t.Fatalf("CloneDecl: %v", err)
	}
	if nf.Body != nil || cl.PendingCount() != 1 {
		t.Fatalf("body should be deferred (pending=%d)", cl.PendingCount())
	}
	if err := cl.InstantiateFunctionDefinition(nf); err != nil {
		t.Fatalf("InstantiateFunctionDefinition: %v", err)
	}
	if nf.Body == nil || cl.PendingCount() != 0 {
		t.Fatal("body not instantiated")
	}
	if returned(nf) != by {
		t.Fatal("lazily instantiated body lost its substitution")
	}
}

func TestClonesShareNoNodes(t *testing.T) {
	c := ast.NewContext()
	a := record(c, "A")
	x := field(c, a, "x", ast.NewIntLit(c, 1, nowhere))
	b1 := record(c, "B1")
	b2 := record(c, "B2")
	cl := clone.New(c, clone.Options{})
	n1, err1 := cl.CloneDecl(x, b1, mapSubst{a: b1})
	n2, err2 := cl.CloneDecl(x, b2, mapSubst{a: b2})
	if err1 != nil || err2 != nil {
		t.Fatalf("clone errors: %v %v", err1, err2)
	}
	if n1 == n2 || n1.Init == n2.Init {
		t.Fatal("two clones share nodes")
	}
}
