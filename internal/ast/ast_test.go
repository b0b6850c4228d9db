package ast_test

import (
	"bytes"
	"strings"
	"testing"

	"splice/internal/ast"
	"splice/internal/source"
)

var nowhere = source.Span{}

func newStruct(c *ast.Context, parent *ast.Decl, name string) *ast.Decl {
	rec := c.NewRecord(parent, name, nowhere, true)
	c.StartDefinition(rec)
	return rec
}

func addField(c *ast.Context, rec *ast.Decl, name string) *ast.Decl {
	f := c.NewField(rec, name, c.Int, nowhere)
	f.Access = ast.AccessPublic
	rec.AddDecl(f)
	return f
}

func TestFindFieldWalksPrimaryBases(t *testing.T) {
	c := ast.NewContext()
	base := newStruct(c, c.TU, "A")
	addField(c, base, "a")
	c.CompleteDefinition(base)

	derived := newStruct(c, c.TU, "B")
	derived.Bases = []ast.BaseSpec{{Type: base.Type, Access: ast.AccessPublic}}
	addField(c, derived, "b")
	c.CompleteDefinition(derived)

	path, ok := ast.FindField(derived, "a")
	if !ok {
		t.Fatal("expected to find inherited field")
	}
	if len(path.Bases) != 1 || path.Field != 0 {
		t.Fatalf("unexpected path %+v", path)
	}

	v := ast.StructValue(
		[]ast.Value{ast.StructValue(nil, []ast.Value{ast.IntValue(1)})},
		[]ast.Value{ast.IntValue(2)},
	)
	got, ok := v.At(path)
	if !ok || got.AsInt() != 1 {
		t.Fatalf("At(a) = %v, %v", got, ok)
	}
	if !v.SetAt(path, ast.IntValue(7)) {
		t.Fatal("SetAt failed")
	}
	if got, _ := v.At(path); got.AsInt() != 7 {
		t.Fatalf("after SetAt: %v", got)
	}

	if _, ok := ast.FindField(derived, "missing"); ok {
		t.Fatal("found a field that does not exist")
	}
	if _, ok := ast.FindField(c.TU, "a"); ok {
		t.Fatal("non-record must not report fields")
	}
}

func TestValueCloneIsDeep(t *testing.T) {
	v := ast.StructValue(nil, []ast.Value{ast.IntValue(1), ast.BoolValue(true)})
	cp := v.Clone()
	cp.Fields[0] = ast.IntValue(9)
	if v.StructField(0).AsInt() != 1 {
		t.Fatal("clone shares field storage with the original")
	}
	if v.String() != "{1, true}" {
		t.Fatalf("String() = %q", v.String())
	}
}

func TestFieldLayoutTracksMembers(t *testing.T) {
	c := ast.NewContext()
	rec := newStruct(c, c.TU, "S")
	x := addField(c, rec, "x")
	y := addField(c, rec, "y")
	if n := len(rec.Fields()); n != 2 {
		t.Fatalf("expected 2 fields, got %d", n)
	}
	before := rec.Version()
	rec.RemoveDecl(x)
	if rec.Version() == before {
		t.Fatal("RemoveDecl did not notify the record")
	}
	if fs := rec.Fields(); len(fs) != 1 || fs[0] != y {
		t.Fatalf("stale layout: %v", fs)
	}
	if y.FieldIndex() != 0 {
		t.Fatalf("FieldIndex = %d", y.FieldIndex())
	}
}

func TestInjectedClassNameIsImplicit(t *testing.T) {
	c := ast.NewContext()
	rec := newStruct(c, c.TU, "S")
	icn := rec.InjectedClassName()
	if icn == nil || !icn.IsImplicit() || icn.Type.RecordDecl() != rec {
		t.Fatalf("bad injected class name: %+v", icn)
	}
	if len(ast.Snap(rec).Members) != 0 {
		t.Fatal("snapshot should drop the injected class name")
	}
}

func TestPrintRecord(t *testing.T) {
	c := ast.NewContext()
	rec := newStruct(c, c.TU, "Point")
	addField(c, rec, "x")
	fn := c.NewFunction(ast.DeclMethod, rec, "f", nil, nil, nowhere)
	fn.Access = ast.AccessPublic
	fn.Set(ast.FlagVirtual|ast.FlagPure, true)
	rec.AddDecl(fn)
	c.CompleteDefinition(rec)
	c.TU.AddDecl(rec)

	want := "struct Point {\n  int x;\n  virtual void f() = 0;\n};"
	if got := ast.DeclString(rec); got != want {
		t.Fatalf("DeclString:\n%s\nwant:\n%s", got, want)
	}

	var buf bytes.Buffer
	if err := ast.Dump(&buf, c.TU, ast.PrintOptions{}); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "struct Point {") {
		t.Fatalf("dump missing record:\n%s", buf.String())
	}
}

func TestQualifiedName(t *testing.T) {
	c := ast.NewContext()
	ns := c.NewNamespace(c.TU, "n", nowhere)
	c.TU.AddDecl(ns)
	rec := newStruct(c, ns, "S")
	ns.AddDecl(rec)
	if got := rec.Type.String(); got != "n::S" {
		t.Fatalf("type name = %q", got)
	}
}

func TestNewFunctionRejectsNonFunctionKinds(t *testing.T) {
	c := ast.NewContext()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	c.NewFunction(ast.DeclVar, c.TU, "v", nil, nil, nowhere)
}
