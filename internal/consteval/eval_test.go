package consteval_test

import (
	"errors"
	"testing"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/source"
)

var nowhere = source.Span{}

func TestArithmeticAndConstexprVars(t *testing.T) {
	c := ast.NewContext()
	v := c.NewVar(c.TU, "k", c.Int, ast.StorageStatic, nowhere)
	v.Set(ast.FlagConstexpr, true)
	v.Init = ast.NewIntLit(c, 6, nowhere)
	c.TU.AddDecl(v)

	e := ast.NewBinary(ast.OpMul, ast.ToRValue(ast.NewDeclRef(v, nowhere)), ast.NewIntLit(c, 7, nowhere), nowhere)
	op, err := consteval.New(c, nil).Evaluate(e)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if op.Value.AsInt() != 42 {
		t.Fatalf("got %s, want 42", op.Value)
	}
}

func TestNonConstexprReadFails(t *testing.T) {
	c := ast.NewContext()
	v := c.NewVar(c.TU, "x", c.Int, ast.StorageNone, nowhere)
	v.Init = ast.NewIntLit(c, 1, nowhere)
	_, err := consteval.New(c, nil).Evaluate(ast.NewDeclRef(v, nowhere))
	if !errors.Is(err, consteval.ErrNotConstant) {
		t.Fatalf("expected ErrNotConstant, got %v", err)
	}
}

func TestConstructorRunsInitializerList(t *testing.T) {
	c := ast.NewContext()
	base := c.NewRecord(c.TU, "B", nowhere, true)
	c.StartDefinition(base)
	base.AddDecl(c.NewField(base, "z", c.Int, nowhere))
	c.CompleteDefinition(base)

	rec := c.NewRecord(c.TU, "S", nowhere, true)
	c.StartDefinition(rec)
	rec.Bases = []ast.BaseSpec{{Type: base.Type, Access: ast.AccessPublic}}
	a := c.NewField(rec, "a", c.Int, nowhere)
	b := c.NewField(rec, "b", c.Int, nowhere)
	rec.AddDecl(a)
	rec.AddDecl(b)
	pa := c.NewParam(nil, "pa", c.Int, 0, nowhere)
	pb := c.NewParam(nil, "pb", c.Int, 1, nowhere)
	ctor := c.NewFunction(ast.DeclConstructor, rec, "S", nil, []*ast.Decl{pa, pb}, nowhere)
	ctor.Set(ast.FlagConstexpr, true)
	ctor.Inits = []ast.CtorInit{
		{Base: base.Type},
		{Field: a, Init: ast.ToRValue(ast.NewDeclRef(pa, nowhere))},
		{Field: b, Init: ast.ToRValue(ast.NewDeclRef(pb, nowhere))},
	}
	rec.AddDecl(ctor)
	c.CompleteDefinition(rec)

	e := &ast.Expr{
		Kind: ast.ExprConstruct,
		Type: rec.Type,
		Data: ast.ConstructData{Ctor: ctor, Args: []*ast.Expr{ast.NewIntLit(c, 3, nowhere), ast.NewIntLit(c, 4, nowhere)}, List: true},
	}
	op, err := consteval.New(c, nil).Evaluate(e)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := op.Value.String(); got != "{{0}, 3, 4}" {
		t.Fatalf("value = %s", got)
	}
}

func TestBlockQueuesEffectsInOrder(t *testing.T) {
	c := ast.NewContext()
	one := ast.NewIntLit(c, 1, nowhere)
	two := ast.NewIntLit(c, 2, nowhere)
	body := ast.NewCompound(nowhere,
		&ast.Stmt{Kind: ast.StmtInjection, Data: ast.InjectionData{Reflection: one}},
		ast.NewPrint(two, nowhere),
	)
	q, err := consteval.New(c, nil).EvaluateBlock(body)
	if err != nil {
		t.Fatalf("EvaluateBlock: %v", err)
	}
	items := q.Drain()
	if len(items) != 2 {
		t.Fatalf("expected 2 effects, got %d", len(items))
	}
	if items[0].Kind != consteval.EffectInjection || items[1].Kind != consteval.EffectDiagnostic {
		t.Fatalf("unexpected order: %v, %v", items[0].Kind, items[1].Kind)
	}
	if items[1].Reflection.Value.AsInt() != 2 {
		t.Fatalf("print argument = %s", items[1].Reflection.Value)
	}
	if q.Drain() != nil {
		t.Fatal("queue drained twice")
	}
}

func TestFunctionCallAndRecursionLimit(t *testing.T) {
	c := ast.NewContext()
	p := c.NewParam(nil, "n", c.Int, 0, nowhere)
	twice := c.NewFunction(ast.DeclFunction, c.TU, "twice", c.Int, []*ast.Decl{p}, nowhere)
	ref := ast.ToRValue(ast.NewDeclRef(p, nowhere))
	twice.Body = ast.NewCompound(nowhere, ast.NewReturn(ast.NewBinary(ast.OpAdd, ref, ref, nowhere), nowhere))
	call := ast.NewCall(ast.NewDeclRef(twice, nowhere), []*ast.Expr{ast.NewIntLit(c, 5, nowhere)}, c.Int, nowhere)
	op, err := consteval.New(c, nil).Evaluate(call)
	if err != nil || op.Value.AsInt() != 10 {
		t.Fatalf("twice(5) = %v, %v", op.Value, err)
	}

	loop := c.NewFunction(ast.DeclFunction, c.TU, "loop", c.Int, nil, nowhere)
	self := ast.NewCall(ast.NewDeclRef(loop, nowhere), nil, c.Int, nowhere)
	loop.Body = ast.NewCompound(nowhere, ast.NewReturn(self, nowhere))
	_, err = consteval.New(c, nil).Evaluate(self)
	if !errors.Is(err, consteval.ErrCallDepth) {
		t.Fatalf("expected ErrCallDepth, got %v", err)
	}
}
