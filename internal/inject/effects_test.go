package inject_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/diag"
	"splice/internal/inject"
	"splice/internal/trace"
)

func TestApplyEffectsReportsEachResult(t *testing.T) {
	var out bytes.Buffer
	e := newEnv(t, inject.Options{Output: &out})
	s := e.class("S")
	x := e.field(s, "x", 1)
	f := e.method(s, "f", true)
	target := e.class("T")

	q := &consteval.EffectQueue{}
	q.Push(consteval.Effect{Kind: consteval.EffectInjection, Reflection: e.modified(x)})
	q.Push(consteval.Effect{Kind: consteval.EffectInjection, Reflection: e.modified(f, "make_pure_virtual")})
	q.Push(consteval.Effect{Kind: consteval.EffectDiagnostic, Reflection: e.modified(x)})

	restore := e.s.SwitchContext(target)
	res := e.s.ApplyEffects(nowhere, q)
	restore()

	if res.OK {
		t.Fatal("a failed effect must fail the batch")
	}
	var oks []bool
	for _, r := range res.Effects {
		oks = append(oks, r.OK)
	}
	if diff := cmp.Diff([]bool{true, false, true}, oks); diff != "" {
		t.Fatalf("per-effect results (-want +got):\n%s", diff)
	}
	if len(res.Effects[0].Decls) != 1 || res.Effects[0].Decls[0].Parent != target {
		t.Fatal("first effect should report its copy")
	}
	if diff := cmp.Diff([]string{"x"}, memberNames(target)); diff != "" {
		t.Fatalf("members (-want +got):\n%s", diff)
	}
	e.wantCodes(diag.SemaPureDefined, diag.SemaReflectionPrint)
	if !q.Drained() {
		t.Fatal("queue not drained")
	}
	if !strings.Contains(out.String(), "x") {
		t.Fatalf("printed reflection %q does not mention x", out.String())
	}
}

func TestExplicitInjectee(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	x := e.field(s, "x", 1)
	target := e.class("T")
	other := e.class("U")

	injectee := e.modified(target)
	q := &consteval.EffectQueue{}
	q.Push(consteval.Effect{Kind: consteval.EffectInjection, Reflection: e.modified(x), Injectee: &injectee})
	restore := e.s.SwitchContext(other)
	res := e.s.ApplyEffects(nowhere, q)
	restore()
	if !res.OK || len(target.Lookup("x")) != 1 || len(other.Lookup("x")) != 0 {
		t.Fatalf("explicit injectee ignored: %v", e.bag.Items())
	}
}

func TestInjecteeMustBeAContext(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	x := e.field(s, "x", 1)
	g := e.ctx.NewVar(e.ctx.TU, "g", e.ctx.Int, ast.StorageNone, nowhere)
	e.ctx.TU.AddDecl(g)
	target := e.class("T")

	bad := e.modified(g)
	q := &consteval.EffectQueue{}
	q.Push(consteval.Effect{Kind: consteval.EffectInjection, Reflection: e.modified(x), Injectee: &bad})
	q.Push(consteval.Effect{Kind: consteval.EffectInjection, Reflection: e.modified(x)})
	restore := e.s.SwitchContext(target)
	res := e.s.ApplyEffects(nowhere, q)
	restore()

	if res.OK || res.Effects[0].OK || !res.Effects[1].OK {
		t.Fatalf("results = %+v", res.Effects)
	}
	e.wantCodes(diag.SemaInvalidInjection)
	if !strings.Contains(e.bag.Items()[0].Message, `variable "g"`) {
		t.Fatalf("message = %q", e.bag.Items()[0].Message)
	}
	if g.IsInvalid() || len(target.Lookup("x")) != 1 {
		t.Fatal("only the valid effect should have changed anything")
	}
}

func TestPrintRendersTypes(t *testing.T) {
	e := newEnv(t, inject.Options{})
	if got := inject.RenderReflection(ast.Reflected{Type: e.ctx.Int}); got != "int" {
		t.Fatalf("RenderReflection(int) = %q", got)
	}
	s := e.class("S")
	if got := inject.RenderReflection(ast.Reflected{Type: s.Type}); !strings.Contains(got, "S") {
		t.Fatalf("RenderReflection(S) = %q", got)
	}
}

func TestConstexprBlockEvaluationFailure(t *testing.T) {
	e := newEnv(t, inject.Options{})
	target := e.class("T")
	undefined := e.ctx.NewFunction(ast.DeclFunction, e.ctx.TU, "undefined", e.ctx.Int, nil, nowhere)
	e.ctx.TU.AddDecl(undefined)

	e.s.PushDeclContext(target)
	block := e.s.ActOnConstexprDecl(nowhere)
	call := ast.NewCall(ast.NewDeclRef(undefined, nowhere), nil, e.ctx.Int, nowhere)
	ok := e.s.ActOnFinishConstexprDecl(block, ast.NewCompound(nowhere, ast.NewExprStmt(call)))
	e.s.PopDeclContext(target)

	if ok || !block.IsInvalid() {
		t.Fatal("failed evaluation must invalidate the block")
	}
	e.wantCodes(diag.SemaConstexprEvalFailed)
}

func TestConstexprBlockIsTraced(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	e := newEnv(t, inject.Options{Tracer: ring})
	s := e.class("S")
	x := e.field(s, "x", 1)
	target := e.class("T")

	e.s.PushDeclContext(target)
	block := e.s.ActOnConstexprDecl(nowhere)
	stmt, _ := e.s.BuildInjectionStmt(nowhere, e.lib.Reflect(ast.Reflected{Decl: x}, nowhere))
	if !e.s.ActOnFinishConstexprDecl(block, ast.NewCompound(nowhere, stmt)) {
		t.Fatalf("constexpr block failed: %v", e.bag.Items())
	}
	e.s.PopDeclContext(target)

	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanEnd {
			names = append(names, ev.Kind.String()+" "+ev.Name)
		}
	}
	want := []string{
		"begin evaluate",
		"begin apply-effects",
		"begin copy-decl",
		"point clone",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("trace (-want +got):\n%s", diff)
	}
}

func TestGeneratedType(t *testing.T) {
	e := newEnv(t, inject.Options{})
	proto := e.class("Proto")
	x := e.field(proto, "x", 4)

	// void gen(auto target, auto proto) { -> target : ^Proto::x; }
	target := e.ctx.NewParam(nil, "target", e.ctx.Dependent, 0, nowhere)
	source := e.ctx.NewParam(nil, "proto", e.ctx.Dependent, 1, nowhere)
	gen := e.ctx.NewFunction(ast.DeclFunction, e.ctx.TU, "gen", nil, []*ast.Decl{target, source}, nowhere)
	gen.Set(ast.FlagConstexpr, true)
	ext, ok := e.s.BuildExtensionStmt(nowhere, ast.NewDeclRef(target, nowhere), e.lib.Reflect(ast.Reflected{Decl: x}, nowhere))
	if !ok {
		t.Fatal("BuildExtensionStmt failed")
	}
	gen.Body = ast.NewCompound(nowhere, ext)
	e.ctx.TU.AddDecl(gen)

	class, ok := e.s.ActOnGeneratedTypeDecl(nowhere, false, "Gen",
		ast.NewDeclRef(gen, nowhere), e.lib.Reflect(ast.Reflected{Decl: proto}, nowhere))
	if !ok {
		t.Fatalf("ActOnGeneratedTypeDecl: %v", e.bag.Items())
	}
	if !class.Has(ast.FlagComplete) || !class.Has(ast.FlagStruct) || class.Parent != e.ctx.TU {
		t.Fatalf("generated class flags = %v", class.Flags.Names())
	}
	alias := class.Lookup("prototype")
	if len(alias) != 1 || alias[0].Target != proto.Type || alias[0].Access != ast.AccessPublic {
		t.Fatalf("prototype alias missing or wrong: %v", alias)
	}
	got := class.Lookup("x")
	if len(got) != 1 || e.evalInt(got[0].Init) != 4 {
		t.Fatalf("generator did not inject x: %v", memberNames(class))
	}
	if e.s.CurContext() != e.ctx.TU {
		t.Fatal("declaration context not restored")
	}
}

func TestGeneratedTypeNeedsReflection(t *testing.T) {
	e := newEnv(t, inject.Options{})
	gen := e.ctx.NewFunction(ast.DeclFunction, e.ctx.TU, "gen", nil, nil, nowhere)
	if _, ok := e.s.ActOnGeneratedTypeDecl(nowhere, true, "G", ast.NewDeclRef(gen, nowhere), ast.NewIntLit(e.ctx, 1, nowhere)); ok {
		t.Fatal("generated type from an int accepted")
	}
	e.wantCodes(diag.SemaNotAReflection)
	if len(e.ctx.TU.Lookup("G")) != 0 {
		t.Fatal("class declared despite the error")
	}
}

func TestInjectedParameters(t *testing.T) {
	e := newEnv(t, inject.Options{})
	a := e.ctx.NewParam(nil, "a", e.ctx.Int, 0, nowhere)
	b := e.ctx.NewParam(nil, "b", e.ctx.Bool, 1, nowhere)
	fn := e.ctx.NewFunction(ast.DeclFunction, e.ctx.TU, "f", nil, []*ast.Decl{a, b}, nowhere)

	parms, ok := e.s.ActOnInjectedParameter(nowhere, e.lib.ReflectParameters(fn, nowhere), "args")
	if !ok {
		t.Fatalf("ActOnInjectedParameter: %v", e.bag.Items())
	}
	var got []string
	for _, p := range parms {
		if !p.Has(ast.FlagInjected) || p == a || p == b {
			t.Fatalf("parameter %s is not a fresh injected parameter", p.Name)
		}
		got = append(got, p.Name+":"+p.Type.String())
	}
	if diff := cmp.Diff([]string{"a:int", "b:bool"}, got); diff != "" {
		t.Fatalf("parameters (-want +got):\n%s", diff)
	}

	single, ok := e.s.ActOnInjectedParameter(nowhere, e.lib.Reflect(ast.Reflected{Decl: b}, nowhere), "one")
	if !ok || len(single) != 1 || single[0].Name != "b" {
		t.Fatalf("single parameter reflection: %v", single)
	}

	ty, ok := e.s.BuildInjectedParmType(nowhere, e.lib.ReflectParameters(fn, nowhere))
	if !ok || ty.Kind != ast.TypeInjectedParm || len(ty.ParmDecls) != 2 {
		t.Fatalf("BuildInjectedParmType = %v", ty)
	}

	dep := ast.NewDeclRef(e.ctx.NewParam(nil, "r", e.ctx.Dependent, 0, nowhere), nowhere)
	parms, ok = e.s.ActOnInjectedParameter(nowhere, dep, "args")
	if !ok || len(parms) != 1 || parms[0].Type.Kind != ast.TypeInjectedParm || parms[0].Type.ParmDecls != nil {
		t.Fatalf("dependent operand should yield one pack parameter: %v", parms)
	}

	if _, ok := e.s.ActOnInjectedParameter(nowhere, e.lib.Reflect(ast.Reflected{Type: e.ctx.Int}, nowhere), "x"); ok {
		t.Fatal("reflection of int accepted as parameters")
	}
	e.wantCodes(diag.SemaInvalidInjectedParameter)
}
