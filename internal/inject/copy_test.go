package inject_test

import (
	"testing"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/inject"
)

func TestCopyFieldAsStatic(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	count := e.field(s, "count", 7)
	target := e.class("T")

	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(count, "make_static"), count, target)
	if !ok || len(decls) != 1 {
		t.Fatalf("CopyDeclaration: ok=%v diags=%v", ok, e.bag.Items())
	}
	d := decls[0]
	if d.Kind != ast.DeclVar || d.Storage != ast.StorageStatic || d.Parent != target {
		t.Fatalf("copy is %s (%s) in %v, want a static member of T", d.Kind, d.Storage, d.Parent)
	}
	if len(target.Fields()) != 0 {
		t.Fatal("static copy still counts as a field")
	}
	if got := e.evalInt(d.Init); got != 7 {
		t.Fatalf("initializer = %d, want 7", got)
	}
	if len(s.Fields()) != 1 {
		t.Fatal("source class changed")
	}
}

func TestCopyRedirectsOwnerReferences(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	e.field(s, "y", 0)
	get := e.ctx.NewFunction(ast.DeclMethod, s, "get", e.ctx.Int, nil, nowhere)
	get.Access = ast.AccessPublic
	get.Body = ast.NewCompound(nowhere, ast.NewReturn(ast.ToRValue(ast.NewDeclRef(s.Lookup("y")[0], nowhere)), nowhere))
	s.AddDecl(get)

	target := e.class("T")
	ty := e.field(target, "y", 0)
	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(get), get, target)
	if !ok {
		t.Fatalf("CopyDeclaration: %v", e.bag.Items())
	}
	ret := decls[0].Body.Data.(ast.CompoundData).Stmts[0].Data.(ast.ReturnData).X
	if ret.Referenced() != ty {
		t.Fatalf("copied body reads %v, want T::y", ret.Referenced())
	}
}

func TestCopyAppliesAccessAndVirtual(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	m := e.method(s, "m", true)
	target := e.class("T")

	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(m, "make_private", "make_virtual"), m, target)
	if !ok {
		t.Fatalf("CopyDeclaration: %v", e.bag.Items())
	}
	d := decls[0]
	if d.Access != ast.AccessPrivate || !d.Has(ast.FlagVirtual) {
		t.Fatalf("copy access=%s flags=%v", d.Access, d.Flags.Names())
	}
	if d.Body == nil {
		t.Fatal("copied definition has no body")
	}
	if m.Has(ast.FlagVirtual) || m.Access != ast.AccessPublic {
		t.Fatal("the original was modified")
	}
}

func TestCopyMakesPureVirtual(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	h := e.method(s, "h", false)
	target := e.class("T")

	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(h, "make_pure_virtual"), h, target)
	if !ok {
		t.Fatalf("CopyDeclaration: %v", e.bag.Items())
	}
	if d := decls[0]; !d.Has(ast.FlagVirtual) || !d.Has(ast.FlagPure) {
		t.Fatalf("copy flags = %v", d.Flags.Names())
	}
	if !target.Has(ast.FlagAbstract) {
		t.Fatal("class with a pure virtual member is not abstract")
	}
}

func TestCopyLazyBodyIsInstantiated(t *testing.T) {
	e := newEnv(t, inject.Options{LazyBodies: true})
	s := e.class("S")
	m := e.method(s, "m", true)
	target := e.class("T")
	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(m), m, target)
	if !ok || decls[0].Body == nil {
		t.Fatalf("copied definition must be instantiated eagerly: ok=%v", ok)
	}
}

func TestCopyRejectsBadModifications(t *testing.T) {
	type fixture struct {
		e      *env
		source *ast.Decl
		target *ast.Decl
	}
	tests := []struct {
		name  string
		build func(f *fixture) *ast.Decl
		mods  []string
		want  diag.Code
	}{
		{
			name:  "pure without virtual",
			build: func(f *fixture) *ast.Decl { return f.e.method(f.source, "h", false) },
			mods:  []string{"make_pure"},
			want:  diag.SemaPureWithoutVirtual,
		},
		{
			name: "pure on a virtual method without a virtual request",
			build: func(f *fixture) *ast.Decl {
				m := f.e.method(f.source, "v", false)
				m.Set(ast.FlagVirtual, true)
				return m
			},
			mods: []string{"make_pure"},
			want: diag.SemaPureWithoutVirtual,
		},
		{
			name:  "pure on a defined method",
			build: func(f *fixture) *ast.Decl { return f.e.method(f.source, "f", true) },
			mods:  []string{"make_pure_virtual"},
			want:  diag.SemaPureDefined,
		},
		{
			name: "pure on a defaulted method",
			build: func(f *fixture) *ast.Decl {
				m := f.e.method(f.source, "f", false)
				m.Set(ast.FlagDefaulted, true)
				return m
			},
			mods: []string{"make_pure_virtual"},
			want: diag.SemaPureDefaulted,
		},
		{
			name: "pure on a deleted method",
			build: func(f *fixture) *ast.Decl {
				m := f.e.method(f.source, "f", false)
				m.Set(ast.FlagDeleted, true)
				return m
			},
			mods: []string{"make_pure_virtual"},
			want: diag.SemaPureDeleted,
		},
		{
			name: "constexpr destructor",
			build: func(f *fixture) *ast.Decl {
				d := f.e.ctx.NewFunction(ast.DeclDestructor, f.source, "~S", nil, nil, nowhere)
				f.source.AddDecl(d)
				return d
			},
			mods: []string{"make_constexpr"},
			want: diag.SemaConstexprDestructor,
		},
		{
			name: "constexpr type alias",
			build: func(f *fixture) *ast.Decl {
				a := f.e.ctx.NewTypeAlias(f.source, "A", f.e.ctx.Int, nowhere)
				f.source.AddDecl(a)
				return a
			},
			mods: []string{"make_constexpr"},
			want: diag.SemaConstexprNotApplicable,
		},
		{
			name: "constexpr variable without initializer",
			build: func(f *fixture) *ast.Decl {
				v := f.e.ctx.NewVar(f.source, "sv", f.e.ctx.Int, ast.StorageStatic, nowhere)
				f.source.AddDecl(v)
				return v
			},
			mods: []string{"make_constexpr"},
			want: diag.SemaConstexprVarNoInit,
		},
		{
			name: "constexpr virtual method",
			build: func(f *fixture) *ast.Decl {
				m := f.e.method(f.source, "vm", true)
				m.Set(ast.FlagVirtual, true)
				return m
			},
			mods: []string{"make_constexpr"},
			want: diag.SemaConstexprVirtual,
		},
		{
			name:  "virtual field",
			build: func(f *fixture) *ast.Decl { return f.e.field(f.source, "x", 0) },
			mods:  []string{"make_virtual"},
			want:  diag.SemaVirtualNonMethod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, inject.Options{})
			f := &fixture{e: e, source: e.class("S"), target: e.class("T")}
			d := tt.build(f)
			version, members := f.target.Version(), len(f.target.Members)

			if _, ok := e.s.CopyDeclaration(nowhere, e.modified(d, tt.mods...), d, f.target); ok {
				t.Fatal("modification accepted")
			}
			e.wantCodes(tt.want)
			if f.target.Version() != version || len(f.target.Members) != members {
				t.Fatal("rejected copy modified the injectee")
			}
			if f.target.IsInvalid() || f.target.Has(ast.FlagAbstract) {
				t.Fatalf("injectee flags changed: %v", f.target.Flags.Names())
			}
			if len(e.bag.Items()[0].Notes) != 1 {
				t.Fatal("expected a note at the declaration")
			}
		})
	}
}

func TestCopyIntoInvalidInjecteeFails(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	n := e.field(s, "n", 3)
	target := e.class("Dst")
	target.SetInvalid(true)

	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(n), n, target)
	if ok {
		t.Fatal("copy into an invalid injectee reported success")
	}
	if len(decls) != 1 || decls[0].Parent != target {
		t.Fatalf("copy should still be attached: %v", decls)
	}
	e.wantCodes()
}

func TestInjectFragmentIntoInvalidInjecteeFails(t *testing.T) {
	e := newEnv(t, inject.Options{})
	content, fe := e.classFragment()
	target := e.class("Dst")
	target.SetInvalid(true)

	if _, ok := e.s.InjectFragment(nowhere, e.eval(fe), content, target); ok {
		t.Fatal("injection into an invalid injectee reported success")
	}
	if len(target.Lookup("w")) != 1 {
		t.Fatal("member was not injected")
	}
	e.wantCodes()
}

func TestAccessOutsideAClass(t *testing.T) {
	for _, mod := range []string{"make_private", "make_default_access"} {
		t.Run(mod, func(t *testing.T) {
			e := newEnv(t, inject.Options{})
			g := e.ctx.NewVar(e.ctx.TU, "g", e.ctx.Int, ast.StorageStatic, nowhere)
			g.Init = ast.NewIntLit(e.ctx, 1, nowhere)
			e.ctx.TU.AddDecl(g)
			n := e.namespace("n")
			if _, ok := e.s.CopyDeclaration(nowhere, e.modified(g, mod), g, n); ok {
				t.Fatal("access change outside a class accepted")
			}
			e.wantCodes(diag.SemaAccessOnNonMember)
		})
	}
}

func TestCopyIntoClassDefaultsToPublic(t *testing.T) {
	e := newEnv(t, inject.Options{})
	n := e.namespace("n")
	g := e.ctx.NewVar(n, "g", e.ctx.Int, ast.StorageStatic, nowhere)
	g.Init = ast.NewIntLit(e.ctx, 1, nowhere)
	n.AddDecl(g)
	target := e.namespace("m")
	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(g), g, target)
	if !ok || decls[0].Access != ast.AccessNone {
		t.Fatalf("namespace copy: ok=%v access=%v", ok, decls)
	}

	s := e.class("S")
	f := e.field(s, "f", 0)
	f.Access = ast.AccessNone
	c := e.class("C")
	decls, ok = e.s.CopyDeclaration(nowhere, e.modified(f, "make_default_access"), f, c)
	if !ok || decls[0].Access != ast.AccessPublic {
		t.Fatalf("class copy: ok=%v diags=%v", ok, e.bag.Items())
	}
}

func TestCopyLocalOutsideFunction(t *testing.T) {
	e := newEnv(t, inject.Options{})
	fn := e.ctx.NewFunction(ast.DeclFunction, e.ctx.TU, "f", nil, nil, nowhere)
	e.ctx.TU.AddDecl(fn)
	local := e.ctx.NewVar(fn, "v", e.ctx.Int, ast.StorageNone, nowhere)
	local.Init = ast.NewIntLit(e.ctx, 1, nowhere)
	target := e.class("T")
	if _, ok := e.s.CopyDeclaration(nowhere, e.modified(local), local, target); ok {
		t.Fatal("local variable copied into a class")
	}
	e.wantCodes(diag.SemaInjectLocalIntoBadScope)
}

func TestCopyClassMemberIntoNamespace(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	x := e.field(s, "x", 0)
	n := e.namespace("n")
	if _, ok := e.s.CopyDeclaration(nowhere, e.modified(x), x, n); ok {
		t.Fatal("class member copied into a namespace")
	}
	e.wantCodes(diag.SemaInvalidInjection)
	if n.IsInvalid() {
		t.Fatal("context mismatch must not invalidate the injectee")
	}
}

func TestCopyInjectedClassNameIsNoop(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	target := e.class("T")
	icn := s.InjectedClassName()
	decls, ok := e.s.CopyDeclaration(nowhere, e.modified(icn), icn, target)
	if !ok || decls != nil {
		t.Fatalf("injected class name copy: ok=%v decls=%v", ok, decls)
	}
	e.wantCodes()
}

func TestInjectionDecl(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	x := e.field(s, "x", 2)
	target := e.class("T")

	e.s.PushDeclContext(target)
	decls, ok := e.s.ActOnInjectionDecl(nowhere, e.lib.Reflect(ast.Reflected{Decl: x}, nowhere))
	if !ok || len(decls) != 1 || decls[0].Parent != target {
		t.Fatalf("ActOnInjectionDecl: ok=%v diags=%v", ok, e.bag.Items())
	}

	p := e.ctx.NewParam(nil, "r", e.ctx.Dependent, 0, nowhere)
	decls, ok = e.s.ActOnInjectionDecl(nowhere, ast.NewDeclRef(p, nowhere))
	if !ok || decls[0].Kind != ast.DeclInjection || decls[0].Access != ast.AccessPublic {
		t.Fatalf("dependent operand should leave an injection declaration: %v", decls)
	}

	if _, ok := e.s.ActOnInjectionDecl(nowhere, ast.NewIntLit(e.ctx, 1, nowhere)); ok {
		t.Fatal("an int is not a reflection")
	}
	e.s.PopDeclContext(target)
	e.wantCodes(diag.SemaNotAReflection)
}

func TestInjectionStatementsCheckOperands(t *testing.T) {
	e := newEnv(t, inject.Options{})
	s := e.class("S")
	refl := e.lib.Reflect(ast.Reflected{Decl: s}, nowhere)
	one := ast.NewIntLit(e.ctx, 1, nowhere)

	if _, ok := e.s.BuildInjectionStmt(nowhere, one); ok {
		t.Fatal("injection of an int accepted")
	}
	if _, ok := e.s.BuildExtensionStmt(nowhere, one, refl); ok {
		t.Fatal("extension of an int accepted")
	}
	if st, ok := e.s.BuildExtensionStmt(nowhere, refl, refl); !ok || st.Kind != ast.StmtExtension {
		t.Fatal("extension of a reflection rejected")
	}
	e.wantCodes(diag.SemaNotAReflection, diag.SemaExtendingNonReflection)
}
