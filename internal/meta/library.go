// Package meta provides the reflection library: one synthetic meta class
// per reflected construct, the modification traits record they share and
// the intrinsic modifiers user code calls on reflections.
package meta

import (
	"fmt"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/source"
)

type classKey struct {
	construct ast.Reflected
	kind      ast.MetaKind
}

type modifier func(*Modifications)

// Library owns the meta namespace. It is bound to one ast.Context.
type Library struct {
	ctx    *ast.Context
	ns     *ast.Decl
	traits *ast.Decl
	info   *ast.Decl

	classes    map[classKey]*ast.Decl
	intrinsics map[*ast.Decl]modifier
	byName     map[string]*ast.Decl
}

func New(ctx *ast.Context) *Library {
	l := &Library{
		ctx:        ctx,
		classes:    make(map[classKey]*ast.Decl),
		intrinsics: make(map[*ast.Decl]modifier),
		byName:     make(map[string]*ast.Decl),
	}
	// The namespace is parented to the translation unit but never added to
	// it, so meta classes stay out of dumps.
	l.ns = ctx.NewNamespace(ctx.TU, "meta", source.Span{})
	l.ns.Set(ast.FlagImplicit, true)

	l.traits = l.newClass("modification_traits")
	l.traits.Meta = &ast.MetaInfo{Kind: ast.MetaModifications}
	for _, f := range []struct {
		name string
		ty   *ast.Type
	}{
		{"linkage", ctx.Int},
		{"access", ctx.Int},
		{"storage", ctx.Int},
		{"make_constexpr", ctx.Bool},
		{"make_virtual", ctx.Bool},
		{"make_pure", ctx.Bool},
	} {
		fd := ctx.NewField(l.traits, f.name, f.ty, source.Span{})
		fd.Access = ast.AccessPublic
		l.traits.AddDecl(fd)
	}
	ctx.CompleteDefinition(l.traits)

	l.info = l.newClass("decl_info")
	l.info.Meta = &ast.MetaInfo{Kind: ast.MetaTraits}
	mods := ctx.NewField(l.info, TraitsField, l.traits.Type, source.Span{})
	mods.Access = ast.AccessPublic
	l.info.AddDecl(mods)
	ctx.CompleteDefinition(l.info)

	l.intrinsic("make_public", func(m *Modifications) { m.Access = AccessPublic })
	l.intrinsic("make_private", func(m *Modifications) { m.Access = AccessPrivate })
	l.intrinsic("make_protected", func(m *Modifications) { m.Access = AccessProtected })
	l.intrinsic("make_default_access", func(m *Modifications) { m.Access = AccessDefault })
	l.intrinsic("make_static", func(m *Modifications) { m.Storage = StorageStatic })
	l.intrinsic("make_constexpr", func(m *Modifications) { m.Constexpr = true })
	l.intrinsic("make_virtual", func(m *Modifications) { m.Virtual = true })
	l.intrinsic("make_pure_virtual", func(m *Modifications) {
		m.Virtual = true
		m.Pure = true
	})
	l.intrinsic("make_pure", func(m *Modifications) { m.Pure = true })
	return l
}

func (l *Library) newClass(name string) *ast.Decl {
	rec := l.ctx.NewRecord(l.ns, name, source.Span{}, true)
	rec.Set(ast.FlagImplicit, true)
	l.ctx.StartDefinition(rec)
	l.ns.AddDecl(rec)
	return rec
}

func (l *Library) intrinsic(name string, fn modifier) {
	p := l.ctx.NewParam(nil, "r", l.ctx.Dependent, 0, source.Span{})
	d := l.ctx.NewFunction(ast.DeclFunction, l.ns, name, l.ctx.Dependent, []*ast.Decl{p}, source.Span{})
	d.Set(ast.FlagConstexpr|ast.FlagImplicit, true)
	l.ns.AddDecl(d)
	l.intrinsics[d] = fn
	l.byName[name] = d
}

// Namespace is the implicit namespace holding meta classes and intrinsics.
func (l *Library) Namespace() *ast.Decl { return l.ns }

// TraitsRecord is the modification traits record.
func (l *Library) TraitsRecord() *ast.Decl { return l.traits }

// InfoRecord is the base every meta class derives from.
func (l *Library) InfoRecord() *ast.Decl { return l.info }

// Intrinsic returns the intrinsic function called name.
func (l *Library) Intrinsic(name string) (*ast.Decl, bool) {
	d, ok := l.byName[name]
	return d, ok
}

// IntrinsicNames lists the registered modifiers.
func (l *Library) IntrinsicNames() []string {
	names := make([]string, 0, len(l.byName))
	for _, m := range l.ns.Members {
		if _, ok := l.intrinsics[m]; ok {
			names = append(names, m.Name)
		}
	}
	return names
}

// ReflectionType returns the meta class type encoding construct.
func (l *Library) ReflectionType(construct ast.Reflected) *ast.Type {
	kind := ast.MetaType
	if construct.Decl != nil {
		kind = ast.MetaDecl
	}
	return l.metaClass(construct, kind).Type
}

// ParametersType returns the meta class reflecting the parameter list of fn.
func (l *Library) ParametersType(fn *ast.Decl) *ast.Type {
	return l.metaClass(ast.Reflected{Decl: fn}, ast.MetaParameters).Type
}

func (l *Library) metaClass(construct ast.Reflected, kind ast.MetaKind) *ast.Decl {
	key := classKey{construct: construct, kind: kind}
	if rec, ok := l.classes[key]; ok {
		return rec
	}
	rec := l.newClass(fmt.Sprintf("__reflection_%d", len(l.classes)))
	rec.Bases = []ast.BaseSpec{{Type: l.info.Type, Access: ast.AccessPublic}}
	rec.Meta = &ast.MetaInfo{Kind: kind, Construct: construct}
	l.ctx.CompleteDefinition(rec)
	l.classes[key] = rec
	return rec
}

// Reflect builds the reflection operator applied to construct.
func (l *Library) Reflect(construct ast.Reflected, span source.Span) *ast.Expr {
	return ast.NewReflect(l.ReflectionType(construct), construct, span)
}

// ReflectParameters builds a reflection of fn's parameter list.
func (l *Library) ReflectParameters(fn *ast.Decl, span source.Span) *ast.Expr {
	return ast.NewReflect(l.ParametersType(fn), ast.Reflected{Decl: fn}, span)
}

// IsReflectionType reports whether values of t are reflections.
func (l *Library) IsReflectionType(t *ast.Type) bool {
	_, _, ok := l.lookupMeta(t)
	return ok
}

// EvaluateReflection recovers the reflected construct from a reflection
// type. Fragment classes and other wrappers derive from the meta class, so
// the primary base chain is searched.
func (l *Library) EvaluateReflection(t *ast.Type) (ast.Reflected, bool) {
	construct, _, ok := l.lookupMeta(t)
	return construct, ok
}

// ReflectionKind is EvaluateReflection plus the meta kind found.
func (l *Library) ReflectionKind(t *ast.Type) (ast.MetaKind, bool) {
	_, kind, ok := l.lookupMeta(t)
	return kind, ok
}

func (l *Library) lookupMeta(t *ast.Type) (ast.Reflected, ast.MetaKind, bool) {
	rec := t.RecordDecl()
	if rec == nil {
		return ast.Reflected{}, ast.MetaNone, false
	}
	for _, c := range ast.BaseChain(rec) {
		if c.Meta == nil {
			continue
		}
		switch c.Meta.Kind {
		case ast.MetaDecl, ast.MetaType, ast.MetaParameters:
			return c.Meta.Construct, c.Meta.Kind, true
		}
	}
	return ast.Reflected{}, ast.MetaNone, false
}

// CallIntrinsic applies a modifier to a reflection argument. The result
// keeps the argument's type; only the traits field changes.
func (l *Library) CallIntrinsic(fn *ast.Decl, args []consteval.Operand, _ source.Span) (consteval.Operand, bool, error) {
	mod, ok := l.intrinsics[fn]
	if !ok {
		return consteval.Operand{}, false, nil
	}
	if len(args) != 1 {
		return consteval.Operand{}, true, fmt.Errorf("%s expects one reflection, got %d arguments", fn.Name, len(args))
	}
	arg := args[0]
	if !l.IsReflectionType(arg.Type) {
		return consteval.Operand{}, true, fmt.Errorf("%s: argument of type %s is not a reflection", fn.Name, arg.Type)
	}
	mods, _ := ModificationsOf(arg.Type, arg.Value)
	mod(&mods)
	return consteval.Operand{Type: arg.Type, Value: WithModifications(arg.Type, arg.Value, mods)}, true, nil
}
