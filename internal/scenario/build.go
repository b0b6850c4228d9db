package scenario

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/inject"
	"splice/internal/meta"
	"splice/internal/source"
)

// locator maps names back to the scenario source. Each declaration claims
// the next occurrence of its quoted name; references use the first.
type locator struct {
	file    source.FileID
	content []byte
	next    map[string]int
}

func newLocator(f *source.File) *locator {
	return &locator{file: f.ID, content: f.Content, next: make(map[string]int)}
}

func (l *locator) span(start, n int) source.Span {
	s, err1 := safecast.Conv[uint32](start)
	e, err2 := safecast.Conv[uint32](start + n)
	if err1 != nil || err2 != nil {
		return source.Span{File: l.file}
	}
	return source.Span{File: l.file, Start: s, End: e}
}

func (l *locator) claim(name string) source.Span {
	q := []byte(strconv.Quote(name))
	from := l.next[name]
	i := bytes.Index(l.content[from:], q)
	if i < 0 {
		return l.ref(name)
	}
	l.next[name] = from + i + len(q)
	return l.span(from+i, len(q))
}

func (l *locator) ref(name string) source.Span {
	q := []byte(strconv.Quote(name))
	i := bytes.Index(l.content, q)
	if i < 0 {
		return source.Span{File: l.file}
	}
	return l.span(i, len(q))
}

// fragment is a built fragment literal. maker is the implicit constexpr
// function declaring the captured locals and returning the fragment value.
type fragment struct {
	maker   *ast.Decl
	content *ast.Decl
}

type builder struct {
	ctx   *ast.Context
	lib   *meta.Library
	sema  *inject.Sema
	rep   diag.Reporter
	loc   *locator
	frags map[string]fragment

	// placeholders of the fragment being built, by capture name
	placeholders map[string]*ast.Decl
}

func newBuilder(s *inject.Sema, rep diag.Reporter, loc *locator) *builder {
	return &builder{
		ctx:   s.Ctx,
		lib:   s.Lib,
		sema:  s,
		rep:   rep,
		loc:   loc,
		frags: make(map[string]fragment),
	}
}

func (b *builder) errorf(code diag.Code, span source.Span, format string, args ...any) {
	if rb := diag.ReportError(b.rep, code, span, fmt.Sprintf(format, args...)); rb != nil {
		rb.Emit()
	}
}

// Find resolves a qualified name such as "N::S::x" from the translation
// unit, skipping injected class names. Overloads resolve to the first.
func Find(ctx *ast.Context, qualified string) *ast.Decl {
	cur := ctx.TU
	for _, part := range strings.Split(qualified, "::") {
		var next *ast.Decl
		for _, m := range cur.Lookup(ctx.Ident(part)) {
			if !m.IsInjectedClassName() {
				next = m
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (b *builder) lookup(name string) *ast.Decl {
	if d := Find(b.ctx, name); d != nil {
		return d
	}
	b.errorf(diag.ProjUnknownName, b.loc.ref(name), "unknown declaration %q", name)
	return nil
}

func (b *builder) typeOf(name string, def *ast.Type) *ast.Type {
	if name == "" {
		return def
	}
	if t, ok := b.ctx.TypeByName(name); ok {
		return t
	}
	d := Find(b.ctx, name)
	if d.IsRecord() {
		return d.Type
	}
	if d != nil && d.Kind == ast.DeclTypeAlias {
		return d.Target
	}
	b.errorf(diag.ProjUnknownName, b.loc.ref(name), "unknown type %q", name)
	return def
}

func (b *builder) access(spec DeclSpec, parent *ast.Decl, span source.Span) ast.AccessSpec {
	var a ast.AccessSpec
	switch spec.Access {
	case "":
		if parent.IsRecord() {
			a = parent.DefaultAccess()
		}
		return a
	case "public":
		a = ast.AccessPublic
	case "protected":
		a = ast.AccessProtected
	case "private":
		a = ast.AccessPrivate
	default:
		b.errorf(diag.ProjInvalidScenario, span, "unknown access %q", spec.Access)
		return ast.AccessNone
	}
	if !parent.IsRecord() {
		b.errorf(diag.ProjInvalidScenario, span, "access %q outside a class", spec.Access)
		return ast.AccessNone
	}
	return a
}

func (b *builder) build(specs []DeclSpec) {
	for _, spec := range specs {
		b.decl(spec)
	}
}

// decl builds spec in the current declaration context.
func (b *builder) decl(spec DeclSpec) {
	parent := b.sema.CurContext()
	key := spec.Name
	if key == "" {
		key = spec.Kind
	}
	span := b.loc.claim(key)

	switch spec.Kind {
	case "namespace":
		ns := b.ctx.NewNamespace(parent, spec.Name, span)
		parent.AddDecl(ns)
		b.within(ns, spec.Members)
	case "class", "struct":
		b.record(spec, parent, span)
	case "field":
		b.field(spec, parent, span)
	case "var":
		storage := ast.StorageNone
		if spec.Static {
			storage = ast.StorageStatic
		}
		v := b.ctx.NewVar(parent, spec.Name, b.typeOf(spec.Type, b.ctx.Int), storage, span)
		b.variable(v, spec, parent, span)
	case "function", "method", "constructor", "destructor":
		b.function(spec, parent, span)
	case "alias":
		a := b.ctx.NewTypeAlias(parent, spec.Name, b.typeOf(spec.Type, b.ctx.Int), span)
		a.Access = b.access(spec, parent, span)
		parent.AddDecl(a)
	case "fragment":
		b.fragment(spec, span)
	case "constexpr":
		b.constexpr(spec, span)
	case "injection":
		b.injection(spec, span)
	case "generated":
		b.generated(spec, span)
	default:
		b.errorf(diag.ProjUnknownKind, b.loc.ref(spec.Kind), "unknown declaration kind %q", spec.Kind)
	}
}

// within builds members with d as the current context.
func (b *builder) within(d *ast.Decl, members []DeclSpec) {
	b.sema.PushDeclContext(d)
	b.build(members)
	b.sema.PopDeclContext(d)
}

func (b *builder) record(spec DeclSpec, parent *ast.Decl, span source.Span) {
	rec := b.ctx.NewRecord(parent, spec.Name, span, spec.Kind == "struct")
	rec.Access = b.access(spec, parent, span)
	for _, name := range spec.Bases {
		base := b.lookup(name)
		if base == nil {
			continue
		}
		if !base.IsRecord() {
			b.errorf(diag.ProjInvalidScenario, b.loc.ref(name), "base %q is not a class", name)
			continue
		}
		rec.Bases = append(rec.Bases, ast.BaseSpec{Type: base.Type, Access: ast.AccessPublic, Span: b.loc.ref(name)})
	}
	parent.AddDecl(rec)
	b.ctx.StartDefinition(rec)
	b.within(rec, spec.Members)
	b.ctx.CompleteDefinition(rec)
}

func (b *builder) field(spec DeclSpec, parent *ast.Decl, span source.Span) {
	if !parent.IsRecord() {
		b.errorf(diag.ProjInvalidScenario, span, "field %q outside a class", spec.Name)
		return
	}
	ty := b.typeOf(spec.Type, b.ctx.Int)
	var d *ast.Decl
	if spec.Static {
		d = b.ctx.NewVar(parent, spec.Name, ty, ast.StorageStatic, span)
	} else {
		d = b.ctx.NewField(parent, spec.Name, ty, span)
	}
	b.variable(d, spec, parent, span)
}

// variable sets the initializer and flags shared by fields and variables
// and adds d to parent.
func (b *builder) variable(d *ast.Decl, spec DeclSpec, parent *ast.Decl, span source.Span) {
	d.Access = b.access(spec, parent, span)
	d.Set(ast.FlagConstexpr, spec.Constexpr)
	switch {
	case spec.Capture != "":
		ph, ok := b.placeholders[spec.Capture]
		if !ok {
			b.errorf(diag.ProjUnknownName, b.loc.ref(spec.Capture), "no capture named %q", spec.Capture)
			break
		}
		d.Init = ast.ToRValue(ast.NewDeclRef(ph, span))
	case spec.Value != nil:
		d.Init = ast.NewIntLit(b.ctx, *spec.Value, span)
	}
	parent.AddDecl(d)
}

var functionKinds = map[string]ast.DeclKind{
	"function":    ast.DeclFunction,
	"method":      ast.DeclMethod,
	"constructor": ast.DeclConstructor,
	"destructor":  ast.DeclDestructor,
}

func (b *builder) function(spec DeclSpec, parent *ast.Decl, span source.Span) {
	kind := functionKinds[spec.Kind]
	if kind != ast.DeclFunction && !parent.IsRecord() {
		b.errorf(diag.ProjInvalidScenario, span, "%s %q outside a class", spec.Kind, spec.Name)
		return
	}
	name := spec.Name
	switch {
	case kind == ast.DeclConstructor && name == "":
		name = parent.Name
	case kind == ast.DeclDestructor && name == "":
		name = "~" + parent.Name
	}
	params := make([]*ast.Decl, 0, len(spec.Params))
	for i, p := range spec.Params {
		params = append(params, b.ctx.NewParam(nil, p.Name, b.typeOf(p.Type, b.ctx.Int), i, b.loc.claim(p.Name)))
	}
	fn := b.ctx.NewFunction(kind, parent, name, b.typeOf(spec.Type, b.ctx.Void), params, span)
	if spec.ParamsFrom != "" {
		if src := b.lookup(spec.ParamsFrom); src != nil {
			injected, ok := b.sema.ActOnInjectedParameter(span, b.lib.ReflectParameters(src, span), "args")
			if ok {
				b.ctx.SetParams(fn, append(fn.Params, injected...))
			}
		}
	}
	fn.Access = b.access(spec, parent, span)
	fn.Set(ast.FlagConstexpr, spec.Constexpr)
	fn.Set(ast.FlagVirtual, spec.Virtual || spec.Pure)
	fn.Set(ast.FlagPure, spec.Pure)
	fn.Set(ast.FlagDefaulted, spec.Defaulted)
	fn.Set(ast.FlagDeleted, spec.Deleted)
	switch {
	case spec.Returns != nil:
		fn.Body = ast.NewCompound(span, ast.NewReturn(ast.NewIntLit(b.ctx, *spec.Returns, span), span))
	case spec.Body:
		fn.Body = ast.NewCompound(span)
	}
	if spec.Pure && parent.IsRecord() {
		parent.Set(ast.FlagAbstract, true)
	}
	parent.AddDecl(fn)
}

// fragment builds
//
//	constexpr auto __make_<name>() {
//	  int <capture> = <value>; ...
//	  return fragment <content> { members };
//	}
//
// and records it under name for later effects.
func (b *builder) fragment(spec DeclSpec, span source.Span) {
	if _, dup := b.frags[spec.Name]; dup || spec.Name == "" {
		b.errorf(diag.ProjInvalidScenario, span, "fragment needs a unique name, got %q", spec.Name)
		return
	}
	c, s := b.ctx, b.sema
	maker := c.NewFunction(ast.DeclFunction, c.TU, "__make_"+spec.Name, nil, nil, span)
	maker.Set(ast.FlagConstexpr|ast.FlagImplicit, true)
	c.TU.AddDecl(maker)

	s.PushDeclContext(maker)
	pop := s.PushScope(maker)
	stmts := make([]*ast.Stmt, 0, len(spec.Captures)+1)
	for _, cs := range spec.Captures {
		v := c.NewVar(maker, cs.Name, c.Int, ast.StorageNone, b.loc.claim(cs.Name))
		v.Init = ast.NewIntLit(c, cs.Value, v.Span)
		s.AddToScope(v)
		stmts = append(stmts, ast.NewDeclStmt(v.Span, v))
	}

	captures := s.ActOnFragmentCapture(span)
	frag := s.ActOnStartFragment(captures, span)
	saved := b.placeholders
	b.placeholders = make(map[string]*ast.Decl, len(captures))
	for i, ph := range frag.Placeholders() {
		b.placeholders[captures[i].Referenced().Name] = ph
	}

	var content *ast.Decl
	switch spec.Content {
	case "", "class", "struct":
		content = c.NewRecord(frag, "", span, spec.Content != "class")
		c.StartDefinition(content)
		b.within(content, spec.Members)
		c.CompleteDefinition(content)
	case "namespace":
		content = c.NewNamespace(frag, "", span)
		b.within(content, spec.Members)
	default:
		b.errorf(diag.ProjInvalidScenario, b.loc.ref(spec.Content), "fragment content must be class, struct or namespace, got %q", spec.Content)
	}
	b.placeholders = saved
	s.ActOnFinishFragment(frag, content)

	var fe *ast.Expr
	ok := content != nil
	if ok {
		fe, ok = s.BuildFragmentExpr(span, captures, frag)
	}
	pop()
	s.PopDeclContext(maker)
	if !ok {
		c.TU.RemoveDecl(maker)
		return
	}
	maker.Result = fe.Type
	c.SetParams(maker, nil)
	maker.Body = ast.NewCompound(span, append(stmts, ast.NewReturn(fe, span))...)
	b.frags[spec.Name] = fragment{maker: maker, content: content}
}

// reflection builds the reflection operand naming a fragment, a
// declaration or a type, wrapped in the requested modifier calls.
func (b *builder) reflection(frag, decl, typ string, mods []string, span source.Span) (*ast.Expr, bool) {
	var x *ast.Expr
	switch {
	case frag != "":
		f, ok := b.frags[frag]
		if !ok {
			b.errorf(diag.ProjUnknownName, b.loc.ref(frag), "unknown fragment %q", frag)
			return nil, false
		}
		if len(mods) > 0 {
			b.errorf(diag.ProjInvalidScenario, span, "modifiers apply to declarations, not fragments")
			return nil, false
		}
		return ast.NewCall(ast.NewDeclRef(f.maker, span), nil, f.maker.Result, span), true
	case decl != "":
		d := b.lookup(decl)
		if d == nil {
			return nil, false
		}
		x = b.lib.Reflect(ast.Reflected{Decl: d}, span)
	case typ != "":
		x = b.lib.Reflect(ast.Reflected{Type: b.typeOf(typ, b.ctx.Int)}, span)
	default:
		b.errorf(diag.ProjInvalidScenario, span, "nothing to reflect: set fragment, decl or type")
		return nil, false
	}
	for _, name := range mods {
		fn, ok := b.lib.Intrinsic(name)
		if !ok {
			b.errorf(diag.ProjUnknownName, b.loc.ref(name), "unknown modifier %q", name)
			return nil, false
		}
		x = ast.NewCall(ast.NewDeclRef(fn, span), []*ast.Expr{x}, x.Type, span)
	}
	return x, true
}

func (b *builder) constexpr(spec DeclSpec, span source.Span) {
	block := b.sema.ActOnConstexprDecl(span)
	stmts := make([]*ast.Stmt, 0, len(spec.Effects))
	for _, e := range spec.Effects {
		if st, ok := b.effect(e, span); ok {
			stmts = append(stmts, st)
		}
	}
	b.sema.ActOnFinishConstexprDecl(block, ast.NewCompound(span, stmts...))
}

func (b *builder) effect(e EffectSpec, block source.Span) (*ast.Stmt, bool) {
	span := block
	switch {
	case e.Fragment != "":
		span = b.loc.ref(e.Fragment)
	case e.Decl != "":
		span = b.loc.ref(e.Decl)
	}
	refl, ok := b.reflection(e.Fragment, e.Decl, e.Type, e.Modifiers, span)
	if !ok {
		return nil, false
	}
	switch e.Action {
	case "", "inject":
		if e.Target == "" {
			return b.sema.BuildInjectionStmt(span, refl)
		}
		target := b.lookup(e.Target)
		if target == nil {
			return nil, false
		}
		return b.sema.BuildExtensionStmt(span, b.lib.Reflect(ast.Reflected{Decl: target}, span), refl)
	case "print":
		return ast.NewPrint(refl, span), true
	}
	b.errorf(diag.ProjInvalidScenario, b.loc.ref(e.Action), "unknown effect action %q", e.Action)
	return nil, false
}

func (b *builder) injection(spec DeclSpec, span source.Span) {
	refl, ok := b.reflection(spec.Fragment, spec.Reflect, "", spec.Modifiers, span)
	if !ok {
		return
	}
	b.sema.ActOnInjectionDecl(span, refl)
}

// generated declares
//
//	constexpr void __generate_<name>(auto target, auto proto) {
//	  -> target : ^<prototype>::<copy>; ...
//	}
//	class(__generate_<name>) <name> : <prototype>;
func (b *builder) generated(spec DeclSpec, span source.Span) {
	proto := b.lookup(spec.Prototype)
	if proto == nil {
		return
	}
	c := b.ctx
	target := c.NewParam(nil, "target", c.Dependent, 0, span)
	protoParam := c.NewParam(nil, "proto", c.Dependent, 1, span)
	gen := c.NewFunction(ast.DeclFunction, c.TU, "__generate_"+spec.Name, nil, []*ast.Decl{target, protoParam}, span)
	gen.Set(ast.FlagConstexpr|ast.FlagImplicit, true)
	var stmts []*ast.Stmt
	for _, name := range spec.Copy {
		refl, ok := b.reflection("", spec.Prototype+"::"+name, "", spec.Modifiers, b.loc.ref(name))
		if !ok {
			continue
		}
		if st, ok := b.sema.BuildExtensionStmt(span, ast.NewDeclRef(target, span), refl); ok {
			stmts = append(stmts, st)
		}
	}
	gen.Body = ast.NewCompound(span, stmts...)
	c.TU.AddDecl(gen)
	b.sema.ActOnGeneratedTypeDecl(span, spec.Class, spec.Name,
		ast.NewDeclRef(gen, span), b.lib.Reflect(ast.Reflected{Decl: proto}, span))
}

// finish instantiates bodies deferred by lazy cloning.
func (b *builder) finish() {
	if err := b.sema.Cloner.PerformPendingInstantiations(); err != nil {
		b.errorf(diag.SemaCloneFailed, source.Span{File: b.loc.file}, "deferred instantiation failed: %v", err)
	}
}
