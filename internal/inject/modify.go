package inject

import (
	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/meta"
	"splice/internal/source"
)

// modRules says which modifications a declaration kind accepts.
type modRules struct {
	// constexpr is the diagnostic for a constexpr request, zero when legal.
	constexpr diag.Code
	virtual   bool
}

var modTable = map[ast.DeclKind]modRules{
	ast.DeclVar:         {},
	ast.DeclFunction:    {},
	ast.DeclMethod:      {virtual: true},
	ast.DeclConstructor: {},
	ast.DeclDestructor:  {constexpr: diag.SemaConstexprDestructor, virtual: true},
}

func rulesFor(k ast.DeclKind) modRules {
	if r, ok := modTable[k]; ok {
		return r
	}
	return modRules{constexpr: diag.SemaConstexprNotApplicable}
}

// modPlan is a validated set of changes for one copied declaration.
type modPlan struct {
	static    bool           // field rewritten as a static member variable
	access    ast.AccessSpec // AccessNone leaves the clone's access alone
	constexpr bool
	virtual   bool
	pure      bool
}

// planModifications validates m against d, the declaration about to be
// copied into injectee, before anything is cloned. Checks run in a fixed
// order: access, constexpr, virtual, pure.
func (s *Sema) planModifications(poi source.Span, d, injectee *ast.Decl, m meta.Modifications) (modPlan, bool) {
	var p modPlan
	kind := d.Kind
	if kind == ast.DeclField && m.Storage == meta.StorageStatic {
		p.static = true
		kind = ast.DeclVar
	}
	rules := rulesFor(kind)
	fail := func(code diag.Code, format string, args ...any) (modPlan, bool) {
		if b := s.errorf(code, poi, format, args...); b != nil {
			b.WithNote(d.Span, "declared here").Emit()
		}
		return modPlan{}, false
	}

	access := d.Access
	switch m.Access {
	case meta.AccessNoChange, meta.AccessDefault:
		if m.Access == meta.AccessDefault && !injectee.IsRecord() {
			return fail(diag.SemaAccessOnNonMember, "cannot change the access of %q outside a class", d.Name)
		}
		if injectee.IsRecord() && access == ast.AccessNone {
			p.access = ast.AccessPublic
		}
	default:
		if !injectee.IsRecord() {
			return fail(diag.SemaAccessOnNonMember, "cannot change the access of %q outside a class", d.Name)
		}
		p.access = accessSpec(m.Access)
	}

	virtual := d.Has(ast.FlagVirtual) || m.Virtual
	if m.Constexpr {
		if rules.constexpr != 0 {
			return fail(rules.constexpr, "%s %q cannot be made constexpr", kind, d.Name)
		}
		switch {
		case kind == ast.DeclVar && d.Init == nil:
			return fail(diag.SemaConstexprVarNoInit, "constexpr variable %q requires an initializer", d.Name)
		case kind != ast.DeclVar && virtual:
			return fail(diag.SemaConstexprVirtual, "virtual function %q cannot be constexpr", d.Name)
		}
		p.constexpr = true
	}

	if m.Virtual {
		if !rules.virtual {
			return fail(diag.SemaVirtualNonMethod, "%s %q cannot be made virtual", kind, d.Name)
		}
		p.virtual = true
	}

	// pure is only honoured together with a virtual request, even when d
	// is already virtual
	if m.Pure {
		switch {
		case !m.Virtual:
			return fail(diag.SemaPureWithoutVirtual, "%q must be made virtual to be made pure", d.Name)
		case d.Has(ast.FlagDefaulted):
			return fail(diag.SemaPureDefaulted, "cannot make defaulted %q pure virtual", d.Name)
		case d.Has(ast.FlagDeleted):
			return fail(diag.SemaPureDeleted, "cannot make deleted %q pure virtual", d.Name)
		case d.HasBody():
			return fail(diag.SemaPureDefined, "cannot make defined %q pure virtual", d.Name)
		}
		p.pure = true
	}
	return p, true
}

// apply decorates the clone nd, already a member of injectee.
func (p modPlan) apply(nd, injectee *ast.Decl) {
	if p.access != ast.AccessNone {
		nd.Access = p.access
	}
	if p.constexpr {
		nd.Set(ast.FlagConstexpr, true)
	}
	if p.virtual {
		nd.Set(ast.FlagVirtual, true)
	}
	if p.pure {
		nd.Set(ast.FlagPure, true)
		injectee.Set(ast.FlagAbstract, true)
	}
}

func accessSpec(a meta.AccessMod) ast.AccessSpec {
	switch a {
	case meta.AccessPublic:
		return ast.AccessPublic
	case meta.AccessPrivate:
		return ast.AccessPrivate
	case meta.AccessProtected:
		return ast.AccessProtected
	}
	return ast.AccessNone
}
