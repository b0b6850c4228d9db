package clone

import (
	"fmt"

	"splice/internal/ast"
)

func (in *Instantiation) cloneDecl(d, owner *ast.Decl) (*ast.Decl, error) {
	if d.IsInvalid() {
		return nil, &Error{Kind: ErrInvalidDecl, Span: d.Span, Msg: fmt.Sprintf("%s %q is invalid", d.Kind, d.Name)}
	}
	nd := &ast.Decl{
		Kind:    d.Kind,
		Name:    d.Name,
		Span:    d.Span,
		Parent:  owner,
		Access:  d.Access,
		Storage: d.Storage,
		Flags:   d.Flags &^ (ast.FlagReferenced | ast.FlagUsed),
		Index:   d.Index,
		Pattern: d,
		Meta:    d.Meta,
	}
	in.locals[d] = nd
	switch d.Kind {
	case ast.DeclField, ast.DeclVar, ast.DeclParam:
		nd.Type = in.substType(d.Type)
		nd.Init = in.cloneExpr(d.Init)
	case ast.DeclFunction, ast.DeclMethod, ast.DeclConstructor, ast.DeclDestructor:
		if err := in.cloneFunction(d, nd); err != nil {
			return nil, err
		}
	case ast.DeclRecord:
		if err := in.cloneRecord(d, nd); err != nil {
			return nil, err
		}
	case ast.DeclNamespace, ast.DeclFragment:
		for _, m := range d.Members {
			cm, err := in.cloneDecl(m, nd)
			if err != nil {
				return nil, err
			}
			nd.AddDecl(cm)
		}
		if d.Content != nil {
			nd.Content = in.locals[d.Content]
		}
	case ast.DeclTypeAlias:
		nd.Target = in.substType(d.Target)
	case ast.DeclConstexpr:
		nd.Body = in.cloneStmt(d.Body, nd)
		in.deferred = append(in.deferred, nd)
	case ast.DeclInjection:
		nd.Operand = in.cloneExpr(d.Operand)
		in.deferred = append(in.deferred, nd)
	default:
		return nil, &Error{Kind: ErrUnsupported, Span: d.Span, Msg: fmt.Sprintf("cannot clone %s", d.Kind)}
	}
	return nd, nil
}

func (in *Instantiation) cloneRecord(d, nd *ast.Decl) error {
	ctx := in.c.Ctx
	ctx.RecordType(nd)
	nd.Set(ast.FlagComplete|ast.FlagBeingDefined, false)
	ctx.StartDefinition(nd)
	if old, icn := d.InjectedClassName(), nd.InjectedClassName(); old != nil && icn != nil {
		in.locals[old] = icn
	}
	for _, b := range d.Bases {
		nd.Bases = append(nd.Bases, ast.BaseSpec{
			Type:    in.substType(b.Type),
			Access:  b.Access,
			Virtual: b.Virtual,
			Span:    b.Span,
		})
	}
	for _, m := range d.Members {
		if m.IsInjectedClassName() {
			continue
		}
		cm, err := in.cloneDecl(m, nd)
		if err != nil {
			return err
		}
		nd.AddDecl(cm)
	}
	if d.Has(ast.FlagComplete) {
		ctx.CompleteDefinition(nd)
	}
	return nil
}

func (in *Instantiation) cloneFunction(d, nd *ast.Decl) error {
	params := make([]*ast.Decl, 0, len(d.Params))
	for _, p := range d.Params {
		if p.Type != nil && p.Type.Kind == ast.TypeInjectedParm {
			expanded, err := in.expandParameters(p)
			if err != nil {
				return err
			}
			params = append(params, expanded...)
			continue
		}
		np, err := in.cloneDecl(p, nd)
		if err != nil {
			return err
		}
		params = append(params, np)
	}
	nd.Result = in.substType(d.Result)
	in.c.Ctx.SetParams(nd, params)
	for _, ci := range d.Inits {
		nd.Inits = append(nd.Inits, ast.CtorInit{Base: in.substType(ci.Base), Init: in.cloneExpr(ci.Init)})
		if ci.Field != nil {
			i := len(nd.Inits) - 1
			nd.Inits[i].Field = in.resolveDecl(ci.Field, nil, func(f *ast.Decl) { nd.Inits[i].Field = f })
		}
	}
	if d.Body == nil {
		return nil
	}
	if in.c.Opts.LazyBodies && !d.Has(ast.FlagConstexpr) {
		in.c.pending = append(in.c.pending, pendingBody{fn: nd, inst: in})
		return nil
	}
	nd.Body = in.cloneStmt(d.Body, nd)
	return nil
}

// expandParameters splices the parameters an injected parameter pack
// names; each becomes an injected parameter of the clone.
func (in *Instantiation) expandParameters(p *ast.Decl) ([]*ast.Decl, error) {
	parms := p.Type.ParmDecls
	if parms == nil {
		if in.c.Hooks == nil {
			return nil, &Error{Kind: ErrUnsupported, Span: p.Span, Msg: "dependent injected parameter"}
		}
		var err error
		if parms, err = in.c.Hooks.ExpandParameters(p.Type); err != nil {
			return nil, &Error{Kind: ErrDeferred, Span: p.Span, Msg: "expanding injected parameters", Err: err}
		}
	}
	out := make([]*ast.Decl, 0, len(parms))
	for _, src := range parms {
		np, err := in.cloneDecl(src, p.Parent)
		if err != nil {
			return nil, err
		}
		np.Set(ast.FlagInjected, true)
		out = append(out, np)
	}
	return out, nil
}

// mapContext returns the counterpart of context d, or nil when d is not
// being substituted.
func (in *Instantiation) mapContext(d *ast.Decl) *ast.Decl {
	if d == nil {
		return nil
	}
	if nd, ok := in.locals[d]; ok {
		return nd
	}
	if nd, ok := in.subst.DeclReplacement(d); ok && nd != d {
		return nd
	}
	return nil
}

// resolveDecl maps a referenced declaration to its counterpart. A
// reference into a substituted context whose target does not exist yet
// is recorded and patched by Finish.
func (in *Instantiation) resolveDecl(d *ast.Decl, ref *ast.Expr, patch func(*ast.Decl)) *ast.Decl {
	if d == nil {
		return nil
	}
	if nd, ok := in.locals[d]; ok {
		return nd
	}
	if nd, ok := in.subst.DeclReplacement(d); ok {
		return nd
	}
	if d.IsInjectedClassName() {
		if owner := in.mapContext(d.Parent); owner.IsRecord() {
			if icn := owner.InjectedClassName(); icn != nil {
				return icn
			}
		}
		return d
	}
	scope := in.mapContext(d.Parent)
	if scope == nil || !scope.IsDeclContext() {
		return d
	}
	if nd := lookupLike(scope, d); nd != nil {
		return nd
	}
	if ref == nil {
		ref = &ast.Expr{Span: d.Span}
	}
	in.fixups = append(in.fixups, fixup{orig: d, scope: scope, ref: ref, patch: patch})
	return d
}

func (in *Instantiation) substType(t *ast.Type) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.TypeRecord:
		if nd := in.mapContext(t.Decl); nd.IsRecord() {
			return in.c.Ctx.RecordType(nd)
		}
	case ast.TypeFunction:
		changed := false
		params := make([]*ast.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = in.substType(p)
			changed = changed || params[i] != p
		}
		result := in.substType(t.Result)
		if changed || result != t.Result {
			return in.c.Ctx.FunctionType(result, params)
		}
	case ast.TypeInjectedParm:
		if t.ParmDecls == nil {
			return in.c.Ctx.InjectedParmType(in.cloneExpr(t.Operand), nil)
		}
	}
	return t
}
