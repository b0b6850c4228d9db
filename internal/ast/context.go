package ast

import (
	"fmt"

	"splice/internal/source"
)

// Context owns the canonical types and the translation unit.
type Context struct {
	Idents *source.Interner
	TU     *Decl

	Void      *Type
	Bool      *Type
	Int       *Type
	Dependent *Type

	records map[*Decl]*Type
}

func NewContext() *Context {
	c := &Context{
		Idents:    source.NewInterner(),
		Void:      &Type{Kind: TypeVoid},
		Bool:      &Type{Kind: TypeBool},
		Int:       &Type{Kind: TypeInt},
		Dependent: &Type{Kind: TypeDependent},
		records:   make(map[*Decl]*Type),
	}
	c.TU = &Decl{Kind: DeclTranslationUnit, Flags: FlagComplete}
	return c
}

// Ident returns the canonical spelling of a name.
func (c *Context) Ident(name string) string {
	if name == "" {
		return ""
	}
	return c.Idents.Canonical(name)
}

// RecordType returns the canonical type of record d.
func (c *Context) RecordType(d *Decl) *Type {
	if t, ok := c.records[d]; ok {
		return t
	}
	t := &Type{Kind: TypeRecord, Decl: d}
	c.records[d] = t
	d.Type = t
	return t
}

func (c *Context) FunctionType(result *Type, params []*Type) *Type {
	return &Type{Kind: TypeFunction, Result: result, Params: params}
}

// InjectedParmType builds the type of a parameter pack taken from operand;
// parms is nil while the operand is dependent.
func (c *Context) InjectedParmType(operand *Expr, parms []*Decl) *Type {
	return &Type{Kind: TypeInjectedParm, Operand: operand, ParmDecls: parms}
}

// TypeByName resolves builtin spellings.
func (c *Context) TypeByName(name string) (*Type, bool) {
	switch name {
	case "void":
		return c.Void, true
	case "bool":
		return c.Bool, true
	case "int":
		return c.Int, true
	}
	return nil, false
}

// The New* constructors set Parent but do not add the declaration to it;
// callers decide when the declaration becomes visible.

func (c *Context) NewNamespace(parent *Decl, name string, span source.Span) *Decl {
	return &Decl{Kind: DeclNamespace, Name: c.Ident(name), Span: span, Parent: parent, Flags: FlagComplete}
}

func (c *Context) NewRecord(parent *Decl, name string, span source.Span, isStruct bool) *Decl {
	d := &Decl{Kind: DeclRecord, Name: c.Ident(name), Span: span, Parent: parent}
	d.Set(FlagStruct, isStruct)
	c.RecordType(d)
	return d
}

// StartDefinition opens a record body and adds its injected class name.
func (c *Context) StartDefinition(d *Decl) {
	d.Set(FlagBeingDefined, true)
	if d.Name != "" && d.InjectedClassName() == nil {
		icn := &Decl{
			Kind:   DeclRecord,
			Name:   d.Name,
			Span:   d.Span,
			Flags:  FlagImplicit | FlagInjectedClassName,
			Access: AccessPublic,
		}
		icn.Type = c.RecordType(d)
		d.AddDecl(icn)
	}
}

func (c *Context) CompleteDefinition(d *Decl) {
	d.Set(FlagBeingDefined, false)
	d.Set(FlagComplete, true)
}

func (c *Context) NewField(parent *Decl, name string, ty *Type, span source.Span) *Decl {
	return &Decl{Kind: DeclField, Name: c.Ident(name), Type: ty, Span: span, Parent: parent}
}

func (c *Context) NewVar(parent *Decl, name string, ty *Type, storage StorageClass, span source.Span) *Decl {
	return &Decl{Kind: DeclVar, Name: c.Ident(name), Type: ty, Storage: storage, Span: span, Parent: parent}
}

func (c *Context) NewParam(parent *Decl, name string, ty *Type, index int, span source.Span) *Decl {
	return &Decl{Kind: DeclParam, Name: c.Ident(name), Type: ty, Index: index, Span: span, Parent: parent}
}

// NewFunction creates any function-like declaration. Parameters are
// re-parented to the new declaration and their Index fixed up.
func (c *Context) NewFunction(kind DeclKind, parent *Decl, name string, result *Type, params []*Decl, span source.Span) *Decl {
	if kind != DeclFunction && kind != DeclMethod && kind != DeclConstructor && kind != DeclDestructor {
		panic(fmt.Errorf("NewFunction: %s is not function-like", kind))
	}
	if result == nil {
		result = c.Void
	}
	fn := &Decl{Kind: kind, Name: c.Ident(name), Result: result, Span: span, Parent: parent}
	c.SetParams(fn, params)
	return fn
}

// SetParams installs params on fn and recomputes fn's function type.
func (c *Context) SetParams(fn *Decl, params []*Decl) {
	types := make([]*Type, len(params))
	for i, p := range params {
		p.Parent = fn
		p.Index = i
		types[i] = p.Type
	}
	fn.Params = params
	fn.Type = c.FunctionType(fn.Result, types)
}

func (c *Context) NewFragment(parent *Decl, span source.Span) *Decl {
	return &Decl{Kind: DeclFragment, Span: span, Parent: parent}
}

func (c *Context) NewTypeAlias(parent *Decl, name string, target *Type, span source.Span) *Decl {
	return &Decl{Kind: DeclTypeAlias, Name: c.Ident(name), Target: target, Span: span, Parent: parent}
}

func (c *Context) NewConstexprDecl(parent *Decl, span source.Span) *Decl {
	return &Decl{Kind: DeclConstexpr, Span: span, Parent: parent}
}

func (c *Context) NewInjectionDecl(parent *Decl, operand *Expr, span source.Span) *Decl {
	return &Decl{Kind: DeclInjection, Operand: operand, Span: span, Parent: parent}
}
