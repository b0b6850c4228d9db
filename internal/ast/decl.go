package ast

import (
	"slices"
	"strings"

	"splice/internal/source"
)

// DeclKind enumerates declaration kinds of the graph.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	// DeclTranslationUnit is the root file context.
	DeclTranslationUnit
	DeclNamespace
	// DeclRecord is a class or struct.
	DeclRecord
	DeclField
	DeclVar
	DeclParam
	DeclFunction
	DeclMethod
	DeclConstructor
	DeclDestructor
	// DeclFragment wraps captured content plus one placeholder per capture.
	DeclFragment
	DeclTypeAlias
	// DeclConstexpr is a `constexpr { ... }` block evaluated at compile time.
	DeclConstexpr
	// DeclInjection is an injection declaration whose operand is still dependent.
	DeclInjection
)

func (k DeclKind) String() string {
	switch k {
	case DeclTranslationUnit:
		return "translation unit"
	case DeclNamespace:
		return "namespace"
	case DeclRecord:
		return "record"
	case DeclField:
		return "field"
	case DeclVar:
		return "variable"
	case DeclParam:
		return "parameter"
	case DeclFunction:
		return "function"
	case DeclMethod:
		return "method"
	case DeclConstructor:
		return "constructor"
	case DeclDestructor:
		return "destructor"
	case DeclFragment:
		return "fragment"
	case DeclTypeAlias:
		return "type alias"
	case DeclConstexpr:
		return "constexpr block"
	case DeclInjection:
		return "injection"
	default:
		return "invalid"
	}
}

// AccessSpec is a member access level.
type AccessSpec uint8

const (
	AccessNone AccessSpec = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a AccessSpec) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return ""
	}
}

// StorageClass is the written storage class of a variable or function.
type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
)

func (s StorageClass) String() string {
	switch s {
	case StorageStatic:
		return "static"
	case StorageExtern:
		return "extern"
	default:
		return ""
	}
}

// DeclFlags holds boolean properties of a declaration.
type DeclFlags uint32

const (
	FlagImplicit DeclFlags = 1 << iota
	FlagInvalid
	FlagConstexpr
	FlagVirtual
	FlagPure
	FlagDefaulted
	FlagDeleted
	FlagExplicit
	FlagInline
	// FlagInjectedClassName marks the implicit self-reference every record carries.
	FlagInjectedClassName
	// FlagFragmentClass marks the synthetic aggregate built for a fragment expression.
	FlagFragmentClass
	FlagReferenced
	FlagUsed
	// FlagInjected marks parameters spliced in from a reflected function.
	FlagInjected
	FlagComplete
	FlagBeingDefined
	// FlagDependent marks a template pattern; every context below it is dependent.
	FlagDependent
	FlagAbstract
	// FlagStruct selects struct (public default access) over class.
	FlagStruct
)

var flagNames = []struct {
	flag DeclFlags
	name string
}{
	{FlagImplicit, "implicit"},
	{FlagInvalid, "invalid"},
	{FlagConstexpr, "constexpr"},
	{FlagVirtual, "virtual"},
	{FlagPure, "pure"},
	{FlagDefaulted, "defaulted"},
	{FlagDeleted, "deleted"},
	{FlagExplicit, "explicit"},
	{FlagInline, "inline"},
	{FlagInjectedClassName, "injected-class-name"},
	{FlagFragmentClass, "fragment-class"},
	{FlagReferenced, "referenced"},
	{FlagUsed, "used"},
	{FlagInjected, "injected"},
	{FlagComplete, "complete"},
	{FlagBeingDefined, "being-defined"},
	{FlagDependent, "dependent"},
	{FlagAbstract, "abstract"},
	{FlagStruct, "struct"},
}

// Names lists the set flags in declaration order.
func (f DeclFlags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

// BaseSpec is one base-class specifier of a record.
type BaseSpec struct {
	Type    *Type
	Access  AccessSpec
	Virtual bool
	Span    source.Span
}

// CtorInit is one entry of a constructor initializer list. Exactly one of
// Base and Field is set.
type CtorInit struct {
	Base  *Type
	Field *Decl
	Init  *Expr
}

// Decl is a node of the declaration graph. Kind selects which of the
// optional fields are meaningful.
type Decl struct {
	Kind    DeclKind
	Name    string
	Span    source.Span
	Parent  *Decl // semantic declaration context
	Type    *Type
	Access  AccessSpec
	Storage StorageClass
	Flags   DeclFlags

	Members []*Decl    // declaration contexts
	Bases   []BaseSpec // records

	Init   *Expr      // variables, fields, parameter defaults
	Params []*Decl    // function-like declarations
	Result *Type      // function-like declarations
	Body   *Stmt      // function body or constexpr block
	Inits  []CtorInit // constructors
	Index  int        // parameter position

	Content *Decl     // fragments
	Target  *Type     // type aliases
	Operand *Expr     // dependent injection declarations
	Pattern *Decl     // declaration this one was cloned from
	Meta    *MetaInfo // reflection meta classes

	version uint32
	layout  []*Decl
}

func (d *Decl) Has(f DeclFlags) bool { return d != nil && d.Flags&f != 0 }

func (d *Decl) Set(f DeclFlags, on bool) {
	if on {
		d.Flags |= f
	} else {
		d.Flags &^= f
	}
}

func (d *Decl) IsInvalid() bool { return d.Has(FlagInvalid) }

func (d *Decl) SetInvalid(on bool) { d.Set(FlagInvalid, on) }

func (d *Decl) IsImplicit() bool { return d.Has(FlagImplicit) }

// IsDeclContext reports whether d can own member declarations.
func (d *Decl) IsDeclContext() bool {
	if d == nil {
		return false
	}
	switch d.Kind {
	case DeclTranslationUnit, DeclNamespace, DeclRecord, DeclFragment,
		DeclFunction, DeclMethod, DeclConstructor, DeclDestructor:
		return true
	}
	return false
}

func (d *Decl) IsRecord() bool { return d != nil && d.Kind == DeclRecord }

func (d *Decl) IsNamespace() bool { return d != nil && d.Kind == DeclNamespace }

func (d *Decl) IsTranslationUnit() bool { return d != nil && d.Kind == DeclTranslationUnit }

// IsFileContext reports namespace or translation unit scope.
func (d *Decl) IsFileContext() bool { return d.IsNamespace() || d.IsTranslationUnit() }

func (d *Decl) IsFragment() bool { return d != nil && d.Kind == DeclFragment }

// IsFunctionOrMethod covers free functions and every member function kind.
func (d *Decl) IsFunctionOrMethod() bool {
	if d == nil {
		return false
	}
	switch d.Kind {
	case DeclFunction, DeclMethod, DeclConstructor, DeclDestructor:
		return true
	}
	return false
}

// IsMethod covers member functions, constructors and destructors included.
func (d *Decl) IsMethod() bool {
	if d == nil {
		return false
	}
	switch d.Kind {
	case DeclMethod, DeclConstructor, DeclDestructor:
		return true
	}
	return false
}

func (d *Decl) IsInjectedClassName() bool {
	return d.IsRecord() && d.Has(FlagInjectedClassName)
}

// IsDependentContext reports whether d or any enclosing context is a
// template pattern or a fragment.
func (d *Decl) IsDependentContext() bool {
	for c := d; c != nil; c = c.Parent {
		if c.Has(FlagDependent) || c.Kind == DeclFragment {
			return true
		}
	}
	return false
}

// IsCodeContext reports contexts whose locals have automatic storage:
// functions and constexpr blocks.
func (d *Decl) IsCodeContext() bool {
	return d.IsFunctionOrMethod() || d != nil && d.Kind == DeclConstexpr
}

// HasBody reports whether a function-like declaration carries a definition body.
func (d *Decl) HasBody() bool { return d.IsFunctionOrMethod() && d.Body != nil }

// IsDefined reports a function that already has a definition of any form.
func (d *Decl) IsDefined() bool {
	return d.HasBody() || d.Has(FlagDefaulted) || d.Has(FlagDeleted)
}

// HasLocalStorage reports automatic storage: parameters and non-static
// variables declared inside a function.
func (d *Decl) HasLocalStorage() bool {
	switch d.Kind {
	case DeclParam:
		return true
	case DeclVar:
		return d.Storage == StorageNone && d.Parent.IsCodeContext()
	}
	return false
}

// IsLocalVarOrParm reports function-local variables (any storage) and parameters.
func (d *Decl) IsLocalVarOrParm() bool {
	switch d.Kind {
	case DeclParam:
		return true
	case DeclVar:
		return d.Parent.IsCodeContext()
	}
	return false
}

// AddDecl appends m to d's members and re-homes it.
func (d *Decl) AddDecl(m *Decl) {
	m.Parent = d
	d.Members = append(d.Members, m)
	d.UpdateDecl(m)
}

// RemoveDecl detaches m from d. Reports whether it was a member.
func (d *Decl) RemoveDecl(m *Decl) bool {
	i := slices.Index(d.Members, m)
	if i < 0 {
		return false
	}
	d.Members = slices.Delete(d.Members, i, i+1)
	d.UpdateDecl(m)
	return true
}

// UpdateDecl notifies d that member m changed; cached layout is dropped.
func (d *Decl) UpdateDecl(*Decl) {
	d.version++
	d.layout = nil
}

// Version counts member notifications; tests use it to observe updates.
func (d *Decl) Version() uint32 { return d.version }

// Lookup returns members named name in declaration order.
func (d *Decl) Lookup(name string) []*Decl {
	var out []*Decl
	for _, m := range d.Members {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Fields returns the record's non-static data members in declaration order.
// This is the per-instance layout.
func (d *Decl) Fields() []*Decl {
	if d.layout != nil {
		return d.layout
	}
	out := make([]*Decl, 0, len(d.Members))
	for _, m := range d.Members {
		if m.Kind == DeclField {
			out = append(out, m)
		}
	}
	d.layout = out
	return out
}

// FieldIndex returns the position of a field inside its record layout.
func (d *Decl) FieldIndex() int {
	if d.Kind != DeclField || d.Parent == nil {
		return -1
	}
	return slices.Index(d.Parent.Fields(), d)
}

// InjectedClassName returns the record's implicit self-reference.
func (d *Decl) InjectedClassName() *Decl {
	for _, m := range d.Members {
		if m.IsInjectedClassName() {
			return m
		}
	}
	return nil
}

// Placeholders returns the leading placeholder variables of a fragment.
func (d *Decl) Placeholders() []*Decl {
	if !d.IsFragment() {
		return nil
	}
	var out []*Decl
	for _, m := range d.Members {
		if m.Kind != DeclVar || !m.IsImplicit() {
			break
		}
		out = append(out, m)
	}
	return out
}

// QualifiedName joins names from the outermost named context.
func (d *Decl) QualifiedName() string {
	var parts []string
	for c := d; c != nil && !c.IsTranslationUnit(); c = c.Parent {
		if c.IsFragment() || c.IsFunctionOrMethod() && c != d {
			break
		}
		if c.Name != "" {
			parts = append(parts, c.Name)
		}
	}
	slices.Reverse(parts)
	return strings.Join(parts, "::")
}

// DefaultAccess is the implicit access of members of record d.
func (d *Decl) DefaultAccess() AccessSpec {
	if d.Has(FlagStruct) {
		return AccessPublic
	}
	return AccessPrivate
}
