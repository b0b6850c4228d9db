package ast

import (
	"splice/internal/source"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	ExprIntLit ExprKind = iota
	ExprBoolLit
	// ExprDeclRef names a declaration.
	ExprDeclRef
	// ExprImplicitCast is a conversion the compiler inserted.
	ExprImplicitCast
	// ExprOpaque stands for a value that is never evaluated as written.
	ExprOpaque
	// ExprConstant carries an already computed compile-time value.
	ExprConstant
	// ExprConstruct calls a constructor.
	ExprConstruct
	// ExprFunctionalCast is T(x) around a single-argument construction.
	ExprFunctionalCast
	// ExprTemporaryObject is T(a, b, ...) with zero or several arguments.
	ExprTemporaryObject
	ExprParenList
	// ExprFragment is a fragment literal together with its captures.
	ExprFragment
	// ExprReflect is the reflection operator applied to a declaration or type.
	ExprReflect
	ExprBinary
	ExprCall
)

func (k ExprKind) String() string {
	switch k {
	case ExprIntLit:
		return "IntLit"
	case ExprBoolLit:
		return "BoolLit"
	case ExprDeclRef:
		return "DeclRef"
	case ExprImplicitCast:
		return "ImplicitCast"
	case ExprOpaque:
		return "Opaque"
	case ExprConstant:
		return "Constant"
	case ExprConstruct:
		return "Construct"
	case ExprFunctionalCast:
		return "FunctionalCast"
	case ExprTemporaryObject:
		return "TemporaryObject"
	case ExprParenList:
		return "ParenList"
	case ExprFragment:
		return "Fragment"
	case ExprReflect:
		return "Reflect"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	default:
		return "Unknown"
	}
}

// ValueCategory distinguishes lvalues from prvalues.
type ValueCategory uint8

const (
	RValue ValueCategory = iota
	LValue
)

// Expr is an expression node. Data holds the kind-specific payload.
type Expr struct {
	Kind      ExprKind
	Type      *Type
	Span      source.Span
	Category  ValueCategory
	Dependent bool // type- or value-dependent
	Data      ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

type IntLitData struct{ Value int64 }

type BoolLitData struct{ Value bool }

type DeclRefData struct{ Decl *Decl }

// CastKind enumerates implicit conversions.
type CastKind uint8

const (
	CastNoOp CastKind = iota
	CastLValueToRValue
)

type ImplicitCastData struct {
	Cast CastKind
	Sub  *Expr
}

// OpaqueData optionally remembers the expression the opaque value replaced.
type OpaqueData struct{ Source *Expr }

type ConstantData struct {
	Sub   *Expr
	Value Value
}

type ConstructData struct {
	Ctor *Decl
	Args []*Expr
	List bool
}

type FunctionalCastData struct{ Sub *Expr }

type TemporaryObjectData struct {
	Ctor *Decl
	Args []*Expr
}

type ParenListData struct{ Exprs []*Expr }

// FragmentData: Init is nil while the fragment is dependent.
type FragmentData struct {
	Captures []*Expr
	Fragment *Decl
	Init     *Expr
}

type ReflectData struct{ Construct Reflected }

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpAssign
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpAssign:
		return "="
	}
	return "?"
}

type BinaryData struct {
	Op   BinaryOp
	L, R *Expr
}

type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (IntLitData) exprData()          {}
func (BoolLitData) exprData()         {}
func (DeclRefData) exprData()         {}
func (ImplicitCastData) exprData()    {}
func (OpaqueData) exprData()          {}
func (ConstantData) exprData()        {}
func (ConstructData) exprData()       {}
func (FunctionalCastData) exprData()  {}
func (TemporaryObjectData) exprData() {}
func (ParenListData) exprData()       {}
func (FragmentData) exprData()        {}
func (ReflectData) exprData()         {}
func (BinaryData) exprData()          {}
func (CallData) exprData()            {}

// IsGLValue reports whether e designates an object.
func (e *Expr) IsGLValue() bool { return e != nil && e.Category == LValue }

// IsTypeDependent reports a dependent expression or one of dependent type.
func (e *Expr) IsTypeDependent() bool {
	return e != nil && (e.Dependent || e.Type.IsDependent())
}

// Referenced returns the declaration named by a DeclRef, looking through
// implicit casts.
func (e *Expr) Referenced() *Decl {
	e = e.IgnoreImplicit()
	if e == nil || e.Kind != ExprDeclRef {
		return nil
	}
	return e.Data.(DeclRefData).Decl //nolint:errcheck // kind checked above
}

// IgnoreImplicit strips compiler-inserted casts.
func (e *Expr) IgnoreImplicit() *Expr {
	for e != nil && e.Kind == ExprImplicitCast {
		e = e.Data.(ImplicitCastData).Sub //nolint:errcheck // kind checked above
	}
	return e
}

func NewIntLit(c *Context, v int64, span source.Span) *Expr {
	return &Expr{Kind: ExprIntLit, Type: c.Int, Span: span, Data: IntLitData{Value: v}}
}

func NewBoolLit(c *Context, v bool, span source.Span) *Expr {
	return &Expr{Kind: ExprBoolLit, Type: c.Bool, Span: span, Data: BoolLitData{Value: v}}
}

// NewDeclRef builds an lvalue reference to d.
func NewDeclRef(d *Decl, span source.Span) *Expr {
	cat := LValue
	if d.IsFunctionOrMethod() || d.Kind == DeclRecord {
		cat = RValue
	}
	return &Expr{
		Kind:      ExprDeclRef,
		Type:      d.Type,
		Span:      span,
		Category:  cat,
		Dependent: d.Type.IsDependent(),
		Data:      DeclRefData{Decl: d},
	}
}

func NewImplicitCast(cast CastKind, sub *Expr) *Expr {
	return &Expr{
		Kind:      ExprImplicitCast,
		Type:      sub.Type,
		Span:      sub.Span,
		Dependent: sub.Dependent,
		Data:      ImplicitCastData{Cast: cast, Sub: sub},
	}
}

// ToRValue applies an lvalue-to-rvalue conversion when e is a glvalue.
func ToRValue(e *Expr) *Expr {
	if !e.IsGLValue() {
		return e
	}
	return NewImplicitCast(CastLValueToRValue, e)
}

func NewOpaque(ty *Type, span source.Span, src *Expr) *Expr {
	return &Expr{Kind: ExprOpaque, Type: ty, Span: span, Dependent: ty.IsDependent(), Data: OpaqueData{Source: src}}
}

func NewConstant(sub *Expr, v Value) *Expr {
	return &Expr{Kind: ExprConstant, Type: sub.Type, Span: sub.Span, Data: ConstantData{Sub: sub, Value: v}}
}

func NewReflect(ty *Type, construct Reflected, span source.Span) *Expr {
	return &Expr{Kind: ExprReflect, Type: ty, Span: span, Data: ReflectData{Construct: construct}}
}

func NewBinary(op BinaryOp, l, r *Expr, span source.Span) *Expr {
	e := &Expr{Kind: ExprBinary, Type: l.Type, Span: span, Data: BinaryData{Op: op, L: l, R: r}}
	e.Dependent = l.IsTypeDependent() || r.IsTypeDependent()
	if op == OpAssign {
		e.Category = LValue
	}
	return e
}

func NewCall(callee *Expr, args []*Expr, result *Type, span source.Span) *Expr {
	dep := callee.IsTypeDependent()
	for _, a := range args {
		dep = dep || a.IsTypeDependent()
	}
	return &Expr{Kind: ExprCall, Type: result, Span: span, Dependent: dep, Data: CallData{Callee: callee, Args: args}}
}

// NewConstruct builds a constructor call producing ty.
func NewConstruct(ty *Type, ctor *Decl, args []*Expr, span source.Span) *Expr {
	e := &Expr{Kind: ExprConstruct, Type: ty, Span: span, Data: ConstructData{Ctor: ctor, Args: args}}
	for _, a := range args {
		e.Dependent = e.Dependent || a.IsTypeDependent()
	}
	return e
}

func NewFunctionalCast(ty *Type, sub *Expr, span source.Span) *Expr {
	return &Expr{Kind: ExprFunctionalCast, Type: ty, Span: span, Dependent: sub.IsTypeDependent(), Data: FunctionalCastData{Sub: sub}}
}

func NewTemporaryObject(ty *Type, ctor *Decl, args []*Expr, span source.Span) *Expr {
	e := &Expr{Kind: ExprTemporaryObject, Type: ty, Span: span, Data: TemporaryObjectData{Ctor: ctor, Args: args}}
	for _, a := range args {
		e.Dependent = e.Dependent || a.IsTypeDependent()
	}
	return e
}

// NewParenList builds a parenthesized initializer; ty is the initialized type.
func NewParenList(ty *Type, exprs []*Expr, span source.Span) *Expr {
	e := &Expr{Kind: ExprParenList, Type: ty, Span: span, Data: ParenListData{Exprs: exprs}}
	for _, x := range exprs {
		e.Dependent = e.Dependent || x.IsTypeDependent()
	}
	return e
}

// NewFragmentExpr builds a fragment expression; init is nil while dependent.
func NewFragmentExpr(ty *Type, captures []*Expr, frag *Decl, init *Expr, span source.Span) *Expr {
	return &Expr{
		Kind:      ExprFragment,
		Type:      ty,
		Span:      span,
		Dependent: init == nil,
		Data:      FragmentData{Captures: captures, Fragment: frag, Init: init},
	}
}
