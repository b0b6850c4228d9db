package ast

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the kinds of types the graph needs.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	// TypeDependent is the type of anything whose meaning waits on substitution.
	TypeDependent
	TypeVoid
	TypeBool
	TypeInt
	TypeRecord
	TypeFunction
	// TypeInjectedParm is the type of a parameter pack spliced from a reflection.
	TypeInjectedParm
)

func (k TypeKind) String() string {
	switch k {
	case TypeDependent:
		return "dependent"
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeRecord:
		return "record"
	case TypeFunction:
		return "function"
	case TypeInjectedParm:
		return "injected-parm"
	default:
		return fmt.Sprintf("TypeKind(%d)", k)
	}
}

// Type is a compact descriptor. Builtins and record types are canonical
// per Context, so pointer equality is type identity for them.
type Type struct {
	Kind      TypeKind
	Decl      *Decl   // records
	Params    []*Type // functions
	Result    *Type   // functions
	Operand   *Expr   // injected parameters
	ParmDecls []*Decl // injected parameters, once resolved
}

func (t *Type) IsRecord() bool { return t != nil && t.Kind == TypeRecord }

// RecordDecl returns the record behind t, or nil.
func (t *Type) RecordDecl() *Decl {
	if !t.IsRecord() {
		return nil
	}
	return t.Decl
}

// IsDependent reports whether t still waits on substitution.
func (t *Type) IsDependent() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeDependent:
		return true
	case TypeInjectedParm:
		return t.ParmDecls == nil
	case TypeFunction:
		if t.Result.IsDependent() {
			return true
		}
		for _, p := range t.Params {
			if p.IsDependent() {
				return true
			}
		}
	}
	return false
}

// SameType compares structurally; records compare by declaration.
func SameType(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypeRecord:
		return a.Decl == b.Decl
	case TypeFunction:
		if len(a.Params) != len(b.Params) || !SameType(a.Result, b.Result) {
			return false
		}
		for i := range a.Params {
			if !SameType(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case TypeInjectedParm:
		return a.Operand == b.Operand
	}
	return true
}

func (t *Type) String() string {
	if t == nil {
		return "<null>"
	}
	switch t.Kind {
	case TypeRecord:
		if t.Decl == nil {
			return "<record>"
		}
		if name := t.Decl.QualifiedName(); name != "" {
			return name
		}
		return "(anonymous)"
	case TypeFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("%s(%s)", t.Result.String(), strings.Join(parts, ", "))
	case TypeInjectedParm:
		return "__injected_parm"
	case TypeDependent:
		return "<dependent>"
	}
	return t.Kind.String()
}
