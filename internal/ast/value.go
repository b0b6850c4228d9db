package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind enumerates compile-time value shapes.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueInt
	ValueBool
	// ValueStruct holds base subobjects first, then fields in declaration order.
	ValueStruct
	ValueReflection
)

// Value is a compile-time value. Struct values own their sub-values;
// Clone before sharing one between two owners.
type Value struct {
	Kind       ValueKind
	Int        int64
	Bool       bool
	Bases      []Value
	Fields     []Value
	Reflection Reflected
}

func IntValue(v int64) Value { return Value{Kind: ValueInt, Int: v} }

func BoolValue(v bool) Value { return Value{Kind: ValueBool, Bool: v} }

func StructValue(bases, fields []Value) Value {
	return Value{Kind: ValueStruct, Bases: bases, Fields: fields}
}

func ReflectionValue(r Reflected) Value { return Value{Kind: ValueReflection, Reflection: r} }

func (v Value) IsStruct() bool { return v.Kind == ValueStruct }

func (v Value) NumFields() int { return len(v.Fields) }

func (v Value) NumBases() int { return len(v.Bases) }

// StructField returns field i. It panics on a bad index, like slice access.
func (v Value) StructField(i int) Value { return v.Fields[i] }

// StructBase returns base subobject i.
func (v Value) StructBase(i int) Value { return v.Bases[i] }

// AsInt reads integers and booleans as int64.
func (v Value) AsInt() int64 {
	switch v.Kind {
	case ValueInt:
		return v.Int
	case ValueBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

// AsBool reads booleans and integers as truth values.
func (v Value) AsBool() bool {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueInt:
		return v.Int != 0
	}
	return false
}

// Clone deep-copies struct sub-values.
func (v Value) Clone() Value {
	if v.Kind != ValueStruct {
		return v
	}
	out := v
	out.Bases = cloneValues(v.Bases)
	out.Fields = cloneValues(v.Fields)
	return out
}

func cloneValues(vs []Value) []Value {
	if vs == nil {
		return nil
	}
	out := make([]Value, len(vs))
	for i := range vs {
		out[i] = vs[i].Clone()
	}
	return out
}

// At follows path through base subobjects to a field.
func (v Value) At(path FieldPath) (Value, bool) {
	cur := v
	for _, b := range path.Bases {
		if cur.Kind != ValueStruct || b >= len(cur.Bases) {
			return Value{}, false
		}
		cur = cur.Bases[b]
	}
	if cur.Kind != ValueStruct || path.Field >= len(cur.Fields) {
		return Value{}, false
	}
	return cur.Fields[path.Field], true
}

// SetAt replaces the field at path. Reports whether path was valid.
func (v *Value) SetAt(path FieldPath, nv Value) bool {
	cur := v
	for _, b := range path.Bases {
		if cur.Kind != ValueStruct || b >= len(cur.Bases) {
			return false
		}
		cur = &cur.Bases[b]
	}
	if cur.Kind != ValueStruct || path.Field >= len(cur.Fields) {
		return false
	}
	cur.Fields[path.Field] = nv
	return true
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueReflection:
		return "$" + v.Reflection.String()
	case ValueStruct:
		parts := make([]string, 0, len(v.Bases)+len(v.Fields))
		for _, b := range v.Bases {
			parts = append(parts, b.String())
		}
		for _, f := range v.Fields {
			parts = append(parts, f.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("<value %d>", v.Kind)
}
