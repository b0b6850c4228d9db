package meta

import (
	"fmt"

	"splice/internal/ast"
)

// TraitsField is the name of the field holding requested modifications.
const TraitsField = "mods"

// Field positions inside the modification traits record.
const (
	TraitLinkage = iota
	TraitAccess
	TraitStorage
	TraitConstexpr
	TraitVirtual
	TraitPure
	numTraits
)

// AccessMod is the encoded access request.
type AccessMod int64

const (
	AccessNoChange AccessMod = iota
	AccessPublic
	AccessPrivate
	AccessProtected
	AccessDefault
)

func (a AccessMod) String() string {
	switch a {
	case AccessNoChange:
		return "none"
	case AccessPublic:
		return "public"
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	case AccessDefault:
		return "default"
	}
	return fmt.Sprintf("access(%d)", int64(a))
}

// StorageMod is the encoded storage request.
type StorageMod int64

const (
	StorageNoChange StorageMod = iota
	StorageStatic
	StorageAutomatic
	StorageThreadLocal
)

func (s StorageMod) String() string {
	switch s {
	case StorageNoChange:
		return "none"
	case StorageStatic:
		return "static"
	case StorageAutomatic:
		return "automatic"
	case StorageThreadLocal:
		return "thread_local"
	}
	return fmt.Sprintf("storage(%d)", int64(s))
}

// Modifications is the decoded traits record.
type Modifications struct {
	Linkage   int64
	Access    AccessMod
	Storage   StorageMod
	Constexpr bool
	Virtual   bool
	Pure      bool
}

// IsZero reports a request that changes nothing.
func (m Modifications) IsZero() bool { return m == Modifications{} }

// Decode reads a traits record value. Values that are not a complete
// traits record decode to no modifications.
func Decode(v ast.Value) Modifications {
	if !v.IsStruct() || v.NumFields() < numTraits {
		return Modifications{}
	}
	return Modifications{
		Linkage:   v.StructField(TraitLinkage).AsInt(),
		Access:    AccessMod(v.StructField(TraitAccess).AsInt()),
		Storage:   StorageMod(v.StructField(TraitStorage).AsInt()),
		Constexpr: v.StructField(TraitConstexpr).AsBool(),
		Virtual:   v.StructField(TraitVirtual).AsBool(),
		Pure:      v.StructField(TraitPure).AsBool(),
	}
}

// Encode is the inverse of Decode.
func (m Modifications) Encode() ast.Value {
	return ast.StructValue(nil, []ast.Value{
		ast.IntValue(m.Linkage),
		ast.IntValue(int64(m.Access)),
		ast.IntValue(int64(m.Storage)),
		ast.BoolValue(m.Constexpr),
		ast.BoolValue(m.Virtual),
		ast.BoolValue(m.Pure),
	})
}

// ModificationsOf finds the traits field of reflection value v of type t
// through the primary base chain. ok is false when t carries no traits.
func ModificationsOf(t *ast.Type, v ast.Value) (mods Modifications, ok bool) {
	rec := t.RecordDecl()
	if rec == nil {
		return Modifications{}, false
	}
	path, found := ast.FindField(rec, TraitsField)
	if !found {
		return Modifications{}, false
	}
	raw, found := v.At(path)
	if !found {
		return Modifications{}, false
	}
	return Decode(raw), true
}

// WithModifications rewrites the traits field of v. v is returned
// unchanged when t carries no traits.
func WithModifications(t *ast.Type, v ast.Value, m Modifications) ast.Value {
	rec := t.RecordDecl()
	if rec == nil {
		return v
	}
	path, found := ast.FindField(rec, TraitsField)
	if !found {
		return v
	}
	out := v.Clone()
	out.SetAt(path, m.Encode())
	return out
}
