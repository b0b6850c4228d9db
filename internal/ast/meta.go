package ast

// Reflected is the construct a reflection denotes: a declaration or a type.
type Reflected struct {
	Decl *Decl
	Type *Type
}

func (r Reflected) IsNull() bool { return r.Decl == nil && r.Type == nil }

// AsDecl returns the reflected declaration; record types resolve to their
// declaration.
func (r Reflected) AsDecl() *Decl {
	if r.Decl != nil {
		return r.Decl
	}
	return r.Type.RecordDecl()
}

func (r Reflected) String() string {
	switch {
	case r.Decl != nil:
		if name := r.Decl.QualifiedName(); name != "" {
			return r.Decl.Kind.String() + " " + name
		}
		return r.Decl.Kind.String()
	case r.Type != nil:
		return "type " + r.Type.String()
	}
	return "<null reflection>"
}

// MetaKind classifies synthetic meta classes.
type MetaKind uint8

const (
	MetaNone MetaKind = iota
	// MetaDecl reflects one declaration.
	MetaDecl
	// MetaType reflects a type.
	MetaType
	// MetaParameters reflects the parameter list of a function.
	MetaParameters
	// MetaTraits is the shared base carrying the modification traits field.
	MetaTraits
	// MetaModifications is the modification traits record itself.
	MetaModifications
)

// MetaInfo is attached to meta classes: the encoding of a reflection lives
// in the type, its requested modifications in the value.
type MetaInfo struct {
	Kind      MetaKind
	Construct Reflected
}
