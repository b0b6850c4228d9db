package ast

// FieldPath locates a field inside a struct value: walk Bases (base
// subobject indices, outermost first), then take field Field.
type FieldPath struct {
	Bases []int
	Field int
}

// BaseChain linearizes the primary base chain of record d: d itself, then
// its first base, then that base's first base, and so on.
func BaseChain(d *Decl) []*Decl {
	var chain []*Decl
	seen := make(map[*Decl]bool)
	for cur := d; cur != nil && !seen[cur]; {
		seen[cur] = true
		chain = append(chain, cur)
		if len(cur.Bases) == 0 {
			break
		}
		cur = cur.Bases[0].Type.RecordDecl()
	}
	return chain
}

// FindField searches the linearized base chain of record d for a field
// called name. The second result is false when no record in the chain
// declares it.
func FindField(d *Decl, name string) (FieldPath, bool) {
	if !d.IsRecord() {
		return FieldPath{}, false
	}
	var bases []int
	for _, rec := range BaseChain(d) {
		for i, f := range rec.Fields() {
			if f.Name == name {
				return FieldPath{Bases: bases, Field: i}, true
			}
		}
		bases = append(bases, 0)
	}
	return FieldPath{}, false
}
