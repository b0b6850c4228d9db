package ast

// Snapshot is a pointer-free image of a declaration subtree. Tests compare
// snapshots structurally and the scenario driver serialises them.
type Snapshot struct {
	Kind    string      `msgpack:"kind"`
	Name    string      `msgpack:"name,omitempty"`
	Type    string      `msgpack:"type,omitempty"`
	Access  string      `msgpack:"access,omitempty"`
	Storage string      `msgpack:"storage,omitempty"`
	Flags   []string    `msgpack:"flags,omitempty"`
	Init    string      `msgpack:"init,omitempty"`
	Bases   []string    `msgpack:"bases,omitempty"`
	Params  []*Snapshot `msgpack:"params,omitempty"`
	Members []*Snapshot `msgpack:"members,omitempty"`
	Body    bool        `msgpack:"body,omitempty"`
}

// SnapOptions selects what Snap records.
type SnapOptions struct {
	// Implicit keeps implicit members, injected class names included.
	Implicit bool
	// Mask is cleared from recorded flags.
	Mask DeclFlags
}

// Snap captures d with default options: implicit members are dropped and
// bookkeeping flags are masked.
func Snap(d *Decl) *Snapshot {
	return SnapWith(d, SnapOptions{Mask: FlagReferenced | FlagUsed | FlagComplete | FlagBeingDefined})
}

func SnapWith(d *Decl, opts SnapOptions) *Snapshot {
	if d == nil {
		return nil
	}
	s := &Snapshot{
		Kind:    d.Kind.String(),
		Name:    d.Name,
		Access:  d.Access.String(),
		Storage: d.Storage.String(),
		Flags:   (d.Flags &^ opts.Mask).Names(),
		Body:    d.Body != nil,
	}
	switch {
	case d.Kind == DeclTypeAlias:
		s.Type = d.Target.String()
	case d.IsFunctionOrMethod():
		s.Type = d.Result.String()
	case d.Type != nil && d.Kind != DeclRecord:
		s.Type = d.Type.String()
	}
	if d.Init != nil {
		s.Init = ExprString(d.Init)
	}
	for _, b := range d.Bases {
		s.Bases = append(s.Bases, b.Type.String())
	}
	for _, p := range d.Params {
		s.Params = append(s.Params, SnapWith(p, opts))
	}
	for _, m := range d.Members {
		if !opts.Implicit && (m.IsImplicit() || m.IsInjectedClassName()) {
			continue
		}
		s.Members = append(s.Members, SnapWith(m, opts))
	}
	if d.Content != nil && d.Content.Parent != d {
		s.Members = append(s.Members, SnapWith(d.Content, opts))
	}
	return s
}
