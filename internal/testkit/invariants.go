package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"splice/internal/ast"
	"splice/internal/source"
)

// Owned collects the declarations, expressions and statements owned by
// root: members, parameters, initializers, constructor initializers and
// bodies and the sources of opaque values. Types and referenced
// declarations are not followed.
func Owned(root *ast.Decl) map[any]string {
	w := walker{seen: make(map[any]string)}
	w.decl(root)
	return w.seen
}

type walker struct {
	seen map[any]string
}

func (w *walker) decl(d *ast.Decl) {
	if d == nil {
		return
	}
	if _, dup := w.seen[d]; dup {
		return
	}
	w.seen[d] = fmt.Sprintf("%s %q", d.Kind, d.Name)
	for _, m := range d.Members {
		w.decl(m)
	}
	for _, p := range d.Params {
		w.decl(p)
	}
	w.expr(d.Init)
	w.expr(d.Operand)
	for _, ci := range d.Inits {
		w.expr(ci.Init)
	}
	w.stmt(d.Body)
}

func (w *walker) expr(e *ast.Expr) {
	if e == nil {
		return
	}
	w.seen[e] = "expr " + e.Kind.String()
	switch data := e.Data.(type) {
	case ast.ImplicitCastData:
		w.expr(data.Sub)
	case ast.OpaqueData:
		w.expr(data.Source)
	case ast.ConstantData:
		w.expr(data.Sub)
	case ast.ConstructData:
		w.exprs(data.Args)
	case ast.FunctionalCastData:
		w.expr(data.Sub)
	case ast.TemporaryObjectData:
		w.exprs(data.Args)
	case ast.ParenListData:
		w.exprs(data.Exprs)
	case ast.FragmentData:
		w.exprs(data.Captures)
		w.expr(data.Init)
	case ast.BinaryData:
		w.expr(data.L)
		w.expr(data.R)
	case ast.CallData:
		w.expr(data.Callee)
		w.exprs(data.Args)
	}
}

func (w *walker) exprs(es []*ast.Expr) {
	for _, e := range es {
		w.expr(e)
	}
}

func (w *walker) stmt(s *ast.Stmt) {
	if s == nil {
		return
	}
	w.seen[s] = "stmt " + s.Kind.String()
	switch data := s.Data.(type) {
	case ast.CompoundData:
		for _, st := range data.Stmts {
			w.stmt(st)
		}
	case ast.DeclStmtData:
		for _, d := range data.Decls {
			w.decl(d)
		}
	case ast.ExprStmtData:
		w.expr(data.X)
	case ast.ReturnData:
		w.expr(data.X)
	case ast.InjectionData:
		w.expr(data.Reflection)
	case ast.ExtensionData:
		w.expr(data.Target)
		w.expr(data.Reflection)
	case ast.PrintData:
		w.expr(data.Arg)
	}
}

// SharedNodes describes every node owned by both a and b. Two results of
// independent injections must share nothing.
func SharedNodes(a, b *ast.Decl) []string {
	left := Owned(a)
	var shared []string
	for n, what := range Owned(b) {
		if _, ok := left[n]; ok {
			shared = append(shared, what)
		}
	}
	return shared
}

// CheckTree verifies the structural invariants of the declaration graph
// below root:
// 1) every member names its container as parent
// 2) placeholders live only in fragments
// 3) a fragment's content is one of its members
// 4) no declaration is a member twice
func CheckTree(root *ast.Decl) error {
	var errs []error
	seen := make(map[*ast.Decl]bool)
	var visit func(d *ast.Decl)
	visit = func(d *ast.Decl) {
		if d.IsFragment() && d.Content != nil && d.Content.Parent != d {
			errs = append(errs, fmt.Errorf("fragment content %q is not parented to its fragment", d.Content.Name))
		}
		for _, m := range d.Members {
			if seen[m] {
				errs = append(errs, fmt.Errorf("%s %q is a member twice", m.Kind, m.Name))
				continue
			}
			seen[m] = true
			if m.Parent != d && !m.IsInjectedClassName() {
				errs = append(errs, fmt.Errorf("%s %q lists %s as container but has parent %v", m.Kind, m.Name, d.Kind, m.Parent))
			}
			if isPlaceholder(m) && !d.IsFragment() {
				errs = append(errs, fmt.Errorf("placeholder %q outside a fragment", m.Name))
			}
			visit(m)
		}
	}
	visit(root)
	return errors.Join(errs...)
}

func isPlaceholder(d *ast.Decl) bool {
	return d.Kind == ast.DeclVar && d.Storage == ast.StorageStatic &&
		d.Has(ast.FlagImplicit) && d.Type != nil && d.Type.Kind == ast.TypeDependent &&
		d.Init != nil && d.Init.Kind == ast.ExprOpaque
}

// CheckSpans verifies that every non-empty declaration span below root
// lies inside a file registered in fs.
func CheckSpans(fs *source.FileSet, root *ast.Decl) error {
	if fs == nil || root == nil {
		return fmt.Errorf("nil file set or root")
	}
	var errs []error
	for n := range Owned(root) {
		d, ok := n.(*ast.Decl)
		if !ok || d.Span.Empty() {
			continue
		}
		if err := checkSpan(fs, d.Span); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", d.Kind, d.Name, err))
		}
	}
	return errors.Join(errs...)
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span %v names an unknown file", sp)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("content length overflow: %w", err)
	}
	if sp.End < sp.Start || sp.End > size {
		return fmt.Errorf("span %v outside %s (%d bytes)", sp, f.Path, size)
	}
	return nil
}
