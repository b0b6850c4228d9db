package scenario

import (
	"fmt"
	"slices"
	"strings"

	"splice/internal/ast"
	"splice/internal/inject"
)

// check compares a finished run against the [expect] table and describes
// every difference.
func check(s *inject.Sema, file *File, res *Result) []string {
	var out []string
	mismatch := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}
	want := file.Expect

	if file.Defined("expect", "ok") && res.OK != want.OK {
		mismatch("ok = %t, want %t", res.OK, want.OK)
	}
	if file.Defined("expect", "diagnostics") {
		got := make([]string, 0, res.Bag.Len())
		for _, code := range res.Bag.Codes() {
			got = append(got, code.ID())
		}
		if !slices.Equal(got, want.Diagnostics) {
			mismatch("diagnostics = [%s], want [%s]", strings.Join(got, " "), strings.Join(want.Diagnostics, " "))
		}
	}
	for _, text := range want.Printed {
		if !strings.Contains(res.Printed, text) {
			mismatch("printed output does not contain %q", text)
		}
	}
	for _, de := range want.Decls {
		checkDecl(s, de, mismatch)
	}
	return out
}

func checkDecl(s *inject.Sema, want DeclExpect, mismatch func(string, ...any)) {
	d := Find(s.Ctx, want.Name)
	if want.Missing {
		if d != nil {
			mismatch("%s: declared, want missing", want.Name)
		}
		return
	}
	if d == nil {
		mismatch("%s: not declared", want.Name)
		return
	}
	if want.Kind != "" && d.Kind.String() != want.Kind {
		mismatch("%s: kind = %s, want %s", want.Name, d.Kind, want.Kind)
	}
	if want.Members != nil {
		if got := MemberNames(d); !slices.Equal(got, *want.Members) {
			mismatch("%s: members = [%s], want [%s]", want.Name, strings.Join(got, " "), strings.Join(*want.Members, " "))
		}
	}
	if want.Access != "" && d.Access.String() != want.Access {
		mismatch("%s: access = %q, want %q", want.Name, d.Access, want.Access)
	}
	names := d.Flags.Names()
	for _, f := range want.Flags {
		if !slices.Contains(names, f) {
			mismatch("%s: missing flag %s (has %s)", want.Name, f, strings.Join(names, " "))
		}
	}
	for _, f := range want.NoFlags {
		if slices.Contains(names, f) {
			mismatch("%s: unexpected flag %s", want.Name, f)
		}
	}
	if want.Invalid != nil && d.IsInvalid() != *want.Invalid {
		mismatch("%s: invalid = %t, want %t", want.Name, d.IsInvalid(), *want.Invalid)
	}
	if want.Type != "" {
		if got := declType(d); got != want.Type {
			mismatch("%s: type = %s, want %s", want.Name, got, want.Type)
		}
	}
	if want.Value != nil {
		checkValue(s, d, *want.Value, want.Name, mismatch)
	}
}

func checkValue(s *inject.Sema, d *ast.Decl, want int64, name string, mismatch func(string, ...any)) {
	if d.Init == nil {
		mismatch("%s: no initializer, want value %d", name, want)
		return
	}
	op, err := s.Eval.Evaluate(d.Init)
	if err != nil {
		mismatch("%s: initializer does not evaluate: %v", name, err)
		return
	}
	if got := op.Value.AsInt(); got != want {
		mismatch("%s: value = %d, want %d", name, got, want)
	}
}

func declType(d *ast.Decl) string {
	switch {
	case d.Kind == ast.DeclTypeAlias:
		return d.Target.String()
	case d.IsFunctionOrMethod():
		return d.Result.String()
	}
	return d.Type.String()
}

// MemberNames lists the user-visible members of d: implicit declarations
// and constexpr blocks are left out.
func MemberNames(d *ast.Decl) []string {
	names := []string{}
	for _, m := range d.Members {
		if m.IsImplicit() || m.IsInjectedClassName() || m.Kind == ast.DeclConstexpr {
			continue
		}
		names = append(names, m.Name)
	}
	return names
}
