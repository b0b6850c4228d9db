//nolint:errcheck // Data assertions are checked by Kind
package ast

import (
	"fmt"
	"io"
	"strings"
)

// PrintOptions configures declaration dumping.
type PrintOptions struct {
	// Implicit includes implicit declarations other than injected class names.
	Implicit bool
	// Flags appends the flag set of every declaration as a trailing comment.
	Flags bool
}

// Printer renders the declaration graph in C++-like syntax.
type Printer struct {
	w      io.Writer
	indent int
	opts   PrintOptions
	err    error
}

func NewPrinter(w io.Writer, opts PrintOptions) *Printer {
	return &Printer{w: w, opts: opts}
}

// Dump writes d and everything below it.
func Dump(w io.Writer, d *Decl, opts PrintOptions) error {
	p := NewPrinter(w, opts)
	p.PrintDecl(d)
	return p.err
}

// DeclString renders one declaration on a single logical block.
func DeclString(d *Decl) string {
	var sb strings.Builder
	NewPrinter(&sb, PrintOptions{}).PrintDecl(d)
	return strings.TrimRight(sb.String(), "\n")
}

// ExprString renders an expression.
func ExprString(e *Expr) string {
	var sb strings.Builder
	NewPrinter(&sb, PrintOptions{}).printExpr(e)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

func (p *Printer) skip(d *Decl) bool {
	if d.IsInjectedClassName() {
		return true
	}
	return d.IsImplicit() && !p.opts.Implicit
}

func (p *Printer) flagComment(d *Decl) string {
	if !p.opts.Flags || d.Flags == 0 {
		return ""
	}
	return " // " + strings.Join(d.Flags.Names(), " ")
}

// PrintDecl writes d.
func (p *Printer) PrintDecl(d *Decl) {
	if d == nil {
		p.line("<null>")
		return
	}
	switch d.Kind {
	case DeclTranslationUnit:
		for _, m := range d.Members {
			if !p.skip(m) {
				p.PrintDecl(m)
			}
		}
	case DeclNamespace:
		p.line("namespace %s {%s", d.Name, p.flagComment(d))
		p.members(d, false)
		p.line("}")
	case DeclRecord:
		p.record(d)
	case DeclField, DeclVar:
		p.line("%s;%s", p.varHead(d), p.flagComment(d))
	case DeclParam:
		p.line("%s;", p.param(d))
	case DeclFunction, DeclMethod, DeclConstructor, DeclDestructor:
		p.function(d)
	case DeclFragment:
		p.line("fragment {%s", p.flagComment(d))
		p.indent++
		for _, ph := range d.Placeholders() {
			if p.opts.Implicit {
				p.PrintDecl(ph)
			}
		}
		if d.Content != nil {
			p.PrintDecl(d.Content)
		}
		p.indent--
		p.line("}")
	case DeclTypeAlias:
		p.line("using %s = %s;", d.Name, d.Target.String())
	case DeclConstexpr:
		p.line("constexpr {%s", p.flagComment(d))
		p.stmtBody(d.Body)
		p.line("}")
	case DeclInjection:
		p.line("consteval -> %s;", ExprString(d.Operand))
	default:
		p.line("<invalid decl>")
	}
}

func (p *Printer) record(d *Decl) {
	key := "class"
	if d.Has(FlagStruct) {
		key = "struct"
	}
	head := key
	if d.Name != "" {
		head += " " + d.Name
	}
	if len(d.Bases) > 0 {
		parts := make([]string, len(d.Bases))
		for i, b := range d.Bases {
			s := b.Type.String()
			if b.Virtual {
				s = "virtual " + s
			}
			if b.Access != AccessNone {
				s = b.Access.String() + " " + s
			}
			parts[i] = s
		}
		head += " : " + strings.Join(parts, ", ")
	}
	if !d.Has(FlagComplete) && !d.Has(FlagBeingDefined) && len(d.Members) == 0 {
		p.line("%s;%s", head, p.flagComment(d))
		return
	}
	p.line("%s {%s", head, p.flagComment(d))
	p.members(d, true)
	p.line("};")
}

func (p *Printer) members(d *Decl, withAccess bool) {
	p.indent++
	cur := d.DefaultAccess()
	for _, m := range d.Members {
		if p.skip(m) {
			continue
		}
		if withAccess && m.Access != AccessNone && m.Access != cur {
			p.indent--
			p.line("%s:", m.Access)
			p.indent++
			cur = m.Access
		}
		p.PrintDecl(m)
	}
	p.indent--
}

func (p *Printer) varHead(d *Decl) string {
	var sb strings.Builder
	if d.Storage != StorageNone {
		sb.WriteString(d.Storage.String())
		sb.WriteByte(' ')
	}
	if d.Has(FlagConstexpr) {
		sb.WriteString("constexpr ")
	}
	sb.WriteString(d.Type.String())
	sb.WriteByte(' ')
	sb.WriteString(d.Name)
	if d.Init != nil {
		sb.WriteString(" = ")
		sb.WriteString(ExprString(d.Init))
	}
	return sb.String()
}

func (p *Printer) param(d *Decl) string {
	s := d.Type.String()
	if d.Name != "" {
		s += " " + d.Name
	}
	if d.Init != nil {
		s += " = " + ExprString(d.Init)
	}
	return s
}

func (p *Printer) function(d *Decl) {
	var sb strings.Builder
	if d.Storage != StorageNone {
		sb.WriteString(d.Storage.String())
		sb.WriteByte(' ')
	}
	if d.Has(FlagVirtual) {
		sb.WriteString("virtual ")
	}
	if d.Has(FlagConstexpr) {
		sb.WriteString("constexpr ")
	}
	if d.Has(FlagExplicit) {
		sb.WriteString("explicit ")
	}
	switch d.Kind {
	case DeclConstructor:
		sb.WriteString(d.Name)
	case DeclDestructor:
		sb.WriteString("~" + d.Name)
	default:
		sb.WriteString(d.Result.String())
		sb.WriteByte(' ')
		sb.WriteString(d.Name)
	}
	parts := make([]string, len(d.Params))
	for i, prm := range d.Params {
		parts[i] = p.param(prm)
	}
	sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	if len(d.Inits) > 0 {
		inits := make([]string, len(d.Inits))
		for i, ci := range d.Inits {
			name := "<init>"
			switch {
			case ci.Field != nil:
				name = ci.Field.Name
			case ci.Base != nil:
				name = ci.Base.String()
			}
			arg := ""
			if ci.Init != nil {
				arg = ExprString(ci.Init)
			}
			inits[i] = name + "(" + arg + ")"
		}
		sb.WriteString(" : " + strings.Join(inits, ", "))
	}
	head := sb.String()
	switch {
	case d.Has(FlagPure):
		p.line("%s = 0;%s", head, p.flagComment(d))
	case d.Has(FlagDefaulted):
		p.line("%s = default;%s", head, p.flagComment(d))
	case d.Has(FlagDeleted):
		p.line("%s = delete;%s", head, p.flagComment(d))
	case d.Body != nil:
		p.line("%s {%s", head, p.flagComment(d))
		p.stmtBody(d.Body)
		p.line("}")
	default:
		p.line("%s;%s", head, p.flagComment(d))
	}
}

func (p *Printer) stmtBody(s *Stmt) {
	if s == nil {
		return
	}
	p.indent++
	if s.Kind == StmtCompound {
		for _, st := range s.Data.(CompoundData).Stmts {
			p.printStmt(st)
		}
	} else {
		p.printStmt(s)
	}
	p.indent--
}

func (p *Printer) printStmt(s *Stmt) {
	switch s.Kind {
	case StmtCompound:
		p.line("{")
		p.stmtBody(s)
		p.line("}")
	case StmtDecl:
		for _, d := range s.Data.(DeclStmtData).Decls {
			p.PrintDecl(d)
		}
	case StmtExpr:
		p.line("%s;", ExprString(s.Data.(ExprStmtData).X))
	case StmtReturn:
		if x := s.Data.(ReturnData).X; x != nil {
			p.line("return %s;", ExprString(x))
		} else {
			p.line("return;")
		}
	case StmtInjection:
		p.line("-> %s;", ExprString(s.Data.(InjectionData).Reflection))
	case StmtExtension:
		data := s.Data.(ExtensionData)
		p.line("-> %s : %s;", ExprString(data.Target), ExprString(data.Reflection))
	case StmtPrint:
		p.line("__compiler_print(%s);", ExprString(s.Data.(PrintData).Arg))
	}
}

func (p *Printer) exprList(es []*Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) printExpr(e *Expr) {
	if e == nil {
		p.printf("<null>")
		return
	}
	switch e.Kind {
	case ExprIntLit:
		p.printf("%d", e.Data.(IntLitData).Value)
	case ExprBoolLit:
		p.printf("%t", e.Data.(BoolLitData).Value)
	case ExprDeclRef:
		p.printf("%s", e.Data.(DeclRefData).Decl.Name)
	case ExprImplicitCast:
		p.printExpr(e.Data.(ImplicitCastData).Sub)
	case ExprOpaque:
		p.printf("<opaque>")
	case ExprConstant:
		p.printf("%s", e.Data.(ConstantData).Value.String())
	case ExprConstruct:
		data := e.Data.(ConstructData)
		if data.List {
			p.printf("%s{%s}", e.Type.String(), p.exprList(data.Args))
		} else {
			p.printf("%s(%s)", e.Type.String(), p.exprList(data.Args))
		}
	case ExprFunctionalCast:
		p.printExpr(e.Data.(FunctionalCastData).Sub)
	case ExprTemporaryObject:
		p.printf("%s(%s)", e.Type.String(), p.exprList(e.Data.(TemporaryObjectData).Args))
	case ExprParenList:
		p.printf("(%s)", p.exprList(e.Data.(ParenListData).Exprs))
	case ExprFragment:
		data := e.Data.(FragmentData)
		p.printf("fragment[%s]", p.exprList(data.Captures))
	case ExprReflect:
		p.printf("$%s", e.Data.(ReflectData).Construct.String())
	case ExprBinary:
		data := e.Data.(BinaryData)
		p.printf("%s %s %s", ExprString(data.L), data.Op, ExprString(data.R))
	case ExprCall:
		data := e.Data.(CallData)
		p.printf("%s(%s)", ExprString(data.Callee), p.exprList(data.Args))
	default:
		p.printf("<expr %s>", e.Kind)
	}
}
