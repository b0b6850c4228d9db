package ast

import "splice/internal/source"

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtCompound StmtKind = iota
	StmtDecl
	StmtExpr
	StmtReturn
	// StmtInjection queues an injection of its operand at the enclosing point of injection.
	StmtInjection
	// StmtExtension queues an injection into an explicit target.
	StmtExtension
	// StmtPrint queues a diagnostic rendering of a reflection.
	StmtPrint
)

func (k StmtKind) String() string {
	switch k {
	case StmtCompound:
		return "Compound"
	case StmtDecl:
		return "Decl"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtInjection:
		return "Injection"
	case StmtExtension:
		return "Extension"
	case StmtPrint:
		return "Print"
	default:
		return "Unknown"
	}
}

// Stmt is a statement node.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

type CompoundData struct{ Stmts []*Stmt }

type DeclStmtData struct{ Decls []*Decl }

type ExprStmtData struct{ X *Expr }

type ReturnData struct{ X *Expr }

type InjectionData struct{ Reflection *Expr }

type ExtensionData struct {
	Target     *Expr
	Reflection *Expr
}

type PrintData struct{ Arg *Expr }

func (CompoundData) stmtData()  {}
func (DeclStmtData) stmtData()  {}
func (ExprStmtData) stmtData()  {}
func (ReturnData) stmtData()    {}
func (InjectionData) stmtData() {}
func (ExtensionData) stmtData() {}
func (PrintData) stmtData()     {}

func NewCompound(span source.Span, stmts ...*Stmt) *Stmt {
	return &Stmt{Kind: StmtCompound, Span: span, Data: CompoundData{Stmts: stmts}}
}

func NewDeclStmt(span source.Span, decls ...*Decl) *Stmt {
	return &Stmt{Kind: StmtDecl, Span: span, Data: DeclStmtData{Decls: decls}}
}

func NewExprStmt(x *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Span: x.Span, Data: ExprStmtData{X: x}}
}

func NewReturn(x *Expr, span source.Span) *Stmt {
	return &Stmt{Kind: StmtReturn, Span: span, Data: ReturnData{X: x}}
}

func NewPrint(arg *Expr, span source.Span) *Stmt {
	return &Stmt{Kind: StmtPrint, Span: span, Data: PrintData{Arg: arg}}
}

func NewInjectionStmt(refl *Expr, span source.Span) *Stmt {
	return &Stmt{Kind: StmtInjection, Span: span, Data: InjectionData{Reflection: refl}}
}

func NewExtensionStmt(target, refl *Expr, span source.Span) *Stmt {
	return &Stmt{Kind: StmtExtension, Span: span, Data: ExtensionData{Target: target, Reflection: refl}}
}
