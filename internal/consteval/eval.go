//nolint:errcheck // Data assertions are checked by Kind
package consteval

import (
	"fmt"
	"slices"

	"splice/internal/ast"
	"splice/internal/source"
)

const maxCallDepth = 256

// Intrinsics resolves calls to compiler-provided functions. handled is
// false when fn is not an intrinsic.
type Intrinsics interface {
	CallIntrinsic(fn *ast.Decl, args []Operand, span source.Span) (result Operand, handled bool, err error)
}

// Evaluator computes compile-time values. Effects queued while
// evaluating land in the queue of the innermost EvaluateBlock call.
type Evaluator struct {
	Ctx        *ast.Context
	Intrinsics Intrinsics

	frames  []frame
	effects *EffectQueue
	globals map[*ast.Decl]Operand
}

type frame struct {
	fn     *ast.Decl
	locals map[*ast.Decl]Operand
}

func New(ctx *ast.Context, intrinsics Intrinsics) *Evaluator {
	return &Evaluator{Ctx: ctx, Intrinsics: intrinsics, globals: make(map[*ast.Decl]Operand)}
}

// DefaultValue is the value-initialized value of t: zero scalars and
// struct values with bases first and fields after.
func DefaultValue(t *ast.Type) ast.Value {
	if t == nil {
		return ast.Value{}
	}
	switch t.Kind {
	case ast.TypeInt:
		return ast.IntValue(0)
	case ast.TypeBool:
		return ast.BoolValue(false)
	case ast.TypeRecord:
		rec := t.Decl
		bases := make([]ast.Value, len(rec.Bases))
		for i, b := range rec.Bases {
			bases[i] = DefaultValue(b.Type)
		}
		fs := rec.Fields()
		fields := make([]ast.Value, len(fs))
		for i, f := range fs {
			fields[i] = DefaultValue(f.Type)
		}
		return ast.StructValue(bases, fields)
	}
	return ast.Value{}
}

// Evaluate computes the value of e. The operand type is the dynamic type:
// a reflection passed through a parameter keeps the type it was built with.
func (ev *Evaluator) Evaluate(e *ast.Expr) (Operand, error) {
	return ev.eval(e)
}

// EvaluateBlock executes a constexpr block and returns the effects it queued.
func (ev *Evaluator) EvaluateBlock(body *ast.Stmt) (*EffectQueue, error) {
	queue := &EffectQueue{}
	prev := ev.effects
	ev.effects = queue
	ev.frames = append(ev.frames, frame{locals: make(map[*ast.Decl]Operand)})
	defer func() {
		ev.frames = ev.frames[:len(ev.frames)-1]
		ev.effects = prev
	}()
	if _, _, err := ev.exec(body); err != nil {
		return queue, err
	}
	return queue, nil
}

func (ev *Evaluator) top() *frame {
	if len(ev.frames) == 0 {
		return nil
	}
	return &ev.frames[len(ev.frames)-1]
}

func operand(t *ast.Type, v ast.Value) Operand { return Operand{Type: t, Value: v} }

func (ev *Evaluator) eval(e *ast.Expr) (Operand, error) {
	if e == nil {
		return Operand{}, ErrNotConstant
	}
	switch e.Kind {
	case ast.ExprIntLit:
		return operand(e.Type, ast.IntValue(e.Data.(ast.IntLitData).Value)), nil
	case ast.ExprBoolLit:
		return operand(e.Type, ast.BoolValue(e.Data.(ast.BoolLitData).Value)), nil
	case ast.ExprConstant:
		return operand(e.Type, e.Data.(ast.ConstantData).Value.Clone()), nil
	case ast.ExprImplicitCast:
		return ev.eval(e.Data.(ast.ImplicitCastData).Sub)
	case ast.ExprFunctionalCast:
		return ev.eval(e.Data.(ast.FunctionalCastData).Sub)
	case ast.ExprParenList:
		exprs := e.Data.(ast.ParenListData).Exprs
		if len(exprs) == 0 {
			return operand(e.Type, DefaultValue(e.Type)), nil
		}
		var last Operand
		for _, x := range exprs {
			op, err := ev.eval(x)
			if err != nil {
				return Operand{}, err
			}
			last = op
		}
		return last, nil
	case ast.ExprDeclRef:
		return ev.evalDeclRef(e)
	case ast.ExprOpaque:
		return Operand{}, errAt(e.Span, ErrNotConstant, "opaque value")
	case ast.ExprConstruct:
		data := e.Data.(ast.ConstructData)
		return ev.construct(e, data.Ctor, data.Args)
	case ast.ExprTemporaryObject:
		data := e.Data.(ast.TemporaryObjectData)
		return ev.construct(e, data.Ctor, data.Args)
	case ast.ExprFragment:
		data := e.Data.(ast.FragmentData)
		if data.Init == nil {
			return Operand{}, errAt(e.Span, ErrDependent, "dependent fragment")
		}
		return ev.eval(data.Init)
	case ast.ExprReflect:
		if e.Type.IsDependent() {
			return Operand{}, errAt(e.Span, ErrDependent, "dependent reflection")
		}
		return operand(e.Type, DefaultValue(e.Type)), nil
	case ast.ExprBinary:
		return ev.binary(e)
	case ast.ExprCall:
		return ev.call(e)
	}
	return Operand{}, errAt(e.Span, ErrNotConstant, "unsupported expression %s", e.Kind)
}

func (ev *Evaluator) evalDeclRef(e *ast.Expr) (Operand, error) {
	d := e.Data.(ast.DeclRefData).Decl
	for i := len(ev.frames) - 1; i >= 0; i-- {
		if op, ok := ev.frames[i].locals[d]; ok {
			return operand(op.Type, op.Value.Clone()), nil
		}
		if ev.frames[i].fn != nil {
			// function frames do not see the frames of their callers
			break
		}
	}
	if op, ok := ev.globals[d]; ok {
		return operand(op.Type, op.Value.Clone()), nil
	}
	switch d.Kind {
	case ast.DeclVar, ast.DeclField:
		if !d.Has(ast.FlagConstexpr) || d.Init == nil {
			return Operand{}, errAt(e.Span, ErrNotConstant, "read of non-constexpr variable %q", d.Name)
		}
		op, err := ev.eval(d.Init)
		if err != nil {
			return Operand{}, errAt(e.Span, err, "in initializer of %q", d.Name)
		}
		if !d.IsLocalVarOrParm() {
			ev.globals[d] = operand(op.Type, op.Value.Clone())
		}
		return op, nil
	}
	return Operand{}, errAt(e.Span, ErrNotConstant, "%s %q has no value", d.Kind, d.Name)
}

// construct evaluates a constructor call: the object starts
// value-initialized, then the initializer list runs in order with the
// parameters bound to the arguments. Without a constructor the arguments
// initialize the fields in order.
func (ev *Evaluator) construct(e *ast.Expr, ctor *ast.Decl, args []*ast.Expr) (Operand, error) {
	if !e.Type.IsRecord() {
		if len(args) == 1 {
			return ev.eval(args[0])
		}
		return operand(e.Type, DefaultValue(e.Type)), nil
	}
	ops, err := ev.evalArgs(args)
	if err != nil {
		return Operand{}, err
	}
	obj := DefaultValue(e.Type)
	rec := e.Type.Decl
	if ctor == nil {
		if len(ops) > obj.NumFields() {
			return Operand{}, errAt(e.Span, ErrNotConstant, "too many initializers for %s", e.Type)
		}
		for i, op := range ops {
			obj.Fields[i] = op.Value
		}
		return operand(e.Type, obj), nil
	}
	if len(ops) != len(ctor.Params) {
		return Operand{}, errAt(e.Span, ErrNotConstant, "constructor of %s takes %d arguments, got %d", e.Type, len(ctor.Params), len(ops))
	}
	if err := ev.push(ctor, e.Span); err != nil {
		return Operand{}, err
	}
	defer ev.pop()
	top := ev.top()
	for i, p := range ctor.Params {
		top.locals[p] = ops[i]
	}
	for _, ci := range ctor.Inits {
		switch {
		case ci.Base != nil:
			idx := slices.IndexFunc(rec.Bases, func(b ast.BaseSpec) bool { return ast.SameType(b.Type, ci.Base) })
			if idx < 0 {
				return Operand{}, errAt(e.Span, ErrNotConstant, "%s is not a base of %s", ci.Base, e.Type)
			}
			v, err := ev.initValue(ci.Base, ci.Init)
			if err != nil {
				return Operand{}, err
			}
			obj.Bases[idx] = v
		case ci.Field != nil:
			idx := ci.Field.FieldIndex()
			if idx < 0 || idx >= obj.NumFields() {
				return Operand{}, errAt(e.Span, ErrNotConstant, "%q is not a field of %s", ci.Field.Name, e.Type)
			}
			v, err := ev.initValue(ci.Field.Type, ci.Init)
			if err != nil {
				return Operand{}, err
			}
			obj.Fields[idx] = v
		}
	}
	return operand(e.Type, obj), nil
}

func (ev *Evaluator) initValue(t *ast.Type, init *ast.Expr) (ast.Value, error) {
	if init == nil {
		return DefaultValue(t), nil
	}
	op, err := ev.eval(init)
	if err != nil {
		return ast.Value{}, err
	}
	return op.Value, nil
}

func (ev *Evaluator) evalArgs(args []*ast.Expr) ([]Operand, error) {
	ops := make([]Operand, len(args))
	for i, a := range args {
		op, err := ev.eval(a)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

func (ev *Evaluator) binary(e *ast.Expr) (Operand, error) {
	data := e.Data.(ast.BinaryData)
	if data.Op == ast.OpAssign {
		target := data.L.Referenced()
		top := ev.top()
		if target == nil || top == nil {
			return Operand{}, errAt(e.Span, ErrNotConstant, "assignment to a non-local object")
		}
		if _, ok := top.locals[target]; !ok {
			return Operand{}, errAt(e.Span, ErrNotConstant, "assignment to %q outside its evaluation", target.Name)
		}
		op, err := ev.eval(data.R)
		if err != nil {
			return Operand{}, err
		}
		top.locals[target] = op
		return operand(op.Type, op.Value.Clone()), nil
	}
	l, err := ev.eval(data.L)
	if err != nil {
		return Operand{}, err
	}
	r, err := ev.eval(data.R)
	if err != nil {
		return Operand{}, err
	}
	switch data.Op {
	case ast.OpAdd:
		return operand(e.Type, ast.IntValue(l.Value.AsInt()+r.Value.AsInt())), nil
	case ast.OpSub:
		return operand(e.Type, ast.IntValue(l.Value.AsInt()-r.Value.AsInt())), nil
	case ast.OpMul:
		return operand(e.Type, ast.IntValue(l.Value.AsInt()*r.Value.AsInt())), nil
	}
	return Operand{}, errAt(e.Span, ErrNotConstant, "unsupported operator %s", data.Op)
}

func (ev *Evaluator) call(e *ast.Expr) (Operand, error) {
	data := e.Data.(ast.CallData)
	fn := data.Callee.Referenced()
	if fn == nil || !fn.IsFunctionOrMethod() {
		return Operand{}, errAt(e.Span, ErrNotConstant, "call of a non-function")
	}
	args, err := ev.evalArgs(data.Args)
	if err != nil {
		return Operand{}, err
	}
	if ev.Intrinsics != nil {
		res, handled, err := ev.Intrinsics.CallIntrinsic(fn, args, e.Span)
		if err != nil {
			return Operand{}, errAt(e.Span, err, "in call to %q", fn.Name)
		}
		if handled {
			return res, nil
		}
	}
	if fn.Body == nil {
		return Operand{}, errAt(e.Span, ErrNotConstant, "call to undefined function %q", fn.Name)
	}
	if len(args) != len(fn.Params) {
		return Operand{}, errAt(e.Span, ErrNotConstant, "%q takes %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	if err := ev.push(fn, e.Span); err != nil {
		return Operand{}, err
	}
	defer ev.pop()
	top := ev.top()
	for i, p := range fn.Params {
		top.locals[p] = args[i]
	}
	ret, _, err := ev.exec(fn.Body)
	if err != nil {
		return Operand{}, err
	}
	if ret.Type == nil {
		ret.Type = e.Type
	}
	return ret, nil
}

func (ev *Evaluator) push(fn *ast.Decl, span source.Span) error {
	calls := 0
	for _, f := range ev.frames {
		if f.fn != nil {
			calls++
		}
	}
	if calls >= maxCallDepth {
		return errAt(span, ErrCallDepth, "evaluating %q", fn.Name)
	}
	ev.frames = append(ev.frames, frame{fn: fn, locals: make(map[*ast.Decl]Operand)})
	return nil
}

func (ev *Evaluator) pop() { ev.frames = ev.frames[:len(ev.frames)-1] }

// exec runs s; returned reports that a return statement was reached.
func (ev *Evaluator) exec(s *ast.Stmt) (result Operand, returned bool, err error) {
	if s == nil {
		return Operand{}, false, nil
	}
	switch s.Kind {
	case ast.StmtCompound:
		for _, st := range s.Data.(ast.CompoundData).Stmts {
			res, ret, err := ev.exec(st)
			if err != nil || ret {
				return res, ret, err
			}
		}
	case ast.StmtDecl:
		top := ev.top()
		for _, d := range s.Data.(ast.DeclStmtData).Decls {
			if d.Kind != ast.DeclVar {
				continue
			}
			op := operand(d.Type, DefaultValue(d.Type))
			if d.Init != nil {
				init, err := ev.eval(d.Init)
				if err != nil {
					return Operand{}, false, err
				}
				op = init
			}
			top.locals[d] = op
		}
	case ast.StmtExpr:
		if _, err := ev.eval(s.Data.(ast.ExprStmtData).X); err != nil {
			return Operand{}, false, err
		}
	case ast.StmtReturn:
		x := s.Data.(ast.ReturnData).X
		if x == nil {
			return Operand{}, true, nil
		}
		op, err := ev.eval(x)
		return op, true, err
	case ast.StmtInjection:
		op, err := ev.eval(s.Data.(ast.InjectionData).Reflection)
		if err != nil {
			return Operand{}, false, err
		}
		ev.queue(Effect{Kind: EffectInjection, Span: s.Span, Reflection: op})
	case ast.StmtExtension:
		data := s.Data.(ast.ExtensionData)
		target, err := ev.eval(data.Target)
		if err != nil {
			return Operand{}, false, err
		}
		op, err := ev.eval(data.Reflection)
		if err != nil {
			return Operand{}, false, err
		}
		ev.queue(Effect{Kind: EffectInjection, Span: s.Span, Reflection: op, Injectee: &target})
	case ast.StmtPrint:
		op, err := ev.eval(s.Data.(ast.PrintData).Arg)
		if err != nil {
			return Operand{}, false, err
		}
		ev.queue(Effect{Kind: EffectDiagnostic, Span: s.Span, Reflection: op})
	default:
		return Operand{}, false, fmt.Errorf("consteval: unsupported statement %s", s.Kind)
	}
	return Operand{}, false, nil
}

func (ev *Evaluator) queue(e Effect) {
	if ev.effects == nil {
		// no enclosing constexpr block
		return
	}
	ev.effects.Push(e)
}
