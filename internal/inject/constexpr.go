package inject

import (
	"errors"
	"fmt"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/diag"
	"splice/internal/source"
	"splice/internal/trace"
)

// ActOnConstexprDecl opens a `constexpr { ... }` block in the current
// context. The block becomes the current context until
// ActOnFinishConstexprDecl.
func (s *Sema) ActOnConstexprDecl(span source.Span) *ast.Decl {
	d := s.Ctx.NewConstexprDecl(s.cur, span)
	if s.cur.IsRecord() {
		d.Access = ast.AccessPublic
	}
	s.cur.AddDecl(d)
	s.PushDeclContext(d)
	return d
}

// ActOnFinishConstexprDecl attaches body and, outside templates, runs the
// block and applies its effects at the block's location.
func (s *Sema) ActOnFinishConstexprDecl(d *ast.Decl, body *ast.Stmt) bool {
	s.PopDeclContext(d)
	d.Body = body
	if d.IsDependentContext() {
		return true
	}
	return s.EvaluateConstexprDecl(d)
}

// EvaluateConstexprDecl runs d with its parent as the current context.
// Evaluation failures invalidate d.
func (s *Sema) EvaluateConstexprDecl(d *ast.Decl) bool {
	restore := s.SwitchContext(d.Parent)
	defer restore()

	sp, end := s.beginSpan(trace.ScopePass, "evaluate")
	sp.Attr("context", describeDecl(d.Parent))
	q, err := s.Eval.EvaluateBlock(d.Body)
	if err != nil {
		d.SetInvalid(true)
		s.reportEvalFailure(d.Span, err)
		end(false)
		return false
	}
	end(true)
	return s.ApplyEffects(d.Span, q).OK
}

func (s *Sema) reportEvalFailure(span source.Span, err error) {
	b := s.errorf(diag.SemaConstexprEvalFailed, span, "constexpr block is not a constant expression: %v", err)
	var ce *consteval.Error
	if errors.As(err, &ce) && ce.Span != span {
		b = b.WithNote(ce.Span, "evaluation failed here")
	}
	b.Emit()
}

// hooks connects the cloner back to semantic analysis.
type hooks struct{ s *Sema }

// Deferred runs a cloned constexpr block, or expands a cloned injection
// declaration in place, once the enclosing clone is complete.
func (h hooks) Deferred(d *ast.Decl) error {
	s := h.s
	if d.IsDependentContext() {
		return nil
	}
	switch d.Kind {
	case ast.DeclConstexpr:
		if !s.EvaluateConstexprDecl(d) {
			return fmt.Errorf("constexpr block in %s failed", describeDecl(d.Parent))
		}
	case ast.DeclInjection:
		parent := d.Parent
		restore := s.SwitchContext(parent)
		defer restore()
		parent.RemoveDecl(d)
		if _, ok := s.ActOnInjectionDecl(d.Span, d.Operand); !ok {
			return fmt.Errorf("injection declaration in %s failed", describeDecl(parent))
		}
	}
	return nil
}

func (h hooks) ExpandParameters(t *ast.Type) ([]*ast.Decl, error) {
	if t.Operand == nil || t.Operand.IsTypeDependent() {
		return nil, errors.New("injected parameters are still dependent")
	}
	parms, ok := h.s.reflectedParameters(t.Operand.Type)
	if !ok {
		return nil, fmt.Errorf("%s does not reflect a function or parameter", t.Operand.Type)
	}
	return parms, nil
}

func (h hooks) ReflectionType(r ast.Reflected) *ast.Type {
	return h.s.Lib.ReflectionType(r)
}
