package inject

import (
	"fmt"
	"strconv"

	"splice/internal/ast"
	"splice/internal/consteval"
	"splice/internal/diag"
	"splice/internal/source"
	"splice/internal/trace"
)

// EffectResult is the outcome of one applied effect.
type EffectResult struct {
	Effect consteval.Effect
	OK     bool
	// Decls are the declarations an injection produced.
	Decls []*ast.Decl
}

// EffectsResult is the outcome of ApplyEffects. OK is the conjunction of
// the individual results.
type EffectsResult struct {
	OK      bool
	Effects []EffectResult
}

// ApplyEffects drains q and applies every effect in order at poi. A
// failing effect does not stop the ones after it.
func (s *Sema) ApplyEffects(poi source.Span, q *consteval.EffectQueue) EffectsResult {
	sp, end := s.beginSpan(trace.ScopePass, "apply-effects")
	res := EffectsResult{OK: true}
	for _, e := range q.Drain() {
		var r EffectResult
		switch e.Kind {
		case consteval.EffectInjection:
			r = s.applyInjection(poi, e)
		case consteval.EffectDiagnostic:
			r = s.applyDiagnostic(poi, e)
		default:
			panic(fmt.Sprintf("inject: unknown effect %v", e.Kind))
		}
		res.OK = res.OK && r.OK
		res.Effects = append(res.Effects, r)
	}
	sp.Attr("effects", strconv.Itoa(len(res.Effects)))
	end(res.OK)
	return res
}

// applyInjection dispatches on the reflection: fragment values expand
// their content, anything else is copied. The injectee is the explicit
// target if the effect names one, else the current context.
func (s *Sema) applyInjection(poi source.Span, e consteval.Effect) EffectResult {
	r := EffectResult{Effect: e}
	injection := s.declFromReflection(e.Reflection.Type, poi)
	if injection == nil {
		return r
	}
	injectee := s.cur
	if e.Injectee != nil {
		if injectee = s.declFromReflection(e.Injectee.Type, poi); injectee == nil {
			return r
		}
	}
	if class := e.Reflection.Type.RecordDecl(); class != nil && class.Has(ast.FlagFragmentClass) {
		r.Decls, r.OK = s.InjectFragment(poi, e.Reflection, injection, injectee)
	} else {
		r.Decls, r.OK = s.CopyDeclaration(poi, e.Reflection, injection, injectee)
	}
	return r
}

// applyDiagnostic prints the reflected declaration, the declaration of a
// reflected class type, or the type itself.
func (s *Sema) applyDiagnostic(poi source.Span, e consteval.Effect) EffectResult {
	r := EffectResult{Effect: e}
	construct, ok := s.Lib.EvaluateReflection(e.Reflection.Type)
	if !ok {
		if b := s.errorf(diag.SemaNotAReflection, poi, "cannot print a value of type %s", e.Reflection.Type); b != nil {
			b.Emit()
		}
		return r
	}
	text := RenderReflection(construct)
	if s.opts.Output != nil {
		// the rendering is best effort; the diagnostic carries it as well
		_, _ = fmt.Fprintln(s.opts.Output, text) //nolint:errcheck
	}
	if b := diag.ReportInfo(s.reporter, diag.SemaReflectionPrint, e.Span, text); b != nil {
		b.Emit()
	}
	r.OK = true
	return r
}

// RenderReflection renders a reflected construct in source form.
func RenderReflection(r ast.Reflected) string {
	switch {
	case r.Decl != nil:
		return ast.DeclString(r.Decl)
	case r.Type != nil:
		if d := r.Type.RecordDecl(); d != nil {
			return ast.DeclString(d)
		}
		return r.Type.String()
	}
	panic("inject: printing a null reflection")
}
