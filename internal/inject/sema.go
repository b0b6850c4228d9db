// Package inject implements fragments, compile-time declaration injection
// and the semantic entry points a front end calls to build them.
//
// A Sema owns the current declaration context, the lexical scopes used for
// capture collection, the stack of active injection contexts and the
// instantiation stack. Problems are reported through the configured
// diag.Reporter; every operation returns a plain success flag.
package inject

import (
	"fmt"
	"io"

	"splice/internal/ast"
	"splice/internal/clone"
	"splice/internal/consteval"
	"splice/internal/diag"
	"splice/internal/meta"
	"splice/internal/source"
	"splice/internal/trace"
)

// DefaultMaxInjectionDepth bounds nested injections when Options leaves it unset.
const DefaultMaxInjectionDepth = 64

// Options configure a Sema.
type Options struct {
	Reporter diag.Reporter
	Tracer   trace.Tracer
	// Output receives the rendering of diagnostic effects in addition to
	// the informational diagnostic.
	Output io.Writer
	// MaxInjectionDepth limits injections nested through cloned constexpr
	// blocks. Zero selects DefaultMaxInjectionDepth.
	MaxInjectionDepth int
	// Cloner replaces the default substitution engine.
	Cloner *clone.Cloner
	// LazyBodies is passed to the default cloner.
	LazyBodies bool
}

// Sema is the injection-aware semantic state for one translation unit.
// It is not safe for concurrent use.
type Sema struct {
	Ctx      *ast.Context
	Lib      *meta.Library
	Cloner   *clone.Cloner
	Eval     *consteval.Evaluator
	Contexts ContextStack

	opts     Options
	reporter diag.Reporter
	tracer   trace.Tracer

	cur      *ast.Decl
	saved    []*ast.Decl
	scope    *Scope
	insts    []instantiation
	parentID uint64
}

func New(ctx *ast.Context, lib *meta.Library, opts Options) *Sema {
	if opts.MaxInjectionDepth <= 0 {
		opts.MaxInjectionDepth = DefaultMaxInjectionDepth
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	s := &Sema{
		Ctx:      ctx,
		Lib:      lib,
		Cloner:   opts.Cloner,
		opts:     opts,
		reporter: opts.Reporter,
		tracer:   opts.Tracer,
		cur:      ctx.TU,
	}
	if s.Cloner == nil {
		s.Cloner = clone.New(ctx, clone.Options{LazyBodies: opts.LazyBodies})
	}
	s.Cloner.Hooks = hooks{s}
	s.Eval = consteval.New(ctx, lib)
	return s
}

// CurContext is the declaration context new declarations land in.
func (s *Sema) CurContext() *ast.Decl { return s.cur }

// SwitchContext makes d the current context until restore runs.
func (s *Sema) SwitchContext(d *ast.Decl) (restore func()) {
	prev := s.cur
	s.cur = d
	return func() { s.cur = prev }
}

// PushDeclContext enters d; PopDeclContext must name the same context.
func (s *Sema) PushDeclContext(d *ast.Decl) {
	s.saved = append(s.saved, s.cur)
	s.cur = d
}

func (s *Sema) PopDeclContext(d *ast.Decl) {
	if s.cur != d || len(s.saved) == 0 {
		panic(fmt.Sprintf("inject: unbalanced declaration context pop of %s", describeDecl(d)))
	}
	s.cur = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

// Options returns the effective configuration.
func (s *Sema) Options() Options { return s.opts }

func (s *Sema) errorf(code diag.Code, span source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(s.reporter, code, span, fmt.Sprintf(format, args...))
}

func (s *Sema) beginSpan(scope trace.Scope, name string) (sp *trace.Span, end func(ok bool)) {
	sp = trace.Begin(s.tracer, scope, name, s.parentID)
	prev := s.parentID
	if id := sp.ID(); id != 0 {
		s.parentID = id
	}
	return sp, func(ok bool) {
		s.parentID = prev
		if ok {
			sp.End("ok")
		} else {
			sp.End("failed")
		}
	}
}

func describeDecl(d *ast.Decl) string {
	if d == nil {
		return "<nil>"
	}
	if name := d.QualifiedName(); name != "" {
		return fmt.Sprintf("%s %q", d.Kind, name)
	}
	return d.Kind.String()
}
