package consteval

import (
	"splice/internal/ast"
	"splice/internal/source"
)

// Operand is a compile-time value together with its type. Reflections keep
// the reflected construct in the type and the requested modifications in
// the value.
type Operand struct {
	Type  *ast.Type
	Value ast.Value
}

// EffectKind enumerates deferred effects.
type EffectKind uint8

const (
	// EffectInjection splices a reflection into the point of injection or
	// into an explicit injectee.
	EffectInjection EffectKind = iota
	// EffectDiagnostic prints a reflection.
	EffectDiagnostic
)

func (k EffectKind) String() string {
	if k == EffectDiagnostic {
		return "diagnostic"
	}
	return "injection"
}

// Effect is one queued side effect of a constexpr evaluation.
type Effect struct {
	Kind       EffectKind
	Span       source.Span
	Reflection Operand
	// Injectee is the reflection of an explicit target, nil for the ambient context.
	Injectee *Operand
}

// EffectQueue collects effects in evaluation order. It is drained once.
type EffectQueue struct {
	items   []Effect
	drained bool
}

func (q *EffectQueue) Push(e Effect) {
	if q.drained {
		panic("consteval: effect pushed after the queue was drained")
	}
	q.items = append(q.items, e)
}

func (q *EffectQueue) Len() int { return len(q.items) }

// Items exposes the pending effects without draining them.
func (q *EffectQueue) Items() []Effect { return q.items }

// Drain hands out the queued effects once; later calls return nil.
func (q *EffectQueue) Drain() []Effect {
	if q.drained {
		return nil
	}
	q.drained = true
	out := q.items
	q.items = nil
	return out
}

func (q *EffectQueue) Drained() bool { return q.drained }
