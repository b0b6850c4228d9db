package trace

import "time"

// Kind tells span boundaries from instant points.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

var kindNames = names{"", "begin", "end", "point"}

func (k Kind) String() string { return kindNames.str(uint8(k)) }

// Scope is the granularity of an event; lower is coarser.
type Scope uint8

const (
	ScopeDriver    Scope = iota + 1 // a scenario run
	ScopePass                       // constexpr evaluation, effect application
	ScopeInjection                  // one declaration copy or fragment injection
	ScopeDecl                       // one cloned declaration
)

var scopeNames = names{"", "driver", "pass", "injection", "decl"}

func (s Scope) String() string { return scopeNames.str(uint8(s)) }

// Event is one trace record. Seq is stamped by the tracer that stores it.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // "copy-decl", "inject-fragment", "scenario"
	Detail   string
	Elapsed  time.Duration // end events only
	Attrs    map[string]string
}
