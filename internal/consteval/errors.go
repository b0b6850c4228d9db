package consteval

import (
	"errors"
	"fmt"

	"splice/internal/source"
)

var (
	// ErrNotConstant reports an expression that has no compile-time value.
	ErrNotConstant = errors.New("expression is not a constant expression")
	// ErrDependent reports an expression that waits on template substitution.
	ErrDependent = errors.New("expression is value-dependent")
	// ErrCallDepth reports runaway recursion in constexpr calls.
	ErrCallDepth = errors.New("constexpr call depth exceeded")
)

// Error carries the location of an evaluation failure.
type Error struct {
	Span source.Span
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errAt(span source.Span, err error, format string, args ...any) error {
	return &Error{Span: span, Msg: fmt.Sprintf(format, args...), Err: err}
}
