package clone

import (
	"fmt"

	"splice/internal/ast"
	"splice/internal/source"
)

// ErrorKind classifies clone failures.
type ErrorKind uint8

const (
	// ErrInvalidDecl: the pattern itself is invalid.
	ErrInvalidDecl ErrorKind = iota
	// ErrRedefinition: the clone collides with a member of its new owner.
	ErrRedefinition
	// ErrUnresolved: a reference into a substituted context found no counterpart.
	ErrUnresolved
	// ErrUnsupported: the pattern kind cannot be cloned.
	ErrUnsupported
	// ErrDeferred: a constexpr block or injection inside the clone failed.
	ErrDeferred
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidDecl:
		return "invalid declaration"
	case ErrRedefinition:
		return "redefinition"
	case ErrUnresolved:
		return "unresolved reference"
	case ErrUnsupported:
		return "unsupported declaration"
	case ErrDeferred:
		return "deferred evaluation failed"
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is returned for every clone failure.
type Error struct {
	Kind ErrorKind
	Span source.Span
	Msg  string
	// Prev is the colliding declaration for ErrRedefinition.
	Prev *ast.Decl
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }
