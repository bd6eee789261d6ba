package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures for callers.
type ErrorKind string

const (
	ErrKindInvalidInput      ErrorKind = "INVALID_INPUT"
	ErrKindInfeasible        ErrorKind = "INFEASIBLE"
	ErrKindCancelled         ErrorKind = "CANCELLED"
	ErrKindPoolExhausted     ErrorKind = "POOL_EXHAUSTED"
	ErrKindInternalInvariant ErrorKind = "INTERNAL_INVARIANT"
)

// EngineError is the error type surfaced by the engine API. It carries a
// kind for programmatic handling and optionally wraps a cause.
type EngineError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewEngineError builds an EngineError with a formatted message.
func NewEngineError(kind ErrorKind, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapEngineError builds an EngineError wrapping a cause.
func WrapEngineError(kind ErrorKind, err error, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an EngineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind == kind
	}
	return false
}

// IsCancelled reports whether err represents an observed cancellation.
func IsCancelled(err error) bool {
	return IsKind(err, ErrKindCancelled)
}

// IsInfeasible reports whether err represents an infeasible request.
func IsInfeasible(err error) bool {
	return IsKind(err, ErrKindInfeasible)
}
