package geometry

import (
	"errors"
	"fmt"
)

// Kind classifies geometry errors.
type Kind int

const (
	// KindValue marks bad user input: unknown volume or material names,
	// malformed shapes or facets, unresolvable frames.
	KindValue Kind = iota

	// KindMemory marks an allocation failure during construction.
	KindMemory

	// KindNotImplemented marks a requested feature the builder does not
	// support.
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "ValueError"
	case KindMemory:
		return "MemoryError"
	case KindNotImplemented:
		return "NotImplementedError"
	default:
		return "Error"
	}
}

// Error is a structured geometry error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func valueErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindValue, Message: fmt.Sprintf(format, args...)}
}

func notImplementedf(format string, args ...any) *Error {
	return &Error{Kind: KindNotImplemented, Message: fmt.Sprintf(format, args...)}
}

// IsValueError reports whether err carries a ValueError.
func IsValueError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValue
}

// asValueError wraps a collaborator error as a ValueError, preserving a
// structured error if it already is one.
func asValueError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindValue, Message: err.Error()}
}
