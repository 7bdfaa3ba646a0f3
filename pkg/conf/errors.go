package conf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies evaluation failures.
type ErrorKind string

const (
	// KindOptionConflict indicates two fragments set a non-mergeable
	// option to conflicting values, or to values of incompatible kinds.
	KindOptionConflict ErrorKind = "option_conflict"

	// KindUnresolvableCycle indicates the lazy evaluator could not make
	// progress on a mutually-referential value graph: a node was forced
	// again while its own evaluation was still in progress.
	KindUnresolvableCycle ErrorKind = "unresolvable_cycle"

	// KindOptionNotFound indicates a requested option path is not
	// defined by any fragment of the system.
	KindOptionNotFound ErrorKind = "option_not_found"

	// KindBadFragment indicates a fragment failed to produce an object,
	// either by returning an error or by returning a malformed value.
	KindBadFragment ErrorKind = "bad_fragment"

	// KindWrongType indicates a resolved option value does not have the
	// type the caller asked for.
	KindWrongType ErrorKind = "wrong_type"
)

// Error is a classified evaluation error with option-path context.
type Error struct {
	// Kind is the failure classification.
	Kind ErrorKind

	// Message is the human-readable description.
	Message string

	// Path is the option path being resolved when the error occurred,
	// if applicable.
	Path string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (option=%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two Errors match when
// their kinds match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithPath attaches option-path context to the error. The first path
// wins: deeper frames do not overwrite the most specific location.
func (e *Error) WithPath(path string) *Error {
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// NewConflictError creates an option-conflict error.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindOptionConflict, Message: message}
}

// NewCycleError creates an unresolvable-cycle error.
func NewCycleError(message string) *Error {
	return &Error{Kind: KindUnresolvableCycle, Message: message}
}

// NewNotFoundError creates an option-not-found error.
func NewNotFoundError(path string) *Error {
	return &Error{Kind: KindOptionNotFound, Message: "option is not defined", Path: path}
}

// NewBadFragmentError creates a bad-fragment error wrapping err.
func NewBadFragmentError(message string, err error) *Error {
	return &Error{Kind: KindBadFragment, Message: message, Err: err}
}

// NewWrongTypeError creates a wrong-type error.
func NewWrongTypeError(path string, want string, got any) *Error {
	return &Error{
		Kind:    KindWrongType,
		Message: fmt.Sprintf("expected %s, got %T", want, got),
		Path:    path,
	}
}

// IsConflict returns true if err is classified as an option conflict.
func IsConflict(err error) bool {
	return hasKind(err, KindOptionConflict)
}

// IsCycle returns true if err is classified as an unresolvable cycle.
func IsCycle(err error) bool {
	return hasKind(err, KindUnresolvableCycle)
}

// IsNotFound returns true if err is classified as option-not-found.
func IsNotFound(err error) bool {
	return hasKind(err, KindOptionNotFound)
}

// IsBadFragment returns true if err is classified as a fragment failure.
func IsBadFragment(err error) bool {
	return hasKind(err, KindBadFragment)
}

func hasKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
