package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindStorage           Kind = "storage_failure"
)

// Error is a domain failure with a stable kind and a caller-safe message.
// Err carries the internal cause and is never shown to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Forbidden always reports "unauthorized" so callers learn nothing about why.
func Forbidden() error {
	return &Error{Kind: KindForbidden, Msg: "unauthorized"}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Msg: what + " not found"}
}

func InvalidTransition(from, to string) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf("cannot change status from %s to %s", from, to)}
}

func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Msg: "internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of err. Errors outside the taxonomy are storage failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Message returns the caller-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
