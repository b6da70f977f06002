package services

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrAuth         = errors.New("auth error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStaleVersion = errors.New("stale version")
	ErrStore        = errors.New("store error")
)

// ErrSessionGone is wrapped by the ErrAuth returned when a well-formed
// refresh token names a session that was already rotated or logged out.
var ErrSessionGone = errors.New("session no longer exists")

// Error carries a caller-safe Message alongside its kind. Err is the
// underlying cause and is only ever logged.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func authFailure(msg string) error { return &Error{Kind: ErrAuth, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// storeFailure hides err from callers behind a generic message.
func storeFailure(err error) error {
	return &Error{Kind: ErrStore, Message: "Server error", Err: err}
}

// Message returns the text that may be shown to a client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Server error"
}
