package mgerr

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrorKind classifies a Stage 1 failure, per spec.md §7.
type ErrorKind string

const (
	NotPrivileged   ErrorKind = "not_privileged"
	MissingInput    ErrorKind = "missing_input"
	InsufficientMem ErrorKind = "insufficient_memory"
	MountFailed     ErrorKind = "mount_failed"
	CopyFailed      ErrorKind = "copy_failed"
	CommandFailed   ErrorKind = "command_failed"
	Serialization   ErrorKind = "serialization"
	Displayed       ErrorKind = "displayed"
)

// Error is the error type every Stage 1 component returns. Kind lets the
// orchestrator and tests distinguish failure classes without parsing
// messages; Cause carries the wrapped underlying error, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &mgerr.Error{Kind: mgerr.MissingInput}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf reports the ErrorKind of err, or "" if err is not a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Report logs msg (at error level, through the caller's logger) and returns
// an *Error wrapping it with Kind Displayed, so the orchestrator never logs
// it a second time. Every branch that surfaces an operator-facing message
// must return through this helper.
func Report(log *slog.Logger, msg string, args ...any) *Error {
	log.Error(msg, args...)
	return NewError(Displayed, msg, nil)
}
