// Package apperr defines the error taxonomy shared by the supervisor core
// and the HTTP layer. Every expected failure from a core operation is one of
// these four kinds; the API maps them to status codes.
package apperr

import "fmt"

// ConflictError reports a request that is incompatible with current state,
// such as starting a command while one is already running.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError reports a missing resource: no run started yet, or a log
// file that does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// BadRequestError reports malformed or contradictory input.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return e.Msg }

// InternalError reports an unexpected OS or environment failure, such as a
// spawn that the kernel refused.
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string { return e.Msg }

func (e *InternalError) Unwrap() error { return e.Err }

// Conflictf formats a ConflictError.
func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf formats a NotFoundError.
func NotFoundf(format string, args ...interface{}) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// BadRequestf formats a BadRequestError.
func BadRequestf(format string, args ...interface{}) error {
	return &BadRequestError{Msg: fmt.Sprintf(format, args...)}
}

// Internalf formats an InternalError wrapping the underlying cause.
func Internalf(err error, format string, args ...interface{}) error {
	return &InternalError{Msg: fmt.Sprintf(format, args...), Err: err}
}
