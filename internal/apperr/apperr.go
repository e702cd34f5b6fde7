package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether a retry makes sense.
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindForbidden       Kind = "Forbidden"
	KindInvalidArgument Kind = "InvalidArgument"
	KindConflict        Kind = "Conflict"
	KindRateLimited     Kind = "RateLimited"
	KindInternal        Kind = "Internal"
)

type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func RateLimited(format string, args ...any) *Error {
	return &Error{Kind: KindRateLimited, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage or infrastructure failure. Callers may retry these;
// they must not retry the other kinds.
func Internal(cause error, msg string) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Cause: cause}
}

func (e *Error) WithCause(c error) *Error {
	e.Cause = c
	return e
}

// KindOf returns the taxonomy kind of err, or KindInternal for anything that
// is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
