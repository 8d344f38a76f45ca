// Package errs defines the failure kinds surfaced by curbdb operations.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation.
type Kind string

const (
	KindUnknown         Kind = "unknown"
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindNotAMember      Kind = "not_a_member"
	KindAlreadyExists   Kind = "already_exists"
	KindAlreadyMember   Kind = "already_member"
)

// Error is a rejected operation with its kind and a human readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// sentinels for errors.Is
var (
	ErrInvalidArgument = &Error{KindInvalidArgument, "invalid argument"}
	ErrNotFound        = &Error{KindNotFound, "not found"}
	ErrNotAMember      = &Error{KindNotAMember, "not a member"}
	ErrAlreadyExists   = &Error{KindAlreadyExists, "already exists"}
	ErrAlreadyMember   = &Error{KindAlreadyMember, "already a member"}
)

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return newf(KindInvalidArgument, format, args...)
}

func NotFound(format string, args ...any) error {
	return newf(KindNotFound, format, args...)
}

func NotAMember(format string, args ...any) error {
	return newf(KindNotAMember, format, args...)
}

func AlreadyExists(format string, args ...any) error {
	return newf(KindAlreadyExists, format, args...)
}

func AlreadyMember(format string, args ...any) error {
	return newf(KindAlreadyMember, format, args...)
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
