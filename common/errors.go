package common

import (
	"errors"
	"fmt"
)

// Error is a processing failure which knows how it should be reported.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// NewError creates failure of the specified kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates failure of the specified kind with underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if len(e.Msg) == 0 {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, &Error{Kind: k}) match any failure of kind k.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && len(t.Msg) == 0 && t.Err == nil
}

// ErrKind returns sentinel usable with errors.Is to check failure class.
func ErrKind(kind ErrorKind) error {
	return &Error{Kind: kind}
}

// KindOf returns class of the outermost classified failure in the chain,
// unclassified errors are internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindInternal
}

// ExitCode returns process exit code for err, nil means success.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
