package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures by how the caller is expected to react.
type Kind string

const (
	// KindRecoverableExternal marks a collaborator failure that was (or can be)
	// replaced by a fallback value.
	KindRecoverableExternal Kind = "RECOVERABLE_EXTERNAL"
	KindUserInput           Kind = "USER_INPUT"
	KindDeviceAccess        Kind = "DEVICE_ACCESS"
	// KindStaleReference means the target bead no longer exists. Never fatal.
	KindStaleReference Kind = "STALE_REFERENCE"
	KindInternal       Kind = "INTERNAL"
)

// Error is the application error carried across service boundaries.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.UserInput(""))
// style checks are possible. Prefer KindOf for readability.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func UserInput(format string, args ...interface{}) *Error {
	return New(KindUserInput, fmt.Sprintf(format, args...))
}

func DeviceAccess(format string, args ...interface{}) *Error {
	return New(KindDeviceAccess, fmt.Sprintf(format, args...))
}

func External(message string, cause error) *Error {
	return New(KindRecoverableExternal, message).WithCause(cause)
}

func Stale(beadId string) *Error {
	return New(KindStaleReference, "bead no longer exists").
		WithDetails(map[string]interface{}{"bead_id": beadId})
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
