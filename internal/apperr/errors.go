// Package apperr defines the error kinds surfaced to skinshelf users.
//
// Every failure that reaches a component boundary is an *Error carrying a
// Kind and a user-visible message. Causes stay reachable through Unwrap.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes user-facing failures.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindDuplicate   Kind = "DUPLICATE"
	KindNotFound    Kind = "NOT_FOUND"
	KindPersistence Kind = "PERSISTENCE"
	KindService     Kind = "SERVICE"
	KindLoad        Kind = "LOAD"
	KindEmptyList   Kind = "EMPTY_LIST"
	KindInFlight    Kind = "IN_FLIGHT"
	KindAuth        Kind = "AUTH"
)

// Default messages, one per kind.
const (
	MsgValidation    = "Enter a valid product and price."
	MsgDuplicate     = "Product already exists."
	MsgNotFound      = "Product not found."
	MsgAddFailed     = "Failed to add product."
	MsgDeleteFailed  = "Failed to delete."
	MsgLoadProducts  = "Failed to load products."
	MsgLoadHistory   = "Failed to load view history."
	MsgEmptyList     = "Add at least one product."
	MsgServiceFailed = "Error fetching details."
	MsgInFlight      = "A lookup is already in progress."
	MsgAuthFailed    = "Authentication failed."
	MsgInternal      = "Something went wrong"
)

// Error is a categorized failure with a user-visible message.
type Error struct {
	// Err is the underlying cause, if any.
	Err error

	// Kind identifies the error category.
	Kind Kind

	// Op names the operation that failed, e.g. "shelf.Add".
	Op string

	// Message is shown to the user verbatim.
	Message string
}

// New creates an Error without a cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an Error around cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so sentinel kinds work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrDuplicate   = &Error{Kind: KindDuplicate}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrPersistence = &Error{Kind: KindPersistence}
	ErrService     = &Error{Kind: KindService}
	ErrLoad        = &Error{Kind: KindLoad}
	ErrEmptyList   = &Error{Kind: KindEmptyList}
	ErrInFlight    = &Error{Kind: KindInFlight}
	ErrAuth        = &Error{Kind: KindAuth}
)

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage translates err into the single string shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgInternal
}
