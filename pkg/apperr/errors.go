// Package apperr classifies failed backend operations. The kinds exist for
// user messaging only; callers never retry on them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind names the operation that failed.
type Kind string

const (
	Fetch  Kind = "fetch"
	Create Kind = "create"
	Update Kind = "update"
	Delete Kind = "delete"
	Share  Kind = "share"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a failed operation on an entity collection ("tasks", "notes", "users").
type Error struct {
	Kind   Kind
	Entity string
	Err    error
}

// New wraps err as a failed op on entity. A nil err stays nil.
func New(kind Kind, entity string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Kind == kind && existing.Entity == entity {
		return err
	}
	return &Error{Kind: kind, Entity: entity, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Entity, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the one-line notification shown to the user.
func (e *Error) Message() string {
	if errors.Is(e.Err, ErrValidation) {
		return e.Err.Error()
	}
	return fmt.Sprintf("Failed to %s %s", e.Kind, e.Entity)
}

// KindOf reports the operation kind carried by err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err is a failed operation of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Message returns the user-facing text for any error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Unauthorized"
	}
	return "Something went wrong"
}

// Validation wraps a message as an ErrValidation error.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
