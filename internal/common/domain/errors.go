package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-checkable category of a domain error.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindEmptyOrder        ErrorKind = "EMPTY_ORDER"
	KindInvalidLeadTime   ErrorKind = "INVALID_LEAD_TIME"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindAlreadyTerminal   ErrorKind = "ALREADY_TERMINAL"
	KindAlreadyConfirmed  ErrorKind = "ALREADY_CONFIRMED"
	KindSlotConflict      ErrorKind = "SLOT_CONFLICT"
	KindInvalidDistance   ErrorKind = "INVALID_DISTANCE"
	KindInvalidGeometry   ErrorKind = "INVALID_GEOMETRY"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindConflict          ErrorKind = "CONCURRENT_MODIFICATION"
	KindStorage           ErrorKind = "STORAGE_ERROR"
	KindNotification      ErrorKind = "NOTIFICATION_ERROR"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

// Error is a domain error carrying a kind and a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewEmptyOrderError() *Error {
	return &Error{Kind: KindEmptyOrder, Message: "order must contain at least one item"}
}

func NewInvalidLeadTimeError(message string) *Error {
	return &Error{Kind: KindInvalidLeadTime, Message: message}
}

// NewInvalidTransitionError reports a status change that is not reachable from current.
func NewInvalidTransitionError(current, target string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, target),
	}
}

func NewAlreadyTerminalError(entity, status string) *Error {
	return &Error{
		Kind:    KindAlreadyTerminal,
		Message: fmt.Sprintf("%s is already %s", entity, status),
	}
}

func NewAlreadyConfirmedError(entity string) *Error {
	return &Error{
		Kind:    KindAlreadyConfirmed,
		Message: fmt.Sprintf("%s is already confirmed", entity),
	}
}

func NewSlotConflictError(message string) *Error {
	return &Error{Kind: KindSlotConflict, Message: message}
}

func NewInvalidDistanceError(message string) *Error {
	return &Error{Kind: KindInvalidDistance, Message: message}
}

func NewInvalidGeometryError(message string) *Error {
	return &Error{Kind: KindInvalidGeometry, Message: message}
}

func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewStorageError wraps a persistence failure for the named operation.
func NewStorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// NewNotificationError wraps a failed side effect (event dispatch, mail, notification).
func NewNotificationError(message string, err error) *Error {
	return &Error{Kind: KindNotification, Message: message, Err: err}
}
