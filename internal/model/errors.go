package model

import (
	"errors"
	"fmt"
)

// Error codes for every recoverable, caller-facing failure. Persistence
// failures (lock timeouts, lost connections) are not part of this taxonomy;
// they propagate wrapped and are retried by the caller.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidInterval    = "INVALID_INTERVAL"
	CodeDurationOutOfRange = "DURATION_OUT_OF_RANGE"
	CodePastReservation    = "PAST_RESERVATION"
	CodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	CodeConflict           = "CONFLICT"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
)

// Error is the domain error envelope. Every rejected mutation returns one of
// these with enough detail for the caller to correct the request.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is (or wraps) a domain Error with the given code.
func IsCode(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidInterval(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidInterval, Message: fmt.Sprintf(format, args...)}
}

func NewDurationOutOfRange(format string, args ...any) *Error {
	return &Error{Code: CodeDurationOutOfRange, Message: fmt.Sprintf(format, args...)}
}

func NewPastReservation(msg string) *Error {
	return &Error{Code: CodePastReservation, Message: msg}
}

func NewCapacityExceeded(attendees, capacity int) *Error {
	return &Error{
		Code:    CodeCapacityExceeded,
		Message: fmt.Sprintf("expected attendees (%d) exceed resource capacity (%d)", attendees, capacity),
	}
}

func NewConflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func NewInvalidTransition(from, event string) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("event %q is not allowed from state %q", event, from),
	}
}

func NewPermissionDenied(msg string) *Error {
	return &Error{Code: CodePermissionDenied, Message: msg}
}

func NewNotFound(entity string, id any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}
