// Package apperr defines the tagged error kinds returned at every engine
// API boundary. Callers branch on Kind via errors.As instead of matching
// message text.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine error.
type Kind string

const (
	KindValidation       Kind = "VALIDATION"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidState     Kind = "INVALID_STATE"
	KindOutOfWindow      Kind = "OUT_OF_WINDOW"
	KindAttemptLimit     Kind = "ATTEMPT_LIMIT_EXCEEDED"
	KindAlreadySubmitted Kind = "ALREADY_SUBMITTED"
	KindInvalidScore     Kind = "INVALID_SCORE"
)

// Error carries a kind, a message, and for validation failures the full
// list of violations rather than only the first.
type Error struct {
	Kind       Kind
	Message    string
	Violations []string
}

func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return e.Message + ": " + strings.Join(e.Violations, "; ")
	}
	return e.Message
}

// Validation builds a KindValidation error from the collected violations.
func Validation(violations ...string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    "validation failed",
		Violations: violations,
	}
}

// NotFound reports a missing exam, response, or question.
func NotFound(resource string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

// InvalidState reports an operation attempted outside its allowed status.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// OutOfWindow reports an attempt action outside the exam's time window.
func OutOfWindow(format string, args ...any) *Error {
	return &Error{Kind: KindOutOfWindow, Message: fmt.Sprintf(format, args...)}
}

// AttemptLimit reports that a student has used up the exam's maxAttempts.
func AttemptLimit(examID any, max int) *Error {
	return &Error{
		Kind:    KindAttemptLimit,
		Message: fmt.Sprintf("attempt limit of %d reached for exam %v", max, examID),
	}
}

// AlreadySubmitted is returned to the loser of a double-submit race.
func AlreadySubmitted(responseID any) *Error {
	return &Error{
		Kind:    KindAlreadySubmitted,
		Message: fmt.Sprintf("response %v is no longer in progress", responseID),
	}
}

// InvalidScore reports a manual score outside [0, question.points].
func InvalidScore(score, max int) *Error {
	return &Error{
		Kind:    KindInvalidScore,
		Message: fmt.Sprintf("score %d outside valid range [0, %d]", score, max),
	}
}

// KindOf returns the Kind of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind,
// unwrapping as needed.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
