// Package errors provides structured error handling for the interview services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionNotFound         Code = "SESSION_NOT_FOUND"
	CodeSessionNotActive        Code = "SESSION_NOT_ACTIVE"
	CodeSessionNoActiveQuestion Code = "SESSION_NO_ACTIVE_QUESTION"
	CodeSessionTimerMissing     Code = "SESSION_TIMER_MISSING"
	CodeSessionInvalidInput     Code = "SESSION_INVALID_INPUT"

	// Status errors
	CodeStatusEmptyInternal Code = "STATUS_EMPTY_INTERNAL"

	// HR grant errors
	CodeGrantMissing Code = "HR_GRANT_MISSING"
	CodeGrantInvalid Code = "HR_GRANT_INVALID"
	CodeGrantExpired Code = "HR_GRANT_EXPIRED"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"

	// Listing errors
	CodeInvalidFilter    Code = "INVALID_FILTER"
	CodeInvalidPageToken Code = "INVALID_PAGE_TOKEN"
)

// HTTPStatus maps a code to the HTTP status used by the API surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeSessionNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeSessionNotActive, CodeSessionNoActiveQuestion, CodeSessionTimerMissing, CodeConflict:
		return http.StatusConflict
	case CodeSessionInvalidInput, CodeStatusEmptyInternal, CodeInvalidFilter, CodeInvalidPageToken:
		return http.StatusBadRequest
	case CodeGrantMissing, CodeGrantInvalid, CodeGrantExpired:
		return http.StatusUnauthorized
	case CodePersistenceFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
