// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Error carries an HTTP status and a machine readable code to the client.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// NewError constructs an Error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// RespondError maps domain errors to JSON error responses.
func RespondError(w http.ResponseWriter, err error) {
	var httpErr *Error
	switch {
	case errors.As(err, &httpErr):
		Fail(w, httpErr.Status, httpErr.Message, httpErr.Code)
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, shared.UserSafeMessage(err), "NOT_FOUND")
	case errors.Is(err, shared.ErrDuplicate):
		Fail(w, http.StatusConflict, shared.UserSafeMessage(err), "DUPLICATE")
	case errors.Is(err, shared.ErrConflict):
		Fail(w, http.StatusBadRequest, shared.UserSafeMessage(err), "CONFLICT")
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, shared.UserSafeMessage(err), "VALIDATION_FAILED")
	default:
		Fail(w, http.StatusInternalServerError, "Server error", "SERVER_ERROR")
	}
}
