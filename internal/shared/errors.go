package shared

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("already exists")
	// ErrValidation indicates the request payload failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the operation conflicts with related records.
	ErrConflict = errors.New("conflict")
)

// UserSafeMessage returns an error message suitable for API clients.
// Only errors built on the package sentinels are surfaced verbatim.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{ErrNotFound, ErrDuplicate, ErrValidation, ErrConflict} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			if i := strings.LastIndex(msg, ": "); i >= 0 && strings.HasPrefix(msg, sentinel.Error()) {
				msg = msg[i+2:]
			}
			return capitalize(msg)
		}
	}
	return "An unexpected error occurred"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
