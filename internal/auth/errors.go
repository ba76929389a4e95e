package auth

import "errors"

var (
	// ErrTokenExpired indicates a correctly signed token whose lifetime lapsed.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid indicates a token that must be rejected outright.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrTokenClaims indicates a verified token lacking userId or roleId.
	ErrTokenClaims = errors.New("auth: token missing principal claims")

	// ErrUsernameNotFound is returned by sign-in for unknown usernames.
	ErrUsernameNotFound = errors.New("auth: username does not exist")
	// ErrPasswordIncorrect is returned by sign-in when the password mismatches.
	ErrPasswordIncorrect = errors.New("auth: password is incorrect")
)
