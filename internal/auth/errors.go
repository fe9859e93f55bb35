package auth

import "errors"

// Token verification failures. Verify wraps the underlying jwt error with one
// of these so callers can tell them apart with errors.Is.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrMissingSubject   = errors.New("token has no subject")
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown user or a wrong
	// password. Both cases carry the same message.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrUnauthenticated covers a missing, invalid or expired token, and a
	// token whose subject no longer exists.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrForbidden is returned for a valid token that belongs to an inactive user.
	ErrForbidden     = errors.New("inactive user")
	ErrDuplicateUser = errors.New("username already registered")
	ErrInvalidInput  = errors.New("invalid input")
)
