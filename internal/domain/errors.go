package domain

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("no token provided")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingMessage     = errors.New("no message received")
	ErrSecretTooLong      = errors.New("secret must be at most 72 bytes")

	// ErrUpstream wraps every failure of the completion provider
	ErrUpstream = errors.New("upstream completion failed")
)
