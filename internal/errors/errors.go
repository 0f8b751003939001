package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Readify client
var (
	// Credential errors
	ErrMalformedCredential = errors.New("malformed credential")
	ErrCredentialExpired   = errors.New("credential expired")
	ErrMissingIdentity     = errors.New("credential carries no user identity")
	ErrUnsealed            = errors.New("sealed value cannot be opened")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistration       = errors.New("registration rejected")

	// Remote API errors
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidRequest   = errors.New("invalid request")

	// Reading list errors
	ErrListNotFound  = errors.New("reading list not found")
	ErrIndexOutRange = errors.New("index out of range")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidScope = errors.New("invalid scope")
)

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
