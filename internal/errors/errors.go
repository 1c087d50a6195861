package errors

import (
	"errors"
	"fmt"
)

// Common error types for the academy client
var (
	// Session errors
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoRefreshToken = errors.New("no refresh token stored")
	ErrSessionCorrupt = errors.New("stored session is corrupt")

	// Token errors
	ErrMalformedTokenResponse = errors.New("malformed token response")

	// Configuration errors
	ErrUnknownStore = errors.New("unknown session store")

	// General errors
	ErrNilRequest  = errors.New("nil request")
	ErrUnknownRole = errors.New("unknown role")
)

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
