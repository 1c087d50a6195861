package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMalformedLogin     = errors.New("malformed login response")
)
