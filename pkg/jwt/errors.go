package jwt

import "errors"

var (
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrMissingToken      = errors.New("jwt: missing bearer token")
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrMissingSubject    = errors.New("jwt: token has no subject")
)
