package domain

import "errors"

var (
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingSubject     = errors.New("token carries no subscriber id")
	ErrSigningDisabled    = errors.New("token issuing requires a signing secret")
	ErrCredentialNotFound = errors.New("no stored credential")
)
