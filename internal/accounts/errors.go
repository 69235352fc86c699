package accounts

import "errors"

var (
	ErrEmailRequired      = errors.New("accounts: email is required")
	ErrWeakPassword       = errors.New("accounts: password must be 8 to 72 bytes")
	ErrEmailTaken         = errors.New("accounts: email already registered")
	ErrProfileNotFound    = errors.New("accounts: profile not found")
	ErrInvalidCredentials = errors.New("accounts: invalid email or password")
	ErrInvalidToken       = errors.New("accounts: invalid token")
	ErrTokenRevoked       = errors.New("accounts: token revoked")
)
