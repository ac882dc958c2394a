package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountPending     = errors.New("account is waiting for approval")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrWeakPassword       = errors.New("password too short")
)
