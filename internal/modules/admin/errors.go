package admin

import "errors"

var (
	ErrInvalidTransition = errors.New("user status transition not allowed")
	ErrSelfModification  = errors.New("administrators cannot change their own status")
)
