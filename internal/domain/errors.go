package domain

import "errors"

// Store boundary errors shared by every persistence adapter.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflicting booking committed")
	ErrNotActive = errors.New("booking is not active")
)
