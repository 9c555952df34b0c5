package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("profile not found")
	ErrConflict      = errors.New("concurrent profile update")
	ErrInvalidConfig = errors.New("invalid store config")
)
