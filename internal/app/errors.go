package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNotFound   = errors.New("not found")
	// ErrClosed means Stop closed a store or deduper supplied by the caller,
	// so the service cannot be started again.
	ErrClosed = errors.New("service closed")
)
