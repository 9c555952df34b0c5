package dedupe

import "errors"

// ErrBackend wraps failures of a shared dedupe backend.
var ErrBackend = errors.New("dedupe backend error")
