package model

import "errors"

// ErrInvalidActivity marks an activity that fails validation.
var ErrInvalidActivity = errors.New("invalid activity")
