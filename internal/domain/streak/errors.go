package streak

import "errors"

// ErrInvalidDay is returned when a day cannot be parsed.
var ErrInvalidDay = errors.New("invalid day")
