package catalog

import "errors"

// Sentinel errors for catalog parsing.
var (
	ErrUnknownTier   = errors.New("unknown tier")
	ErrUnknownMetric = errors.New("unknown metric")
)
