package leaderboard

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("user not ranked")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrUnknownBoard = errors.New("unknown leaderboard")
)
