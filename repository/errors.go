package repository

import "errors"

// Sentinel errors surfaced by repository implementations. Handlers check
// these with errors.Is; everything else is treated as an internal failure.
var (
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrNotFound      = errors.New("record not found")
)
