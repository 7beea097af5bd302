package sentinel

import "errors"

// Sentinel dependency errors. Stores and adapters return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrOverflow     = errors.New("amount overflow")
	ErrUnavailable  = errors.New("unavailable")
)
