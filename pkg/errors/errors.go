package foxden_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyExists      = errors.New("already exists")
	ErrBackendUnavailable = errors.New("persistence backend unavailable")
	ErrNotInitialized     = errors.New("store not initialized")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
