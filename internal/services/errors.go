package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("authentication required")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSelfSwipe         = fmt.Errorf("%w: cannot swipe on yourself", ErrInvalidInput)
	ErrDuplicateInterest = errors.New("interest already exists")

	// ErrNotParticipant is an authorization failure: callers outside a match
	// or conversation are treated like anonymous ones.
	ErrNotParticipant = fmt.Errorf("%w: caller is not a participant", ErrUnauthorized)
)
