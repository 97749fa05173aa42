package usecase

import "errors"

// Sentinel errors form the engine's failure taxonomy; handlers map them to
// HTTP statuses with errors.Is instead of matching message strings.
var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateReview   = errors.New("duplicate review for this device and network")
	ErrReviewNotFound    = errors.New("review not found")
	ErrListingNotFound   = errors.New("listing not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSweepRunning      = errors.New("sweep already running")
)
