package domain

import "errors"

// Content errors are terminal for a session, recoverable only by
// reload/retry. Economy errors decline the operation with no state change.
var (
	ErrNoQuestions = errors.New("no questions available")

	ErrInsufficientFunds = errors.New("insufficient xp")
	ErrLimitReached      = errors.New("item limit reached")
	ErrAlreadyOwned      = errors.New("item already owned")
	ErrNotOwned          = errors.New("item not owned")
	ErrUnknownItem       = errors.New("unknown item")

	ErrProfileNotFound   = errors.New("profile not found")
	ErrNameInvalid       = errors.New("invalid player name")
	ErrNameInappropriate = errors.New("inappropriate player name")
)
