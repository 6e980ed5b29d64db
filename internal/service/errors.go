package service

import "errors"

// Error kinds surfaced by the services. Handlers map each to its own
// HTTP status; they are never collapsed into a generic failure because
// the caller needs the exact reason (no copies vs. already returned vs.
// retryable conflict).
var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("record not found")
	ErrBookUnavailable   = errors.New("no copies available")
	ErrInvalidTransition = errors.New("loan is not in a state that allows this action")
	// ErrInvariantViolation means a counter update matched no row: the
	// write would have pushed the ledger outside 0 <= available <= total
	// or a balance below zero.
	ErrInvariantViolation = errors.New("catalog counters would be violated")
	// ErrConflict means the atomic commit failed for transient reasons.
	// Retrying the call with the same inputs is safe: nothing was applied.
	ErrConflict   = errors.New("storage conflict, retry the operation")
	ErrValidation = errors.New("invalid input")
)
