package domain

import "errors"

// Error kinds returned by the ledger core. Every mutating operation validates
// fully before any write; on failure the caller gets one of these wrapped with
// a human-readable reason and state is guaranteed unchanged.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidBucket       = errors.New("invalid bucket")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPolicyViolation     = errors.New("transfer policy violation")
	ErrAlreadyCompleted    = errors.New("goal already completed")
	ErrNotCompleted        = errors.New("goal not completed")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyProcessed    = errors.New("batch already processed")
)
