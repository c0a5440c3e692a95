package model

import "errors"

// Common errors used across the application
var (
	// Profile errors
	ErrProfileNotFound  = errors.New("profile not found")
	ErrProfileNotCached = errors.New("profile is not online")
	ErrInvalidProfileID = errors.New("invalid profile id")

	// Progression errors
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrNotEligible   = errors.New("profile is not eligible for prestige")

	// Economy errors
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrEconomyUnavailable = errors.New("economy is unavailable")

	// Worker errors
	ErrWorkerClosed = errors.New("worker is closed")
	ErrFlushTimeout = errors.New("timed out waiting for pending saves")
)
