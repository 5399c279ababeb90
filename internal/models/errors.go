package models

import "errors"

// Core error taxonomy. Every validation failure maps to exactly one of
// these so callers can render a specific message.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrInvalidStake        = errors.New("invalid stake")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrBelowMinimum        = errors.New("amount below withdrawal threshold")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUpgradePending      = errors.New("an upgrade request is already pending")
	ErrAlreadyResolved     = errors.New("request already resolved")
	ErrClaimNotReady       = errors.New("daily claim not ready yet")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrSelfReferral        = errors.New("cannot use your own referral code")
	ErrInvalidCredentials  = errors.New("invalid username or password")
)
