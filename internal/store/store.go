// Package store holds the persistence interfaces the services are written
// against, with a Redis implementation for production and an in-memory one
// for tests. All state is reached through these interfaces; nothing in the
// services touches a process-wide singleton.
package store

import (
	"context"
	"time"

	"rewards-miniapp-backend/internal/models"
)

// Directory is the user directory: account records keyed by id, username
// and referral code.
type Directory interface {
	// CreateAccount stores a new account. Fails with models.ErrUsernameTaken
	// when the username is already claimed.
	CreateAccount(ctx context.Context, acct *models.Account) error
	Account(ctx context.Context, id string) (*models.Account, error)
	AccountByUsername(ctx context.Context, username string) (*models.Account, error)
	AccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
	UpdateAccount(ctx context.Context, acct *models.Account) error
}

// RequestStore persists financial requests and their resolution state.
type RequestStore interface {
	SaveRequest(ctx context.Context, req *models.FinancialRequest) error
	Request(ctx context.Context, id string) (*models.FinancialRequest, error)
	// ResolveRequest transitions a pending request to a terminal status.
	// The pending check and the status write are atomic together; a request
	// that already left pending fails with models.ErrAlreadyResolved.
	ResolveRequest(ctx context.Context, id string, status models.RequestStatus, reason string, resolvedAt int64) (*models.FinancialRequest, error)
	// ListPending returns pending requests, oldest first. An empty kind
	// matches every kind.
	ListPending(ctx context.Context, kind models.RequestKind) ([]*models.FinancialRequest, error)
}

// RoundStore keeps the trimmed per-account round history.
type RoundStore interface {
	// AppendRound records a settled round, keeping only the most recent
	// MaxRoundHistory entries per account.
	AppendRound(ctx context.Context, round *models.GameRound) error
	// RecentRounds returns the retained rounds, newest first.
	RecentRounds(ctx context.Context, accountID string) ([]*models.GameRound, error)
}

// RateLimiter counts actions per account inside a rolling window.
type RateLimiter interface {
	// CheckRateLimit records one occurrence of action for the account and
	// reports whether the count is still within limit for the window.
	CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error)
}

// MaxRoundHistory caps the per-account round history.
const MaxRoundHistory = 5
