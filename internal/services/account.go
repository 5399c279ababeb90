package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/store"
)

// Credit reasons, recorded in logs.
const (
	ReasonGameWin       = "game_win"
	ReasonDeposit       = "deposit"
	ReasonSignupBonus   = "signup_bonus"
	ReasonReferralBonus = "referral_bonus"
	ReasonDailyClaim    = "daily_claim"
)

const claimInterval = 24 * time.Hour

// AccountService owns every balance mutation. All of them run inside a
// per-account exclusive section so concurrent callers observe a strict
// total order and no update is lost.
type AccountService struct {
	dir   store.Directory
	locks *accountLocks
	clock Clock
}

func NewAccountService(dir store.Directory, clock Clock) *AccountService {
	return &AccountService{
		dir:   dir,
		locks: newAccountLocks(),
		clock: clock,
	}
}

// WithAccount loads the account, runs fn with exclusive access to it and
// persists the result. fn returning an error aborts without persisting.
func (s *AccountService) WithAccount(ctx context.Context, id string, fn func(*models.Account) error) (*models.Account, error) {
	mu := s.locks.acquire(id)
	defer mu.Unlock()

	acct, err := s.dir.Account(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(acct); err != nil {
		return nil, err
	}

	acct.UpdatedAt = s.clock.Now().Unix()
	if err := s.dir.UpdateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.dir.Account(ctx, id)
}

func (s *AccountService) Credit(ctx context.Context, id string, amount float64, reason string) (*models.Account, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	acct, err := s.WithAccount(ctx, id, func(a *models.Account) error {
		a.Balance += amount
		a.TotalEarned += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account": id,
		"amount":  amount,
		"reason":  reason,
	}).Debug("credited account")
	return acct, nil
}

func (s *AccountService) Debit(ctx context.Context, id string, amount float64) (*models.Account, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	return s.WithAccount(ctx, id, func(a *models.Account) error {
		if amount > a.Balance {
			return models.ErrInsufficientBalance
		}
		a.Balance -= amount
		return nil
	})
}

func (s *AccountService) SetPlan(ctx context.Context, id string, plan models.Plan) (*models.Account, error) {
	return s.WithAccount(ctx, id, func(a *models.Account) error {
		a.Plan = plan
		return nil
	})
}

// Claim credits the plan's daily amount, at most once per 24 hours.
func (s *AccountService) Claim(ctx context.Context, id string) (*models.Account, float64, error) {
	var claimed float64
	acct, err := s.WithAccount(ctx, id, func(a *models.Account) error {
		now := s.clock.Now()
		if a.LastClaimAt > 0 && now.Sub(time.Unix(a.LastClaimAt, 0)) < claimInterval {
			return models.ErrClaimNotReady
		}
		claimed = a.Plan.DailyClaim()
		a.Balance += claimed
		a.TotalEarned += claimed
		a.LastClaimAt = now.Unix()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return acct, claimed, nil
}
