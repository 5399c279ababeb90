package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/store"
)

// LedgerService moves financial requests through the
// pending -> {approved, rejected} state machine. Creation never touches a
// balance; approval applies the effect exactly once. Resolutions are
// idempotent at the status level: retrying an already-resolved request
// yields ErrAlreadyResolved, never a duplicate effect.
type LedgerService struct {
	requests  store.RequestStore
	accounts  *AccountService
	referrals *ReferralService
	clock     Clock

	// Plaintext a password-reset approval resolves the credential to.
	resetPassword string
}

func NewLedgerService(requests store.RequestStore, accounts *AccountService, referrals *ReferralService, clock Clock, resetPassword string) *LedgerService {
	return &LedgerService{
		requests:      requests,
		accounts:      accounts,
		referrals:     referrals,
		clock:         clock,
		resetPassword: resetPassword,
	}
}

func (s *LedgerService) newRequest(accountID string, kind models.RequestKind) *models.FinancialRequest {
	return &models.FinancialRequest{
		ID:        models.GenerateRequestID(),
		AccountID: accountID,
		Kind:      kind,
		Status:    models.RequestStatusPending,
		CreatedAt: s.clock.Now().Unix(),
	}
}

func (s *LedgerService) CreateDeposit(ctx context.Context, accountID string, amount float64, proof string) (*models.FinancialRequest, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	req := s.newRequest(accountID, models.RequestKindDeposit)
	req.Amount = amount
	req.Proof = proof

	if err := s.requests.SaveRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *LedgerService) CreateWithdrawal(ctx context.Context, accountID string, amount float64, destination string) (*models.FinancialRequest, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	acct, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if amount < acct.Plan.WithdrawalThreshold() {
		return nil, models.ErrBelowMinimum
	}
	// Creation-time check only; approval re-validates because the balance
	// may change while the request sits pending.
	if amount > acct.Balance {
		return nil, models.ErrInsufficientBalance
	}

	req := s.newRequest(accountID, models.RequestKindWithdrawal)
	req.Amount = amount
	req.Destination = destination

	if err := s.requests.SaveRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *LedgerService) CreateUpgrade(ctx context.Context, accountID string, plan models.Plan) (*models.FinancialRequest, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("unknown plan: %s", plan)
	}

	req := s.newRequest(accountID, models.RequestKindUpgrade)
	req.TargetPlan = plan

	// Claim the single pending-upgrade slot under the account lock so two
	// concurrent creates cannot both pass the check.
	_, err := s.accounts.WithAccount(ctx, accountID, func(a *models.Account) error {
		if a.PendingUpgradeID != "" {
			return models.ErrUpgradePending
		}
		a.PendingUpgradeID = req.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.requests.SaveRequest(ctx, req); err != nil {
		// Release the slot so the account is not wedged.
		s.clearPendingUpgrade(ctx, accountID, req.ID)
		return nil, err
	}
	return req, nil
}

func (s *LedgerService) CreatePasswordReset(ctx context.Context, accountID string) (*models.FinancialRequest, error) {
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	req := s.newRequest(accountID, models.RequestKindPasswordReset)
	if err := s.requests.SaveRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve resolves a pending request and applies its effect. The status
// transition and the balance mutation happen under the account's exclusive
// section; the transition itself is a compare-and-swap, so a concurrent
// second approval fails with ErrAlreadyResolved before any effect.
func (s *LedgerService) Approve(ctx context.Context, requestID string) (*models.FinancialRequest, error) {
	req, err := s.requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Resolved() {
		return nil, models.ErrAlreadyResolved
	}

	now := s.clock.Now().Unix()
	var resolved *models.FinancialRequest

	_, err = s.accounts.WithAccount(ctx, req.AccountID, func(a *models.Account) error {
		switch req.Kind {
		case models.RequestKindDeposit:
			r, err := s.requests.ResolveRequest(ctx, req.ID, models.RequestStatusApproved, "", now)
			if err != nil {
				return err
			}
			a.Balance += req.Amount
			a.TotalEarned += req.Amount
			resolved = r

		case models.RequestKindWithdrawal:
			if req.Amount > a.Balance {
				// The balance dropped while the request was pending.
				// Resolve as rejected rather than failing the call.
				r, err := s.requests.ResolveRequest(ctx, req.ID, models.RequestStatusRejected, models.ReasonInsufficientAtApproval, now)
				if err != nil {
					return err
				}
				resolved = r
				return nil
			}
			r, err := s.requests.ResolveRequest(ctx, req.ID, models.RequestStatusApproved, "", now)
			if err != nil {
				return err
			}
			a.Balance -= req.Amount
			resolved = r

		case models.RequestKindUpgrade:
			r, err := s.requests.ResolveRequest(ctx, req.ID, models.RequestStatusApproved, "", now)
			if err != nil {
				return err
			}
			a.Plan = req.TargetPlan
			if a.PendingUpgradeID == req.ID {
				a.PendingUpgradeID = ""
			}
			resolved = r

		case models.RequestKindPasswordReset:
			// Hash before the terminal transition: a hash failure must
			// leave the request pending, not approved with the credential
			// untouched.
			hash, err := bcrypt.GenerateFromPassword([]byte(s.resetPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash reset password: %w", err)
			}
			r, err := s.requests.ResolveRequest(ctx, req.ID, models.RequestStatusApproved, "", now)
			if err != nil {
				return err
			}
			a.PasswordHash = string(hash)
			resolved = r

		default:
			return fmt.Errorf("unknown request kind: %s", req.Kind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A referred depositor triggers the referral cascade. Failures there
	// are logged inside the cascade and never block the approval.
	if req.Kind == models.RequestKindDeposit && resolved.Status == models.RequestStatusApproved {
		s.referrals.OnReferralEvent(ctx, req.AccountID)
	}

	return resolved, nil
}

func (s *LedgerService) Reject(ctx context.Context, requestID, reason string) (*models.FinancialRequest, error) {
	req, err := s.requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Resolved() {
		return nil, models.ErrAlreadyResolved
	}

	resolved, err := s.requests.ResolveRequest(ctx, req.ID, models.RequestStatusRejected, reason, s.clock.Now().Unix())
	if err != nil {
		return nil, err
	}

	if req.Kind == models.RequestKindUpgrade {
		s.clearPendingUpgrade(ctx, req.AccountID, req.ID)
	}
	return resolved, nil
}

func (s *LedgerService) ListPending(ctx context.Context, kind models.RequestKind) ([]*models.FinancialRequest, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("unknown request kind: %s", kind)
	}
	return s.requests.ListPending(ctx, kind)
}

func (s *LedgerService) Request(ctx context.Context, requestID string) (*models.FinancialRequest, error) {
	return s.requests.Request(ctx, requestID)
}

func (s *LedgerService) clearPendingUpgrade(ctx context.Context, accountID, requestID string) {
	_, err := s.accounts.WithAccount(ctx, accountID, func(a *models.Account) error {
		if a.PendingUpgradeID == requestID {
			a.PendingUpgradeID = ""
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"account": accountID,
			"request": requestID,
		}).Error("failed to clear pending upgrade")
	}
}
