package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/store"
)

// ReferralService credits the referring account when a referred account
// completes a qualifying action (registration, approved deposit). The
// bonus is a fixed amount per event, independent of deposit size.
type ReferralService struct {
	dir      store.Directory
	accounts *AccountService
	bonus    float64
}

func NewReferralService(dir store.Directory, accounts *AccountService, bonus float64) *ReferralService {
	return &ReferralService{
		dir:      dir,
		accounts: accounts,
		bonus:    bonus,
	}
}

// OnReferralEvent resolves the referee's referral code and credits the
// referrer. It never returns an error: a dangling code or a failed credit
// must not block the operation that triggered the event, so failures are
// logged and swallowed.
func (s *ReferralService) OnReferralEvent(ctx context.Context, refereeID string) {
	referee, err := s.dir.Account(ctx, refereeID)
	if err != nil {
		log.WithError(err).WithField("account", refereeID).Error("referral event for unknown account")
		return
	}
	if referee.ReferredBy == "" {
		return
	}

	referrer, err := s.dir.AccountByReferralCode(ctx, referee.ReferredBy)
	if err != nil {
		log.WithFields(log.Fields{
			"account": refereeID,
			"code":    referee.ReferredBy,
		}).Warn("referral code no longer resolves to an account")
		return
	}

	_, err = s.accounts.WithAccount(ctx, referrer.ID, func(a *models.Account) error {
		a.Balance += s.bonus
		a.TotalEarned += s.bonus
		a.ReferralCount++
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"referrer": referrer.ID,
			"referee":  refereeID,
		}).Error("failed to credit referral bonus")
	}
}
