package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/store"
)

// AuthService handles registration and login. Registration credits the
// one-time signup bonus, captures the referral code and fires the referral
// cascade; the bonus is flagged on the account so it can never repeat.
type AuthService struct {
	dir           store.Directory
	accounts      *AccountService
	referrals     *ReferralService
	jwt           *JWTService
	clock         Clock
	signupBonus   float64
	adminUsername string
}

func NewAuthService(dir store.Directory, accounts *AccountService, referrals *ReferralService, jwt *JWTService, clock Clock, signupBonus float64, adminUsername string) *AuthService {
	return &AuthService{
		dir:           dir,
		accounts:      accounts,
		referrals:     referrals,
		jwt:           jwt,
		clock:         clock,
		signupBonus:   signupBonus,
		adminUsername: adminUsername,
	}
}

func (s *AuthService) role(username string) string {
	if username == s.adminUsername {
		return RoleAdmin
	}
	return RolePlayer
}

func (s *AuthService) Register(ctx context.Context, username, password, referralCode string) (*models.Account, string, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if len(username) < 3 {
		return nil, "", fmt.Errorf("username must be at least 3 characters")
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("password must be at least 6 characters")
	}

	referralCode = strings.ToUpper(strings.TrimSpace(referralCode))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	ownCode := models.GenerateReferralCode()
	if referralCode != "" && referralCode == ownCode {
		// Degenerate self-referential edge; vanishingly unlikely, but the
		// referral forest must stay acyclic by construction.
		return nil, "", models.ErrSelfReferral
	}

	now := s.clock.Now().Unix()
	acct := &models.Account{
		ID:           models.GenerateAccountID(),
		Username:     username,
		PasswordHash: string(hash),
		Plan:         models.PlanBasic,
		ReferralCode: ownCode,
		ReferredBy:   referralCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.dir.CreateAccount(ctx, acct); err != nil {
		return nil, "", err
	}

	// One-time signup bonus, flagged so it cannot repeat.
	acct, err = s.accounts.WithAccount(ctx, acct.ID, func(a *models.Account) error {
		if a.SignupBonusPaid {
			return nil
		}
		a.Balance += s.signupBonus
		a.TotalEarned += s.signupBonus
		a.SignupBonusPaid = true
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if acct.ReferredBy != "" {
		s.referrals.OnReferralEvent(ctx, acct.ID)
	}

	token, err := s.jwt.GenerateToken(acct.ID, s.role(username))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	log.WithFields(log.Fields{
		"account":  acct.ID,
		"username": username,
		"referred": acct.ReferredBy != "",
	}).Info("account registered")
	return acct, token, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Account, string, error) {
	username = strings.TrimSpace(strings.ToLower(username))

	acct, err := s.dir.AccountByUsername(ctx, username)
	if err != nil {
		return nil, "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, "", models.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(acct.ID, s.role(username))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return acct, token, nil
}
