package services_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
	"rewards-miniapp-backend/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func seedAccount(t *testing.T, dir store.Directory, plan models.Plan, balance float64) *models.Account {
	t.Helper()

	acct := &models.Account{
		ID:           models.GenerateAccountID(),
		Username:     "user_" + models.GenerateReferralCode(),
		Plan:         plan,
		Balance:      balance,
		TotalEarned:  balance,
		ReferralCode: models.GenerateReferralCode(),
		CreatedAt:    time.Now().Unix(),
	}
	if err := dir.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("Failed to seed account: %v", err)
	}
	return acct
}

func newTestEngine(mem *store.MemoryStore, clock services.Clock, seed int64, easy, medium, hard float64) (*services.OutcomeEngine, *services.AccountService) {
	accounts := services.NewAccountService(mem, clock)
	settings := services.NewDifficultySettings(easy, medium, hard)
	rng := rand.New(rand.NewSource(seed))
	engine := services.NewOutcomeEngine(accounts, mem, settings, clock, rng)
	return engine, accounts
}
