package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
	"rewards-miniapp-backend/internal/store"
)

func newTestLedger(mem *store.MemoryStore, clock services.Clock, referralBonus float64) (*services.LedgerService, *services.AccountService) {
	accounts := services.NewAccountService(mem, clock)
	referrals := services.NewReferralService(mem, accounts, referralBonus)
	ledger := services.NewLedgerService(mem, accounts, referrals, clock, "Welcome123")
	return ledger, accounts
}

func TestDepositLifecycle(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanBasic, 0)
	ctx := context.Background()

	req, err := ledger.CreateDeposit(ctx, acct.ID, 50, "txhash123")
	if err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}
	if req.Status != models.RequestStatusPending {
		t.Errorf("New request should be pending, got %s", req.Status)
	}

	// Creation has no balance effect.
	current, _ := accounts.Get(ctx, acct.ID)
	if current.Balance != 0 {
		t.Errorf("Balance should be unchanged before approval, got %.2f", current.Balance)
	}

	resolved, err := ledger.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if resolved.Status != models.RequestStatusApproved {
		t.Errorf("Expected approved, got %s", resolved.Status)
	}

	current, _ = accounts.Get(ctx, acct.ID)
	if current.Balance != 50 {
		t.Errorf("Expected balance 50 after approval, got %.2f", current.Balance)
	}
	if current.TotalEarned != 50 {
		t.Errorf("Expected total earned 50, got %.2f", current.TotalEarned)
	}
}

func TestDepositInvalidAmount(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, _ := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanBasic, 0)

	for _, amount := range []float64{0, -5} {
		_, err := ledger.CreateDeposit(context.Background(), acct.ID, amount, "")
		if !errors.Is(err, models.ErrInvalidAmount) {
			t.Errorf("Amount %.2f: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestApproveIsTerminal(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanBasic, 0)
	ctx := context.Background()

	req, _ := ledger.CreateDeposit(ctx, acct.ID, 25, "")
	if _, err := ledger.Approve(ctx, req.ID); err != nil {
		t.Fatalf("First approve failed: %v", err)
	}

	if _, err := ledger.Approve(ctx, req.ID); !errors.Is(err, models.ErrAlreadyResolved) {
		t.Errorf("Second approve: expected ErrAlreadyResolved, got %v", err)
	}
	if _, err := ledger.Reject(ctx, req.ID, "late"); !errors.Is(err, models.ErrAlreadyResolved) {
		t.Errorf("Reject after approve: expected ErrAlreadyResolved, got %v", err)
	}

	// The credit applied exactly once.
	current, _ := accounts.Get(ctx, acct.ID)
	if current.Balance != 25 {
		t.Errorf("Expected balance 25 after one approval, got %.2f", current.Balance)
	}
}

func TestWithdrawalCreationChecks(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, _ := newTestLedger(mem, newFakeClock(), 1)
	ctx := context.Background()

	// Basic plan: threshold 100.
	basic := seedAccount(t, mem, models.PlanBasic, 120)
	if _, err := ledger.CreateWithdrawal(ctx, basic.ID, 50, "addr"); !errors.Is(err, models.ErrBelowMinimum) {
		t.Errorf("Expected ErrBelowMinimum, got %v", err)
	}
	if _, err := ledger.CreateWithdrawal(ctx, basic.ID, 150, "addr"); !errors.Is(err, models.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
	if _, err := ledger.CreateWithdrawal(ctx, basic.ID, 100, "addr"); err != nil {
		t.Errorf("Valid withdrawal failed: %v", err)
	}

	// Premium plan: threshold 5.
	premium := seedAccount(t, mem, models.PlanPremium, 10)
	if _, err := ledger.CreateWithdrawal(ctx, premium.ID, 5, "addr"); err != nil {
		t.Errorf("Premium withdrawal at threshold failed: %v", err)
	}
}

func TestWithdrawalRevalidatedAtApproval(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanPremium, 50)
	ctx := context.Background()

	req, err := ledger.CreateWithdrawal(ctx, acct.ID, 50, "addr")
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	// The balance drops while the request sits pending.
	if _, err := accounts.Debit(ctx, acct.ID, 40); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	resolved, err := ledger.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("Approve should resolve, not error: %v", err)
	}
	if resolved.Status != models.RequestStatusRejected {
		t.Errorf("Expected rejected, got %s", resolved.Status)
	}
	if resolved.Reason != models.ReasonInsufficientAtApproval {
		t.Errorf("Expected reason %q, got %q", models.ReasonInsufficientAtApproval, resolved.Reason)
	}

	// Balance untouched by the rejected approval.
	current, _ := accounts.Get(ctx, acct.ID)
	if current.Balance != 10 {
		t.Errorf("Expected balance 10, got %.2f", current.Balance)
	}
}

func TestWithdrawalApprovalDebits(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanVip, 30)
	ctx := context.Background()

	req, _ := ledger.CreateWithdrawal(ctx, acct.ID, 20, "addr")
	resolved, err := ledger.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if resolved.Status != models.RequestStatusApproved {
		t.Errorf("Expected approved, got %s", resolved.Status)
	}

	current, _ := accounts.Get(ctx, acct.ID)
	if current.Balance != 10 {
		t.Errorf("Expected balance 10 after withdrawal, got %.2f", current.Balance)
	}
}

func TestUpgradeExclusivity(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanBasic, 0)
	ctx := context.Background()

	first, err := ledger.CreateUpgrade(ctx, acct.ID, models.PlanPremium)
	if err != nil {
		t.Fatalf("First upgrade failed: %v", err)
	}

	if _, err := ledger.CreateUpgrade(ctx, acct.ID, models.PlanVip); !errors.Is(err, models.ErrUpgradePending) {
		t.Errorf("Second upgrade: expected ErrUpgradePending, got %v", err)
	}

	resolved, err := ledger.Approve(ctx, first.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if resolved.Status != models.RequestStatusApproved {
		t.Errorf("Expected approved, got %s", resolved.Status)
	}

	current, _ := accounts.Get(ctx, acct.ID)
	if current.Plan != models.PlanPremium {
		t.Errorf("Expected premium plan, got %s", current.Plan)
	}
	if current.PendingUpgradeID != "" {
		t.Error("Approval should clear the pending upgrade slot")
	}

	// The slot is free again.
	if _, err := ledger.CreateUpgrade(ctx, acct.ID, models.PlanVip); err != nil {
		t.Errorf("Upgrade after resolution failed: %v", err)
	}
}

func TestRejectClearsPendingUpgrade(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanBasic, 0)
	ctx := context.Background()

	req, _ := ledger.CreateUpgrade(ctx, acct.ID, models.PlanVip)
	resolved, err := ledger.Reject(ctx, req.ID, "no payment received")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if resolved.Status != models.RequestStatusRejected {
		t.Errorf("Expected rejected, got %s", resolved.Status)
	}
	if resolved.Reason != "no payment received" {
		t.Errorf("Unexpected reason: %q", resolved.Reason)
	}

	current, _ := accounts.Get(ctx, acct.ID)
	if current.Plan != models.PlanBasic {
		t.Errorf("Reject must not change the plan, got %s", current.Plan)
	}
	if current.PendingUpgradeID != "" {
		t.Error("Reject should clear the pending upgrade slot")
	}
}

func TestPasswordResetApproval(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	acct := seedAccount(t, mem, models.PlanBasic, 15)
	ctx := context.Background()

	// Multiple pending resets are allowed.
	first, err := ledger.CreatePasswordReset(ctx, acct.ID)
	if err != nil {
		t.Fatalf("First reset failed: %v", err)
	}
	second, err := ledger.CreatePasswordReset(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Second reset failed: %v", err)
	}

	if _, err := ledger.Approve(ctx, first.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := ledger.Approve(ctx, second.ID); err != nil {
		t.Fatalf("Second approval should be a no-op, got: %v", err)
	}

	current, _ := accounts.Get(ctx, acct.ID)
	if current.PasswordHash == "" {
		t.Error("Approval should set the reset credential")
	}
	if current.Balance != 15 {
		t.Errorf("Password reset must not touch the balance, got %.2f", current.Balance)
	}
}

func TestPasswordResetHashFailureLeavesRequestPending(t *testing.T) {
	mem := store.NewMemoryStore()
	clock := newFakeClock()
	accounts := services.NewAccountService(mem, clock)
	referrals := services.NewReferralService(mem, accounts, 1)
	// bcrypt rejects passwords longer than 72 bytes.
	ledger := services.NewLedgerService(mem, accounts, referrals, clock, strings.Repeat("x", 80))

	acct := seedAccount(t, mem, models.PlanBasic, 0)
	ctx := context.Background()

	req, err := ledger.CreatePasswordReset(ctx, acct.ID)
	if err != nil {
		t.Fatalf("CreatePasswordReset failed: %v", err)
	}

	if _, err := ledger.Approve(ctx, req.ID); err == nil {
		t.Fatal("Approve should fail when the credential cannot be hashed")
	}

	// The request must still be pending and the credential untouched.
	stored, err := ledger.Request(ctx, req.ID)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if stored.Status != models.RequestStatusPending {
		t.Errorf("Failed approval must leave the request pending, got %s", stored.Status)
	}
	current, _ := accounts.Get(ctx, acct.ID)
	if current.PasswordHash != "" {
		t.Error("Failed approval must not touch the credential")
	}
}

func TestApprovedDepositFiresReferralCascade(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	ctx := context.Background()

	referrer := seedAccount(t, mem, models.PlanBasic, 0)

	referee := seedAccount(t, mem, models.PlanBasic, 0)
	_, err := accounts.WithAccount(ctx, referee.ID, func(a *models.Account) error {
		a.ReferredBy = referrer.ReferralCode
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to link referral: %v", err)
	}

	req, _ := ledger.CreateDeposit(ctx, referee.ID, 100, "")
	if _, err := ledger.Approve(ctx, req.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	ref, _ := accounts.Get(ctx, referrer.ID)
	if ref.Balance != 1 {
		t.Errorf("Expected referral bonus 1, got %.2f", ref.Balance)
	}
	if ref.ReferralCount != 1 {
		t.Errorf("Expected referral count 1, got %d", ref.ReferralCount)
	}
}

func TestDanglingReferralDoesNotBlockDeposit(t *testing.T) {
	mem := store.NewMemoryStore()
	ledger, accounts := newTestLedger(mem, newFakeClock(), 1)
	ctx := context.Background()

	referee := seedAccount(t, mem, models.PlanBasic, 0)
	_, err := accounts.WithAccount(ctx, referee.ID, func(a *models.Account) error {
		a.ReferredBy = "GONECODE"
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to set dangling code: %v", err)
	}

	req, _ := ledger.CreateDeposit(ctx, referee.ID, 100, "")
	resolved, err := ledger.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("Deposit approval must survive a dangling referral: %v", err)
	}
	if resolved.Status != models.RequestStatusApproved {
		t.Errorf("Expected approved, got %s", resolved.Status)
	}

	current, _ := accounts.Get(ctx, referee.ID)
	if current.Balance != 100 {
		t.Errorf("Expected balance 100, got %.2f", current.Balance)
	}
}

func TestListPendingFiltersByKind(t *testing.T) {
	mem := store.NewMemoryStore()
	clock := newFakeClock()
	ledger, _ := newTestLedger(mem, clock, 1)
	acct := seedAccount(t, mem, models.PlanPremium, 100)
	ctx := context.Background()

	dep, _ := ledger.CreateDeposit(ctx, acct.ID, 10, "")
	clock.Advance(time.Second)
	wd, _ := ledger.CreateWithdrawal(ctx, acct.ID, 20, "addr")
	clock.Advance(time.Second)
	ledger.CreatePasswordReset(ctx, acct.ID)

	all, err := ledger.ListPending(ctx, "")
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 pending requests, got %d", len(all))
	}
	if all[0].ID != dep.ID {
		t.Error("Pending requests should be ordered oldest first")
	}

	withdrawals, err := ledger.ListPending(ctx, models.RequestKindWithdrawal)
	if err != nil {
		t.Fatalf("ListPending(withdrawal) failed: %v", err)
	}
	if len(withdrawals) != 1 || withdrawals[0].ID != wd.ID {
		t.Errorf("Expected only the withdrawal, got %d entries", len(withdrawals))
	}

	if _, err := ledger.Approve(ctx, dep.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	all, _ = ledger.ListPending(ctx, "")
	if len(all) != 2 {
		t.Errorf("Resolved requests must leave the pending list, got %d", len(all))
	}
}
