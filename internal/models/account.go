package models

type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
	PlanVip     Plan = "vip"
)

// WithdrawalThreshold is the minimum balance an account must hold before a
// withdrawal request may be created.
func (p Plan) WithdrawalThreshold() float64 {
	switch p {
	case PlanPremium, PlanVip:
		return 5
	default:
		return 100
	}
}

// DailyClaim is the amount credited by a successful daily claim.
func (p Plan) DailyClaim() float64 {
	switch p {
	case PlanPremium:
		return 2
	case PlanVip:
		return 5
	default:
		return 0.5
	}
}

func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanVip:
		return true
	}
	return false
}

type Account struct {
	ID           string `json:"id" redis:"id"`
	Username     string `json:"username" redis:"username"`
	PasswordHash string `json:"-" redis:"password_hash"`

	Balance     float64 `json:"balance" redis:"balance"`
	Plan        Plan    `json:"plan" redis:"plan"`
	TotalEarned float64 `json:"total_earned" redis:"total_earned"`

	ReferralCode  string `json:"referral_code" redis:"referral_code"`
	ReferredBy    string `json:"referred_by,omitempty" redis:"referred_by"`
	ReferralCount int64  `json:"referral_count" redis:"referral_count"`

	PendingUpgradeID string `json:"pending_upgrade_id,omitempty" redis:"pending_upgrade_id"`
	SignupBonusPaid  bool   `json:"signup_bonus_paid" redis:"signup_bonus_paid"`

	LastClaimAt int64 `json:"last_claim_at" redis:"last_claim_at"`
	CreatedAt   int64 `json:"created_at" redis:"created_at"`
	UpdatedAt   int64 `json:"updated_at" redis:"updated_at"`
}

type BalanceResponse struct {
	Balance     float64 `json:"balance"`
	Plan        Plan    `json:"plan"`
	TotalEarned float64 `json:"total_earned"`
	// Threshold is the withdrawal threshold for the account's current plan.
	Threshold float64 `json:"withdrawal_threshold"`
}
