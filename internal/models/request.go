package models

type RequestKind string

const (
	RequestKindDeposit       RequestKind = "deposit"
	RequestKindWithdrawal    RequestKind = "withdrawal"
	RequestKindUpgrade       RequestKind = "upgrade"
	RequestKindPasswordReset RequestKind = "password_reset"
)

func (k RequestKind) Valid() bool {
	switch k {
	case RequestKindDeposit, RequestKindWithdrawal, RequestKindUpgrade, RequestKindPasswordReset:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// ReasonInsufficientAtApproval marks a withdrawal that was still pending
// when the balance dropped below the requested amount. The approval call
// resolves it as rejected instead of erroring, so an admin retry sees a
// terminal state.
const ReasonInsufficientAtApproval = "insufficient_at_approval"

// FinancialRequest is the single tagged shape behind every admin-resolved
// request. Amount is zero for password resets, Proof is set only for
// deposits, Destination only for withdrawals, TargetPlan only for upgrades.
type FinancialRequest struct {
	ID        string        `json:"id" redis:"id"`
	AccountID string        `json:"account_id" redis:"account_id"`
	Kind      RequestKind   `json:"kind" redis:"kind"`
	Amount    float64       `json:"amount,omitempty" redis:"amount"`
	Status    RequestStatus `json:"status" redis:"status"`

	Proof       string `json:"proof,omitempty" redis:"proof"`
	Destination string `json:"destination,omitempty" redis:"destination"`
	TargetPlan  Plan   `json:"target_plan,omitempty" redis:"target_plan"`

	// Reason is set when Status is rejected.
	Reason string `json:"reason,omitempty" redis:"reason"`

	CreatedAt  int64 `json:"created_at" redis:"created_at"`
	ResolvedAt int64 `json:"resolved_at,omitempty" redis:"resolved_at"`
}

func (r *FinancialRequest) Resolved() bool {
	return r.Status != RequestStatusPending
}
