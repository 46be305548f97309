package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CashBox is the single physical cash box shared by the whole store.
type CashBox struct {
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChargeLog records one balance top-up (or refund, as a negative amount).
type ChargeLog struct {
	ID         uuid.UUID `json:"id"`
	MemberID   uuid.UUID `json:"member_id"`
	MemberName string    `json:"member_name"`
	Amount     int64     `json:"amount"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expense records cash taken out of the box, including reconciliation
// adjustments.
type Expense struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// ChargeResult is the post-commit state a charge or refund leaves behind.
type ChargeResult struct {
	MemberName     string `json:"member_name"`
	Amount         int64  `json:"amount"`
	NewBalance     int64  `json:"new_balance"`
	CashBoxBalance int64  `json:"cash_box_balance"`
}

// ChargeRequest tops up a member's balance with cash handed over at the
// kiosk. Refunds reuse the same shape with the amount applied negatively.
type ChargeRequest struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
	Note     string `json:"note"`
	// AllowNegative lets a refund drive the member balance below zero,
	// e.g. when correcting a mistaken charge after the balance was spent.
	AllowNegative bool `json:"allow_negative,omitempty"`
}

// ExpenseRequest records cash spent out of the box.
type ExpenseRequest struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// ReconcileRequest sets the cash box to a counted absolute amount.
type ReconcileRequest struct {
	Balance int64  `json:"balance"`
	Note    string `json:"note"`
}

var (
	// ErrMemberNotFound is returned when a charge targets an unknown member.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBalanceWouldGoNegative is returned when a refund exceeds the
	// member's balance and the override flag is not set.
	ErrBalanceWouldGoNegative = errors.New("refund would drive balance negative")
)
