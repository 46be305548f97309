package ledger

import "context"

// Repository persists the cash-box ledger. Charge and Reconcile are atomic:
// every row they touch commits together or not at all.
type Repository interface {
	// Charge applies amount (positive or negative) to the member's balance,
	// appends a charge log and moves the same amount through the cash box,
	// all in one transaction. A negative amount with allowNegative unset
	// fails with ErrBalanceWouldGoNegative instead of overdrawing.
	Charge(ctx context.Context, memberID string, amount int64, note string, allowNegative bool) (*ChargeResult, error)

	// AddExpense records cash leaving the box.
	AddExpense(ctx context.Context, e *Expense) error

	GetCashBox(ctx context.Context) (*CashBox, error)

	// Reconcile sets the box to the counted balance and appends an
	// adjustment expense covering the difference, atomically.
	Reconcile(ctx context.Context, balance int64, note string) (*CashBox, error)

	ListCharges(ctx context.Context, limit int) ([]*ChargeLog, error)
	ListExpenses(ctx context.Context, limit int) ([]*Expense, error)
}
