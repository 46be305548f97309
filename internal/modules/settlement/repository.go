package settlement

import "context"

// Repository executes a settlement as one atomic unit of work: balance check,
// stock check and decrement, balance debit, and transaction append either all
// happen or none do. No concurrent settlement, stock edit, or charge may
// observe an intermediate state.
type Repository interface {
	Settle(ctx context.Context, memberID string, lines []Line, batchID string) (*SettleResult, error)
}
