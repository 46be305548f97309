package settlement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Line is one validated cart entry.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// SettleRequest is the payload of the settlement RPC. Prices are never taken
// from the client; only ids and quantities cross the wire.
type SettleRequest struct {
	MemberID string `json:"member_id"`
	Items    []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// SettleResult is returned after a committed settlement.
type SettleResult struct {
	NewBalance int64  `json:"new_balance"`
	BatchID    string `json:"batch_id"`
	Total      int64  `json:"total"`
	// LowStock lists line products whose post-sale purchasable quantity is
	// known; the service filters against the restock threshold.
	LowStock []LowStockAlert `json:"-"`
}

// LowStockAlert carries what the notification sink needs.
type LowStockAlert struct {
	ProductName string
	Remaining   int
}

// ── error taxonomy ────────────────────────────────────────────────────────────

// ErrInsufficientFunds means the debit would drive the balance negative.
// Expected user-facing outcome, never auto-retried.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrStorageUnavailable is a transient storage failure. Nothing was applied;
// the caller may retry the identical request.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrMemberNotFound means the settling member does not exist.
var ErrMemberNotFound = errors.New("member not found")

// ErrMemberInactive means the settling member has been deactivated.
var ErrMemberInactive = errors.New("member is inactive")

// ErrSettlementInFlight means another settlement for the same member is still
// running; the new request is rejected, not queued.
var ErrSettlementInFlight = errors.New("settlement already in flight for this member")

// InsufficientStockError names the line item whose requested quantity exceeds
// the freshly resolved purchasable quantity. The whole cart fails with it.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
