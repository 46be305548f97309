package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oshimalab/foodstore-backend/internal/modules/notify"
	"github.com/oshimalab/foodstore-backend/pkg/ids"
)

// Service defines the settlement business logic.
type Service interface {
	// Settle turns a cart into a balance debit, stock decrement, and
	// transaction records, atomically. InsufficientFunds and
	// InsufficientStock are expected outcomes; a StorageUnavailable failure
	// applied nothing and may be retried verbatim.
	Settle(ctx context.Context, req SettleRequest) (*SettleResult, error)
}

type service struct {
	repo              Repository
	sink              notify.Sink
	lowStockThreshold int
	log               *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates a new settlement service.
func NewService(repo Repository, sink notify.Sink, lowStockThreshold int, log *zap.Logger) Service {
	return &service{
		repo:              repo,
		sink:              sink,
		lowStockThreshold: lowStockThreshold,
		log:               log,
		inFlight:          map[string]bool{},
	}
}

func (s *service) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	lines, err := parseLines(req)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(req.MemberID); err != nil {
		return nil, fmt.Errorf("invalid member_id: %w", err)
	}

	// a second tap while a settlement is in flight is rejected, not queued
	if !s.acquire(req.MemberID) {
		return nil, ErrSettlementInFlight
	}
	defer s.release(req.MemberID)

	batchID := ids.NewBatchID()
	result, err := s.repo.Settle(ctx, req.MemberID, lines, batchID)
	if err != nil {
		return nil, err
	}

	s.log.Info("settlement committed",
		zap.String("member_id", req.MemberID),
		zap.String("batch_id", result.BatchID),
		zap.Int64("total", result.Total),
		zap.Int64("new_balance", result.NewBalance),
		zap.Int("lines", len(lines)))

	// restock alerts are best-effort and must never delay the response
	for _, alert := range result.LowStock {
		if alert.Remaining > s.lowStockThreshold {
			continue
		}
		go func(a LowStockAlert) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.sink.LowStock(ctx, a.ProductName, a.Remaining)
		}(alert)
	}
	return result, nil
}

func parseLines(req SettleRequest) ([]Line, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("cart must contain at least one item")
	}
	seen := map[uuid.UUID]int{}
	var order []uuid.UUID
	for _, item := range req.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id %q: %w", item.ProductID, err)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be > 0 for product %s", item.ProductID)
		}
		if _, ok := seen[id]; !ok {
			order = append(order, id)
		}
		seen[id] += item.Quantity
	}
	lines := make([]Line, 0, len(order))
	for _, id := range order {
		lines = append(lines, Line{ProductID: id, Quantity: seen[id]})
	}
	return lines, nil
}

func (s *service) acquire(memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[memberID] {
		return false
	}
	s.inFlight[memberID] = true
	return true
}

func (s *service) release(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, memberID)
}
