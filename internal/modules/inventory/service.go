package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the admin stock-management logic.
type Service interface {
	// Restock adds delivered stock to a simple product.
	Restock(ctx context.Context, productID string, req AdjustRequest) (*AdjustResult, error)
	// Discard removes spoiled or lost stock.
	Discard(ctx context.Context, productID string, req AdjustRequest) (*AdjustResult, error)
	// Stocktake overwrites the stored count with a physically counted one.
	Stocktake(ctx context.Context, productID string, req StocktakeRequest) (*AdjustResult, error)
	ListLogs(ctx context.Context, productID string, limit int) ([]*ProductLog, error)
}

type service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a new inventory service.
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) Restock(ctx context.Context, productID string, req AdjustRequest) (*AdjustResult, error) {
	if err := validateTarget(productID); err != nil {
		return nil, err
	}
	if req.Delta <= 0 {
		return nil, fmt.Errorf("delta must be > 0")
	}
	res, err := s.repo.Adjust(ctx, productID, req.Delta, ActionRestock, req.Note)
	if err != nil {
		return nil, err
	}
	s.log.Info("restocked",
		zap.String("product_id", productID), zap.Int("delta", req.Delta), zap.Int("stock", res.Stock))
	return res, nil
}

func (s *service) Discard(ctx context.Context, productID string, req AdjustRequest) (*AdjustResult, error) {
	if err := validateTarget(productID); err != nil {
		return nil, err
	}
	if req.Delta <= 0 {
		return nil, fmt.Errorf("delta must be > 0")
	}
	res, err := s.repo.Adjust(ctx, productID, -req.Delta, ActionDiscard, req.Note)
	if err != nil {
		return nil, err
	}
	s.log.Info("stock discarded",
		zap.String("product_id", productID), zap.Int("delta", req.Delta), zap.Int("stock", res.Stock))
	return res, nil
}

func (s *service) Stocktake(ctx context.Context, productID string, req StocktakeRequest) (*AdjustResult, error) {
	if err := validateTarget(productID); err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must be >= 0")
	}
	res, err := s.repo.SetStock(ctx, productID, req.Stock, req.Note)
	if err != nil {
		return nil, err
	}
	s.log.Info("stocktake recorded",
		zap.String("product_id", productID), zap.Int("stock", res.Stock))
	return res, nil
}

func (s *service) ListLogs(ctx context.Context, productID string, limit int) ([]*ProductLog, error) {
	if productID != "" {
		if _, err := uuid.Parse(productID); err != nil {
			return nil, fmt.Errorf("invalid product id: %w", err)
		}
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListLogs(ctx, productID, limit)
}

func validateTarget(productID string) error {
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if _, err := uuid.Parse(productID); err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}
	return nil
}
