package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oshimalab/foodstore-backend/internal/modules/notify"
)

// Service defines the cash-box ledger business logic.
type Service interface {
	// Charge tops up a member's balance with cash put in the box.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	// Refund hands cash back out of the box, debiting the member's balance.
	Refund(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Expense(ctx context.Context, req ExpenseRequest) (*Expense, error)
	// Reconcile sets the box to the counted cash amount, booking the
	// difference as an adjustment.
	Reconcile(ctx context.Context, req ReconcileRequest) (*CashBox, error)
	CashBox(ctx context.Context) (*CashBox, error)
	ListCharges(ctx context.Context, limit int) ([]*ChargeLog, error)
	ListExpenses(ctx context.Context, limit int) ([]*Expense, error)
}

type service struct {
	repo Repository
	sink notify.Sink
	log  *zap.Logger
}

// NewService creates a new ledger service.
func NewService(repo Repository, sink notify.Sink, log *zap.Logger) Service {
	return &service{repo: repo, sink: sink, log: log}
}

func (s *service) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := validateChargeRequest(req); err != nil {
		return nil, err
	}
	res, err := s.repo.Charge(ctx, req.MemberID, req.Amount, req.Note, false)
	if err != nil {
		return nil, err
	}
	s.log.Info("charge committed",
		zap.String("member_id", req.MemberID),
		zap.String("member_name", res.MemberName),
		zap.Int64("amount", res.Amount),
		zap.Int64("new_balance", res.NewBalance))

	// charge reports are best-effort and must never delay the response
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.sink.Charge(ctx, res.MemberName, res.Amount, res.CashBoxBalance)
	}()
	return res, nil
}

func (s *service) Refund(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := validateChargeRequest(req); err != nil {
		return nil, err
	}
	note := req.Note
	if note == "" {
		note = "refund"
	}
	res, err := s.repo.Charge(ctx, req.MemberID, -req.Amount, note, req.AllowNegative)
	if err != nil {
		return nil, err
	}
	s.log.Info("refund committed",
		zap.String("member_id", req.MemberID),
		zap.String("member_name", res.MemberName),
		zap.Int64("amount", res.Amount),
		zap.Int64("new_balance", res.NewBalance))
	return res, nil
}

func (s *service) Expense(ctx context.Context, req ExpenseRequest) (*Expense, error) {
	if strings.TrimSpace(req.Label) == "" {
		return nil, fmt.Errorf("label is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be > 0")
	}
	e := &Expense{
		ID:        uuid.New(),
		Label:     strings.TrimSpace(req.Label),
		Amount:    req.Amount,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddExpense(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info("expense recorded", zap.String("label", e.Label), zap.Int64("amount", e.Amount))
	return e, nil
}

func (s *service) Reconcile(ctx context.Context, req ReconcileRequest) (*CashBox, error) {
	if req.Balance < 0 {
		return nil, fmt.Errorf("balance must be >= 0")
	}
	note := req.Note
	if note == "" {
		note = "cash box reconciliation"
	}
	box, err := s.repo.Reconcile(ctx, req.Balance, note)
	if err != nil {
		return nil, err
	}
	s.log.Info("cash box reconciled", zap.Int64("balance", box.Balance))
	return box, nil
}

func (s *service) CashBox(ctx context.Context) (*CashBox, error) {
	return s.repo.GetCashBox(ctx)
}

func (s *service) ListCharges(ctx context.Context, limit int) ([]*ChargeLog, error) {
	return s.repo.ListCharges(ctx, normalizeLimit(limit))
}

func (s *service) ListExpenses(ctx context.Context, limit int) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, normalizeLimit(limit))
}

func validateChargeRequest(req ChargeRequest) error {
	if req.MemberID == "" {
		return fmt.Errorf("member_id is required")
	}
	if _, err := uuid.Parse(req.MemberID); err != nil {
		return fmt.Errorf("invalid member_id: %w", err)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("amount must be > 0")
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
