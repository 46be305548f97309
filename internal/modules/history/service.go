package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Service defines the transaction history business logic.
type Service interface {
	List(ctx context.Context, limit int) ([]Transaction, error)
	MemberHistory(ctx context.Context, memberID string, limit int) ([]Transaction, error)
	// CloseOutPeriod archives every current transaction in one sweep,
	// typically after the monthly tally.
	CloseOutPeriod(ctx context.Context) (*ArchiveResult, error)
	// ExportCSV streams transactions as CSV to w.
	ExportCSV(ctx context.Context, w io.Writer, opts ExportOptions) error
}

type service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a new history service.
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) List(ctx context.Context, limit int) ([]Transaction, error) {
	return s.repo.List(ctx, normalizeLimit(limit))
}

func (s *service) MemberHistory(ctx context.Context, memberID string, limit int) ([]Transaction, error) {
	if _, err := uuid.Parse(memberID); err != nil {
		return nil, fmt.Errorf("invalid member id: %w", err)
	}
	return s.repo.ListByMember(ctx, memberID, normalizeLimit(limit))
}

func (s *service) CloseOutPeriod(ctx context.Context) (*ArchiveResult, error) {
	n, err := s.repo.ArchiveAll(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("period closed", zap.Int64("archived", n))
	return &ArchiveResult{Archived: n}, nil
}

var csvHeader = []string{"日時", "名前", "学年", "商品", "カテゴリ", "数量", "単価", "合計"}

func (s *service) ExportCSV(ctx context.Context, w io.Writer, opts ExportOptions) error {
	txs, err := s.repo.AllForExport(ctx, opts.IncludeArchived)
	if err != nil {
		return err
	}

	out := w
	if opts.ShiftJIS {
		out = transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
	}
	cw := csv.NewWriter(out)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			tx.MemberName,
			tx.MemberGrade,
			tx.ProductName,
			tx.ProductCategory,
			strconv.Itoa(tx.Quantity),
			strconv.FormatInt(tx.UnitPrice, 10),
			strconv.FormatInt(tx.Total, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if tw, ok := out.(*transform.Writer); ok {
		return tw.Close()
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
