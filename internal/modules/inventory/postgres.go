package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Adjust(ctx context.Context, productID string, delta int, action LogAction, note string) (*AdjustResult, error) {
	return r.mutate(ctx, productID, action, note, func(stock int) (int, error) {
		if stock+delta < 0 {
			return 0, ErrStockWouldGoNegative
		}
		return stock + delta, nil
	})
}

func (r *postgresRepo) SetStock(ctx context.Context, productID string, stock int, note string) (*AdjustResult, error) {
	return r.mutate(ctx, productID, ActionStocktake, note, func(int) (int, error) {
		return stock, nil
	})
}

// mutate locks the product row, computes the new stock, and writes the
// update plus its log row in one transaction.
func (r *postgresRepo) mutate(ctx context.Context, productID string, action LogAction, note string, next func(current int) (int, error)) (*AdjustResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		pid    uuid.UUID
		name   string
		stock  int
		recipe sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, stock, recipe::text FROM products
		WHERE id = $1 FOR UPDATE`, productID).Scan(&pid, &name, &stock, &recipe)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if recipe.Valid && recipe.String != "null" {
		return nil, ErrCompositeHasNoStock
	}

	newStock, err := next(stock)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET stock=$1, updated_at=$2 WHERE id=$3`,
		newStock, now, pid); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO product_logs (id, product_id, product_name, action, delta, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.New(), pid, name, action, newStock-stock, note, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &AdjustResult{ProductID: pid, Stock: newStock}, nil
}

func (r *postgresRepo) ListLogs(ctx context.Context, productID string, limit int) ([]*ProductLog, error) {
	q := `SELECT id, product_id, product_name, action, delta, note, created_at
		FROM product_logs`
	args := []interface{}{limit}
	if productID != "" {
		q += ` WHERE product_id = $2`
		args = append(args, productID)
	}
	q += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*ProductLog
	for rows.Next() {
		l := &ProductLog{}
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Action, &l.Delta, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
