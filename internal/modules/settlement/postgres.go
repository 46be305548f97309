package settlement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/oshimalab/foodstore-backend/internal/modules/catalog"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Settle runs the whole purchase inside one transaction. Lock order is fixed:
// the member's balance row first, then every product in the cart's ingredient
// closure ordered by id. Two concurrent settlements therefore serialize on
// whatever they share and cannot deadlock or double-read stale stock.
func (r *postgresRepo) Settle(ctx context.Context, memberID string, lines []Line, batchID string) (*SettleResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	// member snapshot + balance lock
	var memberName, memberGrade string
	var memberActive bool
	var balance int64
	err = tx.QueryRowContext(ctx, `
		SELECT m.name, m.grade, m.is_active, b.balance
		FROM members m
		JOIN member_balances b ON b.member_id = m.id
		WHERE m.id = $1
		FOR UPDATE OF b`, memberID).
		Scan(&memberName, &memberGrade, &memberActive, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if !memberActive {
		return nil, ErrMemberInactive
	}

	idx, err := r.lockProductClosure(ctx, tx, lines)
	if err != nil {
		return nil, err
	}

	plan, err := BuildPlan(lines, idx)
	if err != nil {
		return nil, err
	}

	if balance-plan.Total < 0 {
		return nil, ErrInsufficientFunds
	}

	for id, units := range plan.Deductions {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3`,
			units, time.Now(), id); err != nil {
			return nil, storageErr(err)
		}
	}

	var newBalance int64
	err = tx.QueryRowContext(ctx, `
		UPDATE member_balances SET balance = balance - $1, updated_at = $2
		WHERE member_id = $3
		RETURNING balance`, plan.Total, time.Now(), memberID).Scan(&newBalance)
	if err != nil {
		return nil, storageErr(err)
	}

	// one row per line item, all sharing the batch id and timestamp so the
	// settlement stays attributable to one logical event
	settledAt := time.Now()
	for _, line := range plan.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions
			  (id, batch_id, member_id, product_id, member_name, member_grade,
			   product_name, product_category, quantity, unit_price, total, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			uuid.New(), batchID, memberID, line.Product.ID,
			memberName, memberGrade, line.Product.Name, line.Product.Category,
			line.Quantity, line.UnitPrice, line.LineTotal, settledAt)
		if err != nil {
			return nil, storageErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}

	result := &SettleResult{NewBalance: newBalance, BatchID: batchID, Total: plan.Total}
	for _, line := range plan.Lines {
		result.LowStock = append(result.LowStock, LowStockAlert{
			ProductName: line.Product.Name,
			Remaining:   line.PostSaleStock,
		})
	}
	return result, nil
}

// lockProductClosure locks every product the cart can touch: the line items
// plus, transitively, every recipe ingredient. The closure is discovered with
// plain reads first, then locked in one ordered SELECT ... FOR UPDATE. If a
// concurrent recipe edit grew the closure between the two passes the
// settlement bails out as retryable rather than proceed with unlocked rows.
func (r *postgresRepo) lockProductClosure(ctx context.Context, tx *sql.Tx, lines []Line) (catalog.Index, error) {
	want := map[uuid.UUID]bool{}
	var frontier []uuid.UUID
	for _, line := range lines {
		if !want[line.ProductID] {
			want[line.ProductID] = true
			frontier = append(frontier, line.ProductID)
		}
	}

	for len(frontier) > 0 {
		products, err := r.selectProducts(ctx, tx, frontier, false)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, p := range products {
			for ingID := range p.Recipe {
				if !want[ingID] {
					want[ingID] = true
					frontier = append(frontier, ingID)
				}
			}
		}
	}

	all := make([]uuid.UUID, 0, len(want))
	for id := range want {
		all = append(all, id)
	}
	locked, err := r.selectProducts(ctx, tx, all, true)
	if err != nil {
		return nil, err
	}
	idx := catalog.BuildIndex(locked)

	// a recipe edited after the discovery pass may reference rows we did not
	// lock; treat as transient conflict
	for _, p := range locked {
		for ingID := range p.Recipe {
			if !want[ingID] {
				return nil, fmt.Errorf("%w: recipe changed during settlement", ErrStorageUnavailable)
			}
		}
	}
	return idx, nil
}

func (r *postgresRepo) selectProducts(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, lock bool) ([]*catalog.Product, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `
		SELECT id, name, category, price, stock, recipe, is_active
		FROM products WHERE id = ANY($1::uuid[]) ORDER BY id`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := tx.QueryContext(ctx, query, pq.Array(strIDs))
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p := &catalog.Product{}
		var recipe []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock,
			&recipe, &p.IsActive); err != nil {
			return nil, storageErr(err)
		}
		if len(recipe) > 0 {
			if err := json.Unmarshal(recipe, &p.Recipe); err != nil {
				return nil, storageErr(err)
			}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return products, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
