package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Charge(ctx context.Context, memberID string, amount int64, note string, allowNegative bool) (*ChargeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		name    string
		balance int64
		mid     uuid.UUID
	)
	err = tx.QueryRowContext(ctx, `
		SELECT m.id, m.name, b.balance
		FROM member_balances b
		JOIN members m ON m.id = b.member_id
		WHERE b.member_id = $1
		FOR UPDATE OF b`, memberID).Scan(&mid, &name, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}

	newBalance := balance + amount
	if newBalance < 0 && !allowNegative {
		return nil, ErrBalanceWouldGoNegative
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE member_balances SET balance=$1, updated_at=$2 WHERE member_id=$3`,
		newBalance, now, mid); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO charge_logs (id, member_id, member_name, amount, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.New(), mid, name, amount, note, now); err != nil {
		return nil, err
	}
	var boxBalance int64
	if err := tx.QueryRowContext(ctx, `
		UPDATE cash_box SET balance = balance + $1, updated_at=$2 WHERE id = 1
		RETURNING balance`, amount, now).Scan(&boxBalance); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ChargeResult{
		MemberName:     name,
		Amount:         amount,
		NewBalance:     newBalance,
		CashBoxBalance: boxBalance,
	}, nil
}

func (r *postgresRepo) AddExpense(ctx context.Context, e *Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (id, label, amount, created_at)
		VALUES ($1,$2,$3,$4)`,
		e.ID, e.Label, e.Amount, e.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE cash_box SET balance = balance - $1, updated_at=$2 WHERE id = 1`,
		e.Amount, e.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) GetCashBox(ctx context.Context) (*CashBox, error) {
	box := &CashBox{}
	err := r.db.QueryRowContext(ctx,
		`SELECT balance, updated_at FROM cash_box WHERE id = 1`).
		Scan(&box.Balance, &box.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return box, nil
}

func (r *postgresRepo) Reconcile(ctx context.Context, balance int64, note string) (*CashBox, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM cash_box WHERE id = 1 FOR UPDATE`).Scan(&current); err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE cash_box SET balance=$1, updated_at=$2 WHERE id = 1`, balance, now); err != nil {
		return nil, err
	}
	// the difference is booked as an adjustment expense so the ledger
	// still sums to the box
	if diff := current - balance; diff != 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, label, amount, created_at)
			VALUES ($1,$2,$3,$4)`,
			uuid.New(), note, diff, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &CashBox{Balance: balance, UpdatedAt: now}, nil
}

func (r *postgresRepo) ListCharges(ctx context.Context, limit int) ([]*ChargeLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, member_name, amount, note, created_at
		FROM charge_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*ChargeLog
	for rows.Next() {
		l := &ChargeLog{}
		if err := rows.Scan(&l.ID, &l.MemberID, &l.MemberName, &l.Amount, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *postgresRepo) ListExpenses(ctx context.Context, limit int) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, amount, created_at
		FROM expenses ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e := &Expense{}
		if err := rows.Scan(&e.ID, &e.Label, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
