package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Create inserts the member and its balance row inside a single transaction.
func (r *postgresRepo) Create(ctx context.Context, m *Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (id, name, grade, card_uid, is_active)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.Name, m.Grade, m.CardUID, m.IsActive)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO member_balances (member_id, balance) VALUES ($1, $2)`,
		m.ID, m.Balance)
	if err != nil {
		return fmt.Errorf("insert balance: %w", err)
	}
	return tx.Commit()
}

const memberColumns = `m.id, m.name, m.grade, m.card_uid, m.is_active,
       COALESCE(b.balance, 0), m.created_at, m.updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Member, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members m LEFT JOIN member_balances b ON b.member_id = m.id
		WHERE m.id = $1`, id))
}

func (r *postgresRepo) GetByCardUID(ctx context.Context, uid string) (*Member, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members m LEFT JOIN member_balances b ON b.member_id = m.id
		WHERE m.card_uid = $1`, uid))
}

func (r *postgresRepo) List(ctx context.Context) ([]*Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+memberColumns+`
		FROM members m LEFT JOIN member_balances b ON b.member_id = m.id
		ORDER BY m.grade, m.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := r.scanRows(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET is_active=$1, updated_at=$2 WHERE id=$3`,
		active, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *postgresRepo) BindCard(ctx context.Context, id string, uid string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET card_uid=$1, updated_at=$2 WHERE id=$3`,
		uid, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *postgresRepo) UnbindCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET card_uid=NULL, updated_at=$1 WHERE id=$2`,
		time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresRepo) scan(row *sql.Row) (*Member, error) {
	m, err := r.scanRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *postgresRepo) scanRows(s rowScanner) (*Member, error) {
	m := &Member{}
	var cardUID sql.NullString
	err := s.Scan(&m.ID, &m.Name, &m.Grade, &cardUID, &m.IsActive,
		&m.Balance, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cardUID.Valid {
		m.CardUID = &cardUID.String
	}
	return m, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
