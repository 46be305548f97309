package history

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type postgresRepo struct{ db *sqlx.DB }

// NewPostgresRepository wraps the shared connection for the read-mostly
// history queries.
func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

const txColumns = `id, batch_id, member_id, product_id, member_name, member_grade,
	product_name, product_category, quantity, unit_price, total, is_archived, created_at`

func (r *postgresRepo) List(ctx context.Context, limit int) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+txColumns+` FROM transactions
		WHERE NOT is_archived
		ORDER BY created_at DESC LIMIT $1`, limit)
	return txs, err
}

func (r *postgresRepo) ListByMember(ctx context.Context, memberID string, limit int) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+txColumns+` FROM transactions
		WHERE NOT is_archived AND member_id = $1
		ORDER BY created_at DESC LIMIT $2`, memberID, limit)
	return txs, err
}

func (r *postgresRepo) ArchiveAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET is_archived = TRUE WHERE NOT is_archived`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postgresRepo) AllForExport(ctx context.Context, includeArchived bool) ([]Transaction, error) {
	var txs []Transaction
	q := `SELECT ` + txColumns + ` FROM transactions`
	if !includeArchived {
		q += ` WHERE NOT is_archived`
	}
	q += ` ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &txs, q)
	return txs, err
}
