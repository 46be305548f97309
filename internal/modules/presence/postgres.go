package presence

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Get(ctx context.Context, kioskID string) (*KioskStatus, error) {
	st := &KioskStatus{}
	var uid sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT kiosk_id, current_uid, updated_at FROM kiosk_status WHERE kiosk_id=$1`,
		kioskID).Scan(&st.KioskID, &uid, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// a kiosk with no row yet simply has no card present
		return &KioskStatus{KioskID: kioskID, UpdatedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, err
	}
	if uid.Valid {
		st.CurrentUID = &uid.String
	}
	return st, nil
}

func (r *postgresRepo) SetCard(ctx context.Context, kioskID string, uid *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kiosk_status (kiosk_id, current_uid, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (kiosk_id)
		DO UPDATE SET current_uid = EXCLUDED.current_uid, updated_at = EXCLUDED.updated_at`,
		kioskID, uid, time.Now())
	return err
}
