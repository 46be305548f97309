package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	recipe, err := recipeJSON(p.Recipe)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, cost, stock, recipe, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Name, p.Category, p.Price, p.Cost, p.Stock, recipe, p.IsActive)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if err := logEdit(ctx, tx, p, "CREATE"); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	recipe, err := recipeJSON(p.Recipe)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name=$1, category=$2, price=$3, cost=$4, stock=$5, recipe=$6,
		    is_active=$7, updated_at=$8
		WHERE id=$9`,
		p.Name, p.Category, p.Price, p.Cost, p.Stock, recipe, p.IsActive,
		time.Now(), p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	if err := logEdit(ctx, tx, p, "EDIT"); err != nil {
		return err
	}
	return tx.Commit()
}

// logEdit keeps product_logs a complete admin audit trail: stock mutations
// get their rows from the inventory module, edits get theirs here.
func logEdit(ctx context.Context, tx *sql.Tx, p *Product, action string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_logs (id, product_id, product_name, action, delta, note)
		VALUES ($1,$2,$3,$4,0,'')`,
		uuid.New(), p.ID, p.Name, action)
	return err
}

const productColumns = `id, name, category, price, cost, stock, recipe, is_active, created_at, updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s rowScanner) (*Product, error) {
	p := &Product{}
	var cost sql.NullInt64
	var recipe []byte
	err := s.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &cost, &p.Stock,
		&recipe, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cost.Valid {
		p.Cost = &cost.Int64
	}
	if len(recipe) > 0 {
		if err := json.Unmarshal(recipe, &p.Recipe); err != nil {
			return nil, fmt.Errorf("decode recipe for %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func recipeJSON(recipe Recipe) (interface{}, error) {
	if len(recipe) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(recipe)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	return b, nil
}
