package catalog

import "context"

// Repository defines product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	// List returns every product, inactive ones included; callers filter.
	List(ctx context.Context) ([]*Product, error)
}
