package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines catalog business logic.
type Service interface {
	// ListCatalog returns active products with their resolved purchasable
	// quantity. Advisory only: settlement re-checks inside its transaction.
	ListCatalog(ctx context.Context) ([]*ResolvedProduct, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, req SaveProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id string, req SaveProductRequest) (*Product, error)
}

type service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a new catalog service.
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) ListCatalog(ctx context.Context) ([]*ResolvedProduct, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := BuildIndex(products)

	var out []*ResolvedProduct
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		out = append(out, &ResolvedProduct{
			Product:     p,
			Purchasable: EffectiveStock(p, idx),
		})
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx)
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, req SaveProductRequest) (*Product, error) {
	p := &Product{ID: uuid.New(), IsActive: true}
	if err := s.applyRequest(ctx, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created",
		zap.String("product_id", p.ID.String()), zap.String("name", p.Name),
		zap.Bool("composite", p.IsComposite()))
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req SaveProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyRequest(ctx, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// applyRequest validates the request against the stored catalog and copies it
// onto p. Recipe acyclicity is enforced here, at write time, so read paths
// never have to defend against a looping graph.
func (s *service) applyRequest(ctx context.Context, p *Product, req SaveProductRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	recipe, err := ParseRecipe(req.Recipe)
	if err != nil {
		return err
	}
	if len(recipe) > 0 {
		existing, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		if err := ValidateRecipe(p.ID, recipe, BuildIndex(existing)); err != nil {
			return err
		}
	}

	p.Name = req.Name
	p.Category = req.Category
	p.Price = req.Price
	p.Cost = req.Cost
	p.Stock = req.Stock
	p.Recipe = recipe
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return nil
}
