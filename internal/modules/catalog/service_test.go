package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRepo struct {
	products map[string]*Product
}

func newStubRepo() *stubRepo { return &stubRepo{products: map[string]*Product{}} }

func (r *stubRepo) Create(_ context.Context, p *Product) error {
	r.products[p.ID.String()] = p
	return nil
}

func (r *stubRepo) Update(_ context.Context, p *Product) error {
	if _, ok := r.products[p.ID.String()]; !ok {
		return ErrProductNotFound
	}
	r.products[p.ID.String()] = p
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubRepo) List(_ context.Context) ([]*Product, error) {
	var out []*Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func TestCreateProduct_RejectsCycleAtSaveTime(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	base, err := svc.CreateProduct(ctx, SaveProductRequest{Name: "cup", Price: 0, Stock: 10})
	require.NoError(t, err)

	set, err := svc.CreateProduct(ctx, SaveProductRequest{
		Name: "set", Price: 200,
		Recipe: map[string]int{base.ID.String(): 2},
	})
	require.NoError(t, err)

	// closing the loop through the update path must fail and leave the
	// stored product untouched
	_, err = svc.UpdateProduct(ctx, base.ID.String(), SaveProductRequest{
		Name: "cup", Price: 0, Stock: 10,
		Recipe: map[string]int{set.ID.String(): 1},
	})
	var cycle *RecipeCycleError
	require.ErrorAs(t, err, &cycle)

	stored, err := svc.GetProduct(ctx, base.ID.String())
	require.NoError(t, err)
	assert.Empty(t, stored.Recipe)
}

func TestCreateProduct_RejectsZeroQuantityIngredient(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	base, err := svc.CreateProduct(ctx, SaveProductRequest{Name: "cup", Stock: 10})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, SaveProductRequest{
		Name: "set", Price: 100,
		Recipe: map[string]int{base.ID.String(): 0},
	})
	require.Error(t, err)
}

func TestListCatalog_ResolvesAndFiltersInactive(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	ing, err := svc.CreateProduct(ctx, SaveProductRequest{Name: "ingredient", Stock: 4})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, SaveProductRequest{
		Name: "set", Price: 300,
		Recipe: map[string]int{ing.ID.String(): 2},
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.CreateProduct(ctx, SaveProductRequest{Name: "retired", Stock: 9, IsActive: &inactive})
	require.NoError(t, err)

	catalog, err := svc.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	byName := map[string]int{}
	for _, rp := range catalog {
		byName[rp.Name] = rp.Purchasable
	}
	assert.Equal(t, 4, byName["ingredient"])
	assert.Equal(t, 2, byName["set"])
}
