package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProduct struct {
	name      string
	stock     int
	composite bool
}

type fakeRepo struct {
	products map[string]*fakeProduct
	logs     []*ProductLog
}

func newFakeRepo() *fakeRepo { return &fakeRepo{products: map[string]*fakeProduct{}} }

func (f *fakeRepo) add(name string, stock int, composite bool) string {
	id := uuid.NewString()
	f.products[id] = &fakeProduct{name: name, stock: stock, composite: composite}
	return id
}

func (f *fakeRepo) Adjust(_ context.Context, productID string, delta int, action LogAction, note string) (*AdjustResult, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	if p.composite {
		return nil, ErrCompositeHasNoStock
	}
	if p.stock+delta < 0 {
		return nil, ErrStockWouldGoNegative
	}
	p.stock += delta
	f.logs = append(f.logs, &ProductLog{
		ID: uuid.New(), ProductID: uuid.MustParse(productID), ProductName: p.name,
		Action: action, Delta: delta, Note: note, CreatedAt: time.Now(),
	})
	return &AdjustResult{ProductID: uuid.MustParse(productID), Stock: p.stock}, nil
}

func (f *fakeRepo) SetStock(_ context.Context, productID string, stock int, note string) (*AdjustResult, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	if p.composite {
		return nil, ErrCompositeHasNoStock
	}
	delta := stock - p.stock
	p.stock = stock
	f.logs = append(f.logs, &ProductLog{
		ID: uuid.New(), ProductID: uuid.MustParse(productID), ProductName: p.name,
		Action: ActionStocktake, Delta: delta, Note: note, CreatedAt: time.Now(),
	})
	return &AdjustResult{ProductID: uuid.MustParse(productID), Stock: stock}, nil
}

func (f *fakeRepo) ListLogs(_ context.Context, productID string, limit int) ([]*ProductLog, error) {
	var out []*ProductLog
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if productID == "" || f.logs[i].ProductID.String() == productID {
			out = append(out, f.logs[i])
		}
	}
	return out, nil
}

func TestRestock_AddsStockAndLogs(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add("コーヒー", 5, false)
	svc := NewService(repo, zap.NewNop())

	res, err := svc.Restock(context.Background(), id, AdjustRequest{Delta: 24, Note: "箱買い"})
	require.NoError(t, err)
	assert.Equal(t, 29, res.Stock)

	require.Len(t, repo.logs, 1)
	assert.Equal(t, ActionRestock, repo.logs[0].Action)
	assert.Equal(t, 24, repo.logs[0].Delta)
	assert.Equal(t, "コーヒー", repo.logs[0].ProductName)
}

func TestDiscard_CannotGoNegative(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add("コーヒー", 3, false)
	svc := NewService(repo, zap.NewNop())

	_, err := svc.Discard(context.Background(), id, AdjustRequest{Delta: 5})
	require.ErrorIs(t, err, ErrStockWouldGoNegative)
	assert.Equal(t, 3, repo.products[id].stock)
	assert.Empty(t, repo.logs)

	res, err := svc.Discard(context.Background(), id, AdjustRequest{Delta: 2, Note: "賞味期限切れ"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stock)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, -2, repo.logs[0].Delta)
}

func TestStocktake_LogsImpliedDelta(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add("コーラ", 10, false)
	svc := NewService(repo, zap.NewNop())

	res, err := svc.Stocktake(context.Background(), id, StocktakeRequest{Stock: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Stock)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, -3, repo.logs[0].Delta)

	_, err = svc.Stocktake(context.Background(), id, StocktakeRequest{Stock: -1})
	require.Error(t, err)
}

func TestStockWrites_RejectComposites(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add("カップ麺セット", 0, true)
	svc := NewService(repo, zap.NewNop())

	_, err := svc.Restock(context.Background(), id, AdjustRequest{Delta: 1})
	require.ErrorIs(t, err, ErrCompositeHasNoStock)
	_, err = svc.Stocktake(context.Background(), id, StocktakeRequest{Stock: 5})
	require.ErrorIs(t, err, ErrCompositeHasNoStock)
}

func TestAdjust_Validation(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add("コーヒー", 5, false)
	svc := NewService(repo, zap.NewNop())

	_, err := svc.Restock(context.Background(), id, AdjustRequest{Delta: 0})
	require.Error(t, err)
	_, err = svc.Restock(context.Background(), "not-a-uuid", AdjustRequest{Delta: 1})
	require.Error(t, err)
	_, err = svc.Restock(context.Background(), uuid.NewString(), AdjustRequest{Delta: 1})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestListLogs(t *testing.T) {
	repo := newFakeRepo()
	a := repo.add("コーヒー", 5, false)
	b := repo.add("コーラ", 5, false)
	svc := NewService(repo, zap.NewNop())

	_, err := svc.Restock(context.Background(), a, AdjustRequest{Delta: 1})
	require.NoError(t, err)
	_, err = svc.Restock(context.Background(), b, AdjustRequest{Delta: 2})
	require.NoError(t, err)

	all, err := svc.ListLogs(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "コーラ", all[0].ProductName) // newest first

	only, err := svc.ListLogs(context.Background(), a, 10)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "コーヒー", only[0].ProductName)

	_, err = svc.ListLogs(context.Background(), "junk", 10)
	require.Error(t, err)
}
