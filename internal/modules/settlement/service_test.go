package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oshimalab/foodstore-backend/internal/modules/catalog"
)

// memRepo implements Repository with the same atomic contract as the postgres
// implementation: one mutex plays the role of the row locks, and nothing is
// applied unless every check passes.
type memRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
	members  map[string]memMember
	txCount  int
	// block, when non-nil, is closed by the test to release a settlement
	// held inside the critical section
	gate func()
}

type memMember struct {
	name    string
	grade   string
	active  bool
	balance int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		products: map[uuid.UUID]*catalog.Product{},
		members:  map[string]memMember{},
	}
}

func (r *memRepo) addMember(balance int64) string {
	id := uuid.New().String()
	r.members[id] = memMember{name: "Sato", grade: "M1", active: true, balance: balance}
	return id
}

func (r *memRepo) addProduct(p *catalog.Product) { r.products[p.ID] = p }

func (r *memRepo) Settle(_ context.Context, memberID string, lines []Line, batchID string) (*SettleResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate != nil {
		r.gate()
	}

	m, ok := r.members[memberID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	if !m.active {
		return nil, ErrMemberInactive
	}

	idx := make(catalog.Index, len(r.products))
	for id, p := range r.products {
		idx[id] = p
	}
	plan, err := BuildPlan(lines, idx)
	if err != nil {
		return nil, err
	}
	if m.balance-plan.Total < 0 {
		return nil, ErrInsufficientFunds
	}

	for id, units := range plan.Deductions {
		r.products[id].Stock -= units
	}
	m.balance -= plan.Total
	r.members[memberID] = m
	r.txCount += len(plan.Lines)

	result := &SettleResult{NewBalance: m.balance, BatchID: batchID, Total: plan.Total}
	for _, line := range plan.Lines {
		result.LowStock = append(result.LowStock, LowStockAlert{
			ProductName: line.Product.Name,
			Remaining:   line.PostSaleStock,
		})
	}
	return result, nil
}

// captureSink records low-stock alerts on a channel so tests can wait for the
// fire-and-forget goroutines.
type captureSink struct{ lowStock chan LowStockAlert }

func newCaptureSink() *captureSink {
	return &captureSink{lowStock: make(chan LowStockAlert, 16)}
}

func (s *captureSink) LowStock(_ context.Context, name string, remaining int) {
	s.lowStock <- LowStockAlert{ProductName: name, Remaining: remaining}
}

func (s *captureSink) Charge(context.Context, string, int64, int64) {}

func req(memberID string, items ...struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}) SettleRequest {
	return SettleRequest{MemberID: memberID, Items: items}
}

func item(id uuid.UUID, qty int) struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
} {
	return struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}{ProductID: id.String(), Quantity: qty}
}

func TestSettle_EndToEnd(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(500)
	p7 := simple("onigiri", 150, 10)
	p9 := simple("tea", 120, 10)
	repo.addProduct(p7)
	repo.addProduct(p9)

	svc := NewService(repo, newCaptureSink(), 3, zap.NewNop())
	result, err := svc.Settle(context.Background(), req(memberID, item(p7.ID, 2), item(p9.ID, 1)))
	require.NoError(t, err)

	assert.Equal(t, int64(80), result.NewBalance)
	assert.Equal(t, int64(420), result.Total)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 8, p7.Stock)
	assert.Equal(t, 9, p9.Stock)
	assert.Equal(t, 2, repo.txCount)
}

func TestSettle_InsufficientFundsLeavesEverythingUntouched(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(100)
	p := simple("cola", 150, 5)
	repo.addProduct(p)

	svc := NewService(repo, newCaptureSink(), 3, zap.NewNop())
	_, err := svc.Settle(context.Background(), req(memberID, item(p.ID, 1)))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, int64(100), repo.members[memberID].balance)
	assert.Equal(t, 0, repo.txCount)
}

func TestSettle_InsufficientStockIsAllOrNothing(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(10000)
	ok := simple("cola", 100, 10)
	scarce := simple("pudding", 200, 1)
	repo.addProduct(ok)
	repo.addProduct(scarce)

	svc := NewService(repo, newCaptureSink(), 3, zap.NewNop())
	_, err := svc.Settle(context.Background(), req(memberID, item(ok.ID, 2), item(scarce.ID, 2)))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "pudding", stockErr.ProductName)

	// no line item was applied
	assert.Equal(t, 10, ok.Stock)
	assert.Equal(t, 1, scarce.Stock)
	assert.Equal(t, int64(10000), repo.members[memberID].balance)
	assert.Equal(t, 0, repo.txCount)
}

func TestSettle_ConcurrentLastUnit(t *testing.T) {
	repo := newMemRepo()
	a := repo.addMember(1000)
	b := repo.addMember(1000)
	p := simple("last-pudding", 200, 1)
	repo.addProduct(p)

	svc := NewService(repo, newCaptureSink(), 0, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, member := range []string{a, b} {
		wg.Add(1)
		go func(i int, member string) {
			defer wg.Done()
			_, errs[i] = svc.Settle(context.Background(), req(member, item(p.ID, 1)))
		}(i, member)
	}
	wg.Wait()

	var stockErr *InsufficientStockError
	if errs[0] == nil {
		require.ErrorAs(t, errs[1], &stockErr)
	} else {
		require.NoError(t, errs[1])
		require.ErrorAs(t, errs[0], &stockErr)
	}
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 1, repo.txCount)
}

func TestSettle_SecondTapWhileInFlightIsRejected(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(1000)
	p := simple("cola", 100, 10)
	repo.addProduct(p)

	entered := make(chan struct{})
	release := make(chan struct{})
	repo.gate = func() {
		close(entered)
		<-release
	}

	svc := NewService(repo, newCaptureSink(), 3, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Settle(context.Background(), req(memberID, item(p.ID, 1)))
		done <- err
	}()
	<-entered

	// the guard rejects before the repository is ever reached
	_, err := svc.Settle(context.Background(), req(memberID, item(p.ID, 1)))
	require.ErrorIs(t, err, ErrSettlementInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestSettle_LowStockAlertFires(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(1000)
	p := simple("choco", 100, 4)
	repo.addProduct(p)

	sink := newCaptureSink()
	svc := NewService(repo, sink, 3, zap.NewNop())

	_, err := svc.Settle(context.Background(), req(memberID, item(p.ID, 1)))
	require.NoError(t, err)

	select {
	case alert := <-sink.lowStock:
		assert.Equal(t, "choco", alert.ProductName)
		assert.Equal(t, 3, alert.Remaining)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a low stock alert")
	}
}

func TestSettle_NoAlertAboveThreshold(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(1000)
	p := simple("choco", 100, 10)
	repo.addProduct(p)

	sink := newCaptureSink()
	svc := NewService(repo, sink, 3, zap.NewNop())

	_, err := svc.Settle(context.Background(), req(memberID, item(p.ID, 1)))
	require.NoError(t, err)

	select {
	case alert := <-sink.lowStock:
		t.Fatalf("unexpected alert: %+v", alert)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSettle_ValidationErrors(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(1000)
	svc := NewService(repo, newCaptureSink(), 3, zap.NewNop())

	_, err := svc.Settle(context.Background(), SettleRequest{MemberID: memberID})
	require.Error(t, err)

	p := simple("cola", 100, 1)
	repo.addProduct(p)
	_, err = svc.Settle(context.Background(), req(memberID, item(p.ID, 0)))
	require.Error(t, err)

	_, err = svc.Settle(context.Background(), req("not-a-uuid", item(p.ID, 1)))
	require.Error(t, err)
}

func TestSettle_DuplicateLinesAreMerged(t *testing.T) {
	repo := newMemRepo()
	memberID := repo.addMember(1000)
	p := simple("cola", 100, 3)
	repo.addProduct(p)

	svc := NewService(repo, newCaptureSink(), 0, zap.NewNop())
	result, err := svc.Settle(context.Background(), req(memberID, item(p.ID, 1), item(p.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, int64(300), result.Total)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 1, repo.txCount)
}
