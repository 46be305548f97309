package member

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubRepo is an in-memory Repository for service tests.
type stubRepo struct {
	members map[string]*Member
}

func newStubRepo() *stubRepo { return &stubRepo{members: map[string]*Member{}} }

func (r *stubRepo) Create(_ context.Context, m *Member) error {
	r.members[m.ID.String()] = m
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (r *stubRepo) GetByCardUID(_ context.Context, uid string) (*Member, error) {
	for _, m := range r.members {
		if m.CardUID != nil && *m.CardUID == uid {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

func (r *stubRepo) List(_ context.Context) ([]*Member, error) {
	var out []*Member
	for _, m := range r.members {
		out = append(out, m)
	}
	return out, nil
}

func (r *stubRepo) SetActive(_ context.Context, id string, active bool) error {
	m, ok := r.members[id]
	if !ok {
		return ErrNotFound
	}
	m.IsActive = active
	return nil
}

func (r *stubRepo) BindCard(_ context.Context, id string, uid string) error {
	m, ok := r.members[id]
	if !ok {
		return ErrNotFound
	}
	m.CardUID = &uid
	return nil
}

func (r *stubRepo) UnbindCard(_ context.Context, id string) error {
	m, ok := r.members[id]
	if !ok {
		return ErrNotFound
	}
	m.CardUID = nil
	return nil
}

// stubWaiter delivers a fixed UID, or blocks until ctx is cancelled.
type stubWaiter struct{ uid string }

func (w *stubWaiter) AwaitNextCard(ctx context.Context) (string, error) {
	if w.uid == "" {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return w.uid, nil
}

func addMember(t *testing.T, repo *stubRepo, name string) *Member {
	t.Helper()
	m := &Member{ID: uuid.New(), Name: name, Grade: "M1", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

func TestBindCard(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, zap.NewNop())
	m := addMember(t, repo, "Sato")

	require.NoError(t, svc.BindCard(context.Background(), m.ID.String(), "card-123"))
	require.NotNil(t, m.CardUID)
	assert.Equal(t, "card-123", *m.CardUID)
}

func TestBindCard_DuplicateRejected(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, zap.NewNop())
	a := addMember(t, repo, "Sato")
	b := addMember(t, repo, "Suzuki")

	require.NoError(t, svc.BindCard(context.Background(), a.ID.String(), "X"))

	err := svc.BindCard(context.Background(), b.ID.String(), "X")
	var dup *DuplicateCardBindingError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Sato", dup.HolderName)
	assert.Equal(t, "X", dup.UID)

	// the original binding is unchanged
	require.NotNil(t, a.CardUID)
	assert.Equal(t, "X", *a.CardUID)
	assert.Nil(t, b.CardUID)
}

func TestBindCard_RebindSameMemberIsNoop(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, zap.NewNop())
	m := addMember(t, repo, "Sato")

	require.NoError(t, svc.BindCard(context.Background(), m.ID.String(), "X"))
	require.NoError(t, svc.BindCard(context.Background(), m.ID.String(), "X"))
	assert.Equal(t, "X", *m.CardUID)
}

func TestRegisterCardFromScan(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubWaiter{uid: "scanned-uid"}, zap.NewNop())
	m := addMember(t, repo, "Sato")

	uid, err := svc.RegisterCardFromScan(context.Background(), m.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "scanned-uid", uid)
	assert.Equal(t, "scanned-uid", *m.CardUID)
}

func TestRegisterCardFromScan_CancelHasNoSideEffects(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubWaiter{}, zap.NewNop())
	m := addMember(t, repo, "Sato")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RegisterCardFromScan(ctx, m.ID.String())
	require.ErrorIs(t, err, ErrNoCardScanned)
	assert.Nil(t, m.CardUID)
}

func TestDeactivateMember(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, zap.NewNop())
	m := addMember(t, repo, "Sato")

	require.NoError(t, svc.DeactivateMember(context.Background(), m.ID.String()))
	assert.False(t, m.IsActive)

	require.NoError(t, svc.ReactivateMember(context.Background(), m.ID.String()))
	assert.True(t, m.IsActive)
}
