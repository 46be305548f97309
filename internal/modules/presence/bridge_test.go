package presence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRepo struct {
	mu     sync.Mutex
	writes []*string
}

func (r *recordingRepo) Get(context.Context, string) (*KioskStatus, error) { return nil, nil }

func (r *recordingRepo) SetCard(_ context.Context, _ string, uid *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, uid)
	return nil
}

func (r *recordingRepo) all() []*string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*string(nil), r.writes...)
}

func TestBridgePoller_WritesOnlyOnChange(t *testing.T) {
	var mu sync.Mutex
	body := `{"status":"none"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Write([]byte(body))
	}))
	defer srv.Close()

	repo := &recordingRepo{}
	p := NewBridgePoller("kiosk-1", srv.URL, time.Millisecond, repo, zap.NewNop())

	ctx := context.Background()
	p.poll(ctx) // no card: prime the state
	p.poll(ctx) // unchanged: no write

	mu.Lock()
	body = `{"status":"found","uid":"card-77"}`
	mu.Unlock()
	p.poll(ctx)
	p.poll(ctx) // card held steady: no write

	mu.Lock()
	body = `{"status":"none"}`
	mu.Unlock()
	p.poll(ctx)

	writes := repo.all()
	require.Len(t, writes, 3)
	assert.Nil(t, writes[0])
	require.NotNil(t, writes[1])
	assert.Equal(t, "card-77", *writes[1])
	assert.Nil(t, writes[2])
}

func TestBridgePoller_UnreachableBridgeMeansNoCard(t *testing.T) {
	repo := &recordingRepo{}
	p := NewBridgePoller("kiosk-1", "http://127.0.0.1:1", time.Millisecond, repo, zap.NewNop())

	p.poll(context.Background())

	writes := repo.all()
	require.Len(t, writes, 1)
	assert.Nil(t, writes[0])
}

func TestBridgePoller_MalformedResponseMeansNoCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer srv.Close()

	repo := &recordingRepo{}
	p := NewBridgePoller("kiosk-1", srv.URL, time.Millisecond, repo, zap.NewNop())
	p.poll(context.Background())

	writes := repo.all()
	require.Len(t, writes, 1)
	assert.Nil(t, writes[0])
}
