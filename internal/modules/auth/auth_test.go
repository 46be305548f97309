package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, password string, ttl time.Duration) Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(hash, []byte("test-signing-key"), ttl)
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestService(t, "correct horse", time.Hour)

	token, err := svc.Login("correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NoError(t, svc.Verify(token))

	_, err = svc.Login("wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_RejectsGarbageAndForeignTokens(t *testing.T) {
	svc := newTestService(t, "pw", time.Hour)
	require.Error(t, svc.Verify("not-a-token"))

	otherHash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	other := NewService(otherHash, []byte("other-signing-key"), time.Hour)
	foreign, err := other.Login("pw")
	require.NoError(t, err)
	// same password, different signing key
	assert.Error(t, svc.Verify(foreign))
}

func TestVerify_RejectsExpired(t *testing.T) {
	svc := newTestService(t, "pw", -time.Minute)
	token, err := svc.Login("pw")
	require.NoError(t, err)
	require.ErrorIs(t, svc.Verify(token), ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	svc := newTestService(t, "pw", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := Middleware(svc)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := svc.Login("pw")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin/thing", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
