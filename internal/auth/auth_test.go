package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobbystable/internal/clock"
)

func newIssuer() (*TokenIssuer, *clock.FakeClock) {
	clk := clock.Fake(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	return NewTokenIssuer([]byte("test-secret"), clk), clk
}

func TestTokenRoundTripAndExpiry(t *testing.T) {
	tokens, clk := newIssuer()

	signed, expires, err := tokens.Issue("caller", RoleGuest, GuestTokenTTL)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(24*time.Hour), expires)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "caller", claims.Subject)
	assert.Equal(t, RoleGuest, claims.Role)

	clk.Advance(25 * time.Hour)
	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromAnotherSecretIsRejected(t *testing.T) {
	tokens, clk := newIssuer()
	other := NewTokenIssuer([]byte("other-secret"), clk)

	signed, _, err := other.Issue("admin", RoleAdmin, AdminTokenTTL)
	require.NoError(t, err)
	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminAuthMiddleware(t *testing.T) {
	tokens, _ := newIssuer()
	sessions := NewSessionManager([]byte("0123456789abcdef0123456789abcdef"), []byte("0123456789abcdef"))

	var seen Principal
	protected := AdminAuthMiddleware(sessions, tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	adminToken, _, err := tokens.Issue("manager", RoleAdmin, AdminTokenTTL)
	require.NoError(t, err)
	guestToken, _, err := tokens.Issue("caller", RoleGuest, GuestTokenTTL)
	require.NoError(t, err)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.SetUser(login, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "host"))
	cookie := login.Result().Cookies()[0]

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		status  int
		subject string
	}{
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"guest token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+guestToken) }, http.StatusUnauthorized, ""},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"admin token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminToken) }, http.StatusNoContent, "manager"},
		{"session cookie", func(r *http.Request) { r.AddCookie(cookie) }, http.StatusNoContent, "host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Principal{}
			req := httptest.NewRequest(http.MethodGet, "/admin/reservations/123456", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.subject, seen.Subject)
		})
	}
}

func TestGuestAuthMiddleware(t *testing.T) {
	tokens, _ := newIssuer()
	protected := GuestAuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calls", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unauthorized")

	signed, _, err := tokens.Issue("caller", RoleGuest, GuestTokenTTL)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/calls", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionClear(t *testing.T) {
	sessions := NewSessionManager(nil, nil)
	rec := httptest.NewRecorder()
	sessions.Clear(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	_, ok := sessions.User(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
