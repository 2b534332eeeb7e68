package ercot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCreds() Credentials {
	return Credentials{Username: "user@example.com", Password: "secret", SubscriptionKey: "subkey"}
}

func newAuthServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "user@example.com", r.PostForm.Get("username"))
		assert.NotEmpty(t, r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id_token":"tok-` + time.Now().Format("150405.000000000") + `","token_type":"Bearer","expires_in":"3600"}`))
	}))
}

func TestNewAuthManagerRequiresCredentials(t *testing.T) {
	_, err := NewAuthManager(Credentials{})
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := newAuthServer(t, &calls)
	defer srv.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	auth, err := NewAuthManager(testCreds(),
		WithAuthURL(srv.URL),
		WithAuthClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	first, err := auth.Token(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Within the lifetime the cached token is reused.
	now = now.Add(30 * time.Minute)
	second, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	// Past the lifetime a fresh exchange happens.
	now = now.Add(31 * time.Minute)
	third, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, third)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRefreshBypassesCache(t *testing.T) {
	var calls atomic.Int32
	srv := newAuthServer(t, &calls)
	defer srv.Close()

	auth, err := NewAuthManager(testCreds(), WithAuthURL(srv.URL))
	require.NoError(t, err)

	_, err = auth.Token(context.Background())
	require.NoError(t, err)
	_, err = auth.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	auth, err := NewAuthManager(testCreds(), WithAuthURL(srv.URL))
	require.NoError(t, err)

	_, err = auth.Token(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestTokenMissingIDToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	auth, err := NewAuthManager(testCreds(), WithAuthURL(srv.URL))
	require.NoError(t, err)

	_, err = auth.Token(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestTokenValidity(t *testing.T) {
	acquired := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tok := &Token{IDToken: "x", AcquiredAt: acquired}

	assert.True(t, tok.Valid(acquired.Add(59*time.Minute)))
	assert.False(t, tok.Valid(acquired.Add(61*time.Minute)))
	assert.Equal(t, acquired.Add(time.Hour), tok.ExpiresAt())

	var nilTok *Token
	assert.False(t, nilTok.Valid(acquired))
}
