package s21

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthServer answers the password grant with the supplied token and counts calls.
func newAuthServer(t *testing.T, accessToken string, expiresIn int) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("username") != "bot" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(authURL string) *Client {
	c := NewClient(authURL, "http://unused.invalid")
	c.Limiter = nil
	return c
}

func TestTokenSourceReusesToken(t *testing.T) {
	t.Parallel()

	srv, calls := newAuthServer(t, "opaque-token", 3600)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := NewTokenSource(newTestClient(srv.URL), "bot", "secret")
	ts.Now = func() time.Time { return now }

	first, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "opaque-token", first)

	// Still inside lifetime minus margin (3600 - 300)
	now = now.Add(3299 * time.Second)
	second, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.EqualValues(t, 1, calls.Load())
	require.EqualValues(t, 1, ts.Refreshes())
}

func TestTokenSourceRefreshesAfterExpiry(t *testing.T) {
	t.Parallel()

	srv, calls := newAuthServer(t, "opaque-token", 3600)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := NewTokenSource(newTestClient(srv.URL), "bot", "secret")
	ts.Now = func() time.Time { return now }

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(3300 * time.Second)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 2, calls.Load())
}

func TestTokenSourceSingleFlight(t *testing.T) {
	t.Parallel()

	srv, calls := newAuthServer(t, "opaque-token", 3600)
	ts := NewTokenSource(newTestClient(srv.URL), "bot", "secret")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.Token(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
}

func TestTokenSourceAuthFailure(t *testing.T) {
	t.Parallel()

	srv, _ := newAuthServer(t, "opaque-token", 3600)
	ts := NewTokenSource(newTestClient(srv.URL), "intruder", "secret")

	_, err := ts.Token(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	require.False(t, ts.Current().Valid(time.Now()))
}

func TestTokenSourceTransportFailure(t *testing.T) {
	t.Parallel()

	srv, _ := newAuthServer(t, "opaque-token", 3600)
	srv.Close()

	ts := NewTokenSource(newTestClient(srv.URL), "bot", "secret")
	_, err := ts.Token(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Zero(t, authErr.StatusCode)
}

func TestTokenSourceInvalidate(t *testing.T) {
	t.Parallel()

	srv, calls := newAuthServer(t, "opaque-token", 3600)
	ts := NewTokenSource(newTestClient(srv.URL), "bot", "secret")

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	ts.Invalidate()
	_, err = ts.Token(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 2, calls.Load())
}

func TestExpiryFor(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("subtracts a twelfth of the lifetime", func(t *testing.T) {
		got := expiryFor(&TokenResponse{AccessToken: "opaque", ExpiresIn: 3600}, issued)
		require.Equal(t, issued.Add(3300*time.Second), got)
	})

	t.Run("defaults lifetime when missing", func(t *testing.T) {
		got := expiryFor(&TokenResponse{AccessToken: "opaque"}, issued)
		require.Equal(t, issued.Add(time.Hour-5*time.Minute), got)
	})

	t.Run("earlier jwt exp wins", func(t *testing.T) {
		exp := issued.Add(10 * time.Minute)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": exp.Unix(),
		}).SignedString([]byte("test-key"))
		require.NoError(t, err)

		got := expiryFor(&TokenResponse{AccessToken: raw, ExpiresIn: 3600}, issued)
		// jwt hands exp back in the local zone; compare instants only
		require.WithinDuration(t, exp.Add(-300*time.Second), got, 0)
	})

	t.Run("later jwt exp is ignored", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": issued.Add(48 * time.Hour).Unix(),
		}).SignedString([]byte("test-key"))
		require.NoError(t, err)

		got := expiryFor(&TokenResponse{AccessToken: raw, ExpiresIn: 3600}, issued)
		require.Equal(t, issued.Add(3300*time.Second), got)
	})
}
