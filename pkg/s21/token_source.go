package s21

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultLifetime is assumed when the token endpoint omits expires_in.
const defaultLifetime = time.Hour

// Token is an access token and the instant it stops being usable. ExpiresAt
// already has the safety margin subtracted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token may still be presented at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenSource caches the platform access token and re-authenticates only
// after it expires. Concurrent callers share a single in-flight login.
type TokenSource struct {
	client   *Client
	username string
	password string

	// Now is the clock used for expiry decisions.
	Now func() time.Time

	mu        sync.RWMutex
	token     Token
	refreshes atomic.Int64
}

func NewTokenSource(client *Client, username, password string) *TokenSource {
	return &TokenSource{
		client:   client,
		username: username,
		password: password,
		Now:      time.Now,
	}
}

// Token returns a valid access token, authenticating if the cached one has expired.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.token.Valid(s.Now()) {
		value := s.token.Value
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have logged in while we waited for the write lock
	if s.token.Valid(s.Now()) {
		return s.token.Value, nil
	}

	issuedAt := s.Now()
	s.refreshes.Add(1)

	resp, err := s.client.PasswordGrant(ctx, s.username, s.password)
	if err != nil {
		return "", err
	}

	s.token = Token{
		Value:     resp.AccessToken,
		ExpiresAt: expiryFor(resp, issuedAt),
	}
	return s.token.Value, nil
}

// Current returns the cached token without refreshing it.
func (s *TokenSource) Current() Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Invalidate drops the cached token so the next call logs in again.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = Token{}
	s.mu.Unlock()
}

// Refreshes is the number of authentication attempts made so far.
func (s *TokenSource) Refreshes() int64 {
	return s.refreshes.Load()
}

// expiryFor subtracts a twelfth of the lifetime as a safety margin (300s for
// the usual one hour token). A JWT exp claim earlier than expires_in wins.
func expiryFor(resp *TokenResponse, issuedAt time.Time) time.Time {
	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	margin := lifetime / 12

	expiry := issuedAt.Add(lifetime - margin)
	if exp, ok := jwtExpiry(resp.AccessToken); ok {
		if capped := exp.Add(-margin); capped.Before(expiry) {
			expiry = capped
		}
	}
	return expiry
}

// jwtExpiry reads the exp claim without verifying the signature; the token
// is only ever sent back to the issuer.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
