package store

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cookie names shared between the HTTP layer and the auth flow.
const (
	KeyAccessToken  = "google_access_token"
	KeyRefreshToken = "google_refresh_token"
	KeyUserEmail    = "google_user_email"
	KeyOAuthState   = "oauth_state"
)

// Lifetimes for each credential entry. Access tokens from Google expire after
// an hour; the refresh token and display email live for a month; the CSRF
// nonce only has to survive one round trip to the consent screen.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
	UserEmailTTL    = 30 * 24 * time.Hour
	OAuthStateTTL   = 10 * time.Minute
)

// CredentialStore is the per-request medium for small credential blobs with
// expiry. In production it is backed by the browser's cookies; tests and
// non-HTTP callers use the in-memory implementation below.
type CredentialStore interface {
	Get(name string) string
	// Set persists a value for ttl. httpOnly marks entries that must never be
	// readable by client-side script; stores without that distinction may
	// ignore the flag.
	Set(name, value string, ttl time.Duration, httpOnly bool)
	Delete(name string)
}

// MemoryStore is a go-cache backed CredentialStore.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		c: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (m *MemoryStore) Get(name string) string {
	if v, ok := m.c.Get(name); ok {
		return v.(string)
	}
	return ""
}

func (m *MemoryStore) Set(name, value string, ttl time.Duration, _ bool) {
	m.c.Set(name, value, ttl)
}

func (m *MemoryStore) Delete(name string) {
	m.c.Delete(name)
}
