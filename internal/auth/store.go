package auth

import (
	"sync"
	"time"
)

// Credentials holds the current token pair and its expiry.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store guards the process-wide credentials. The Manager is the sole
// writer; readers get a copy via Snapshot.
type Store struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current credentials.
func (s *Store) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds
}

// Authenticated reports whether an access token has ever been obtained.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds.AccessToken != ""
}

// Seed installs a full credential set, bypassing the exchange flow.
// Used by tests and by callers restoring persisted credentials.
func (s *Store) Seed(creds Credentials) {
	s.replace(creds)
}

// replace swaps in a full credential set after a code exchange.
func (s *Store) replace(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
}

// refresh updates the access token and expiry after a successful
// refresh. The refresh token is only rotated when the provider
// supplied a replacement.
func (s *Store) refresh(accessToken string, expiresAt time.Time, rotatedRefreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.AccessToken = accessToken
	s.creds.ExpiresAt = expiresAt
	if rotatedRefreshToken != "" {
		s.creds.RefreshToken = rotatedRefreshToken
	}
}
