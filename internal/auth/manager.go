package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spinlog/spinlog/pkg/spotify"
)

// DefaultExpiryMargin is subtracted from the advertised token lifetime
// so a token is refreshed before clock drift or poll latency can push
// a request past the real expiry.
const DefaultExpiryMargin = 60 * time.Second

// Manager owns the credential lifecycle: the initial code exchange and
// refreshing the access token before it expires.
type Manager struct {
	store  *Store
	client *spotify.Client
	margin time.Duration
	logger zerolog.Logger

	now func() time.Time // injectable for tests
}

// NewManager creates a Manager writing to the given store.
func NewManager(store *Store, client *spotify.Client, margin time.Duration, logger zerolog.Logger) *Manager {
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	return &Manager{
		store:  store,
		client: client,
		margin: margin,
		logger: logger.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// Exchange trades an authorization code for the initial token pair.
// On failure the stored credentials are left untouched so the caller
// can retry with a fresh code.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	tok, err := m.client.Accounts().Exchange(ctx, code)
	if err != nil {
		return &ExchangeError{Err: err}
	}

	m.store.replace(Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    m.expiry(tok.ExpiresIn),
	})

	m.logger.Info().
		Int("expires_in", tok.ExpiresIn).
		Msg("Obtained access token")
	return nil
}

// EnsureFresh refreshes the access token when it is absent or past its
// expiry. It returns ErrNoCredentials when there is nothing to refresh
// with, and a *RefreshError on a failed refresh; in the latter case
// the stale access token stays in place and the caller should skip
// this cycle's fetch.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	creds := m.store.Snapshot()
	if creds.RefreshToken == "" {
		return ErrNoCredentials
	}
	if creds.AccessToken != "" && m.now().Before(creds.ExpiresAt) {
		return nil
	}

	tok, err := m.client.Accounts().Refresh(ctx, creds.RefreshToken)
	if err != nil {
		return &RefreshError{Err: err}
	}

	m.store.refresh(tok.AccessToken, m.expiry(tok.ExpiresIn), tok.RefreshToken)

	m.logger.Info().
		Int("expires_in", tok.ExpiresIn).
		Bool("refresh_token_rotated", tok.RefreshToken != "").
		Msg("Refreshed access token")
	return nil
}

// BearerToken returns the current access token. ok is false when no
// token has been obtained yet.
func (m *Manager) BearerToken() (token string, ok bool) {
	creds := m.store.Snapshot()
	return creds.AccessToken, creds.AccessToken != ""
}

// Authenticated reports whether the user has completed authorization.
func (m *Manager) Authenticated() bool {
	return m.store.Authenticated()
}

func (m *Manager) expiry(expiresIn int) time.Time {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return m.now().Add(time.Duration(expiresIn)*time.Second - m.margin)
}
