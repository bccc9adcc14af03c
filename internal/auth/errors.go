package auth

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned by EnsureFresh when no refresh token is
// available. The user has to complete the authorization flow first.
var ErrNoCredentials = errors.New("auth: no credentials available")

// ExchangeError indicates a failed authorization-code exchange. The
// code is single-use, so the caller must obtain a fresh one before
// retrying.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("auth: code exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// RefreshError indicates a failed token refresh. It is transient: the
// stale access token stays in place and the next poll tick retries.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("auth: token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
