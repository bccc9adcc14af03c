package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// AccountsService provides token operations against the Spotify
// accounts service.
type AccountsService struct {
	client *Client
}

// AuthURL returns the URL where the user grants the application access.
//
// After the user consents, Spotify redirects to the configured
// RedirectURI with a `code` query parameter suitable for Exchange.
func (a *AccountsService) AuthURL(scopes string) string {
	q := url.Values{}
	q.Set("client_id", a.client.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", a.client.redirectURI)
	q.Set("scope", scopes)
	return a.client.accountsURL + "/authorize?" + q.Encode()
}

// Exchange trades an authorization code for an access and refresh token
// pair.
func (a *AccountsService) Exchange(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.client.redirectURI)
	return a.token(ctx, form)
}

// Refresh obtains a new access token using a refresh token.
//
// The response normally omits refresh_token; when Spotify rotates it,
// the returned Token carries the replacement.
func (a *AccountsService) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return a.token(ctx, form)
}

// token posts a grant to the token endpoint with HTTP basic client
// authentication.
func (a *AccountsService) token(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.client.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString(
		[]byte(a.client.clientID + ":" + a.client.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Message = eb.Err
			if eb.ErrDesc != "" {
				apiErr.Message = eb.ErrDesc
			}
		}
		return nil, apiErr
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &tok, nil
}
