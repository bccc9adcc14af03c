package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// PlayerService provides read operations against the player endpoints.
type PlayerService struct {
	client *Client
}

// CurrentlyPlaying returns the user's currently playing track.
//
// A nil NowPlaying with a nil error means the player reported nothing
// (HTTP 204). Non-2xx responses are returned as *Error.
func (p *PlayerService) CurrentlyPlaying(ctx context.Context, bearerToken string) (*NowPlaying, error) {
	body, status, err := p.get(ctx, "/me/player/currently-playing", bearerToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}

	var np NowPlaying
	if err := json.Unmarshal(body, &np); err != nil {
		return nil, fmt.Errorf("failed to parse currently-playing response: %w", err)
	}
	return &np, nil
}

// Me returns the profile of the authenticated user.
func (p *PlayerService) Me(ctx context.Context, bearerToken string) (*Profile, error) {
	body, _, err := p.get(ctx, "/me", bearerToken)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}
	return &profile, nil
}

// get performs an authenticated GET against the Web API.
func (p *PlayerService) get(ctx context.Context, path, bearerToken string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.client.apiBaseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := p.client.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return body, resp.StatusCode, nil
	}

	apiErr := &Error{Status: resp.StatusCode}
	var eb apiErrorBody
	if json.Unmarshal(body, &eb) == nil {
		apiErr.Message = eb.Error.Message
	}
	return nil, 0, apiErr
}
