// Package spotify provides a minimal client for the Spotify Web API.
//
// This package covers the authorization-code flow against the Spotify
// accounts service and the player endpoints the tracker needs. It is
// designed to be usable as a standalone SDK.
//
// Example usage:
//
//	import "github.com/spinlog/spinlog/pkg/spotify"
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	    RedirectURI:  "https://example.com/callback",
//	})
//
//	fmt.Println("Authorize at:", client.Accounts().AuthURL(spotify.ScopesNowPlaying))
package spotify

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	ClientID     string       // Required: Spotify application client id
	ClientSecret string       // Required: Spotify application client secret
	RedirectURI  string       // Required for the authorization-code flow
	HTTPClient   *http.Client // Optional: HTTP client (defaults to a 10s-timeout client)
	AccountsURL  string       // Optional: accounts service base URL (used for testing)
	APIBaseURL   string       // Optional: Web API base URL (used for testing)
}

const (
	// DefaultAccountsURL is the Spotify accounts service endpoint.
	DefaultAccountsURL = "https://accounts.spotify.com"

	// DefaultAPIBaseURL is the Spotify Web API endpoint.
	DefaultAPIBaseURL = "https://api.spotify.com/v1"

	// DefaultTimeout bounds every request so one slow call cannot
	// stall a poll cycle beyond a single extra interval.
	DefaultTimeout = 10 * time.Second
)

// ScopesNowPlaying are the scopes required to read playback state.
const ScopesNowPlaying = "user-read-currently-playing user-read-playback-state"

// Client is the main entry point for Spotify API operations.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
	accountsURL  string
	apiBaseURL   string

	accounts *AccountsService
	player   *PlayerService
}

// NewClient creates a new Spotify API client.
//
// Returns an error if required configuration (ClientID, ClientSecret)
// is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: ClientSecret is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	accountsURL := cfg.AccountsURL
	if accountsURL == "" {
		accountsURL = DefaultAccountsURL
	}

	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}

	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		httpClient:   httpClient,
		accountsURL:  accountsURL,
		apiBaseURL:   apiBaseURL,
	}

	c.accounts = &AccountsService{client: c}
	c.player = &PlayerService{client: c}

	return c, nil
}

// Accounts returns the accounts (token) service.
func (c *Client) Accounts() *AccountsService {
	return c.accounts
}

// Player returns the player service.
func (c *Client) Player() *PlayerService {
	return c.player
}
