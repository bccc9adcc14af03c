package spotify

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestClient creates a client pointed at the given test server for
// both the accounts service and the Web API.
func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURI:  "http://localhost/callback",
		AccountsURL:  serverURL,
		APIBaseURL:   serverURL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{ClientSecret: "s"}); err == nil {
		t.Error("expected error for missing ClientID")
	}
	if _, err := NewClient(Config{ClientID: "c"}); err == nil {
		t.Error("expected error for missing ClientSecret")
	}
}

func TestAccountsService_AuthURL(t *testing.T) {
	client := newTestClient(t, "https://accounts.example.com")

	got := client.Accounts().AuthURL(ScopesNowPlaying)

	if !strings.HasPrefix(got, "https://accounts.example.com/authorize?") {
		t.Errorf("unexpected auth URL prefix: %s", got)
	}
	for _, want := range []string{
		"client_id=test-client-id",
		"response_type=code",
		"redirect_uri=http%3A%2F%2Flocalhost%2Fcallback",
		"scope=user-read-currently-playing+user-read-playback-state",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("auth URL missing %q: %s", want, got)
		}
	}
}

func TestAccountsService_Exchange(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		response    string
		wantErr     bool
		errContains string
	}{
		{
			name:       "success",
			statusCode: http.StatusOK,
			response:   `{"access_token":"at-1","token_type":"Bearer","expires_in":3600,"refresh_token":"rt-1"}`,
		},
		{
			name:        "invalid code",
			statusCode:  http.StatusBadRequest,
			response:    `{"error":"invalid_grant","error_description":"Invalid authorization code"}`,
			wantErr:     true,
			errContains: "Invalid authorization code",
		},
		{
			name:        "missing access token",
			statusCode:  http.StatusOK,
			response:    `{"token_type":"Bearer"}`,
			wantErr:     true,
			errContains: "missing access_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/api/token" {
					t.Errorf("expected /api/token, got %s", r.URL.Path)
				}

				wantAuth := "Basic " + base64.StdEncoding.EncodeToString(
					[]byte("test-client-id:test-client-secret"))
				if got := r.Header.Get("Authorization"); got != wantAuth {
					t.Errorf("unexpected Authorization header: %s", got)
				}

				if err := r.ParseForm(); err != nil {
					t.Fatalf("ParseForm: %v", err)
				}
				if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
					t.Errorf("expected grant_type authorization_code, got %s", got)
				}
				if got := r.PostForm.Get("code"); got != "the-code" {
					t.Errorf("expected code the-code, got %s", got)
				}

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			tok, err := client.Accounts().Exchange(context.Background(), "the-code")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Exchange: %v", err)
			}
			if tok.AccessToken != "at-1" {
				t.Errorf("expected access token at-1, got %s", tok.AccessToken)
			}
			if tok.RefreshToken != "rt-1" {
				t.Errorf("expected refresh token rt-1, got %s", tok.RefreshToken)
			}
			if tok.ExpiresIn != 3600 {
				t.Errorf("expected expires_in 3600, got %d", tok.ExpiresIn)
			}
		})
	}
}

func TestAccountsService_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected grant_type refresh_token, got %s", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "rt-1" {
			t.Errorf("expected refresh_token rt-1, got %s", got)
		}

		// Spotify normally omits refresh_token on refresh responses.
		_, _ = w.Write([]byte(`{"access_token":"at-2","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	tok, err := client.Accounts().Refresh(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tok.AccessToken != "at-2" {
		t.Errorf("expected access token at-2, got %s", tok.AccessToken)
	}
	if tok.RefreshToken != "" {
		t.Errorf("expected empty refresh token, got %s", tok.RefreshToken)
	}
}

func TestAccountsService_RefreshError_IsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"server_error"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Accounts().Refresh(context.Background(), "rt-1")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", apiErr.Status)
	}
	if !apiErr.Temporary() {
		t.Error("expected 503 to be temporary")
	}
}
