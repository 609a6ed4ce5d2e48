package auth

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

const testSecrets = `{
  "installed": {
    "client_id": "test-client-id",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost"],
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token"
  }
}`

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestTokenRoundTripAndLogout(t *testing.T) {
	m := newTestManager(t)

	if m.IsAuthenticated() {
		t.Error("Fresh manager should not be authenticated")
	}

	if err := m.saveToken(&oauth2.Token{AccessToken: "abc", RefreshToken: "ref"}); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Error("Expected authenticated after saving a token")
	}

	tok, err := m.loadToken()
	if err != nil {
		t.Fatalf("loadToken failed: %v", err)
	}
	if tok.AccessToken != "abc" || tok.RefreshToken != "ref" {
		t.Errorf("Token round trip mismatch: %+v", tok)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("Still authenticated after logout")
	}

	// Logging out twice is fine.
	if err := m.Logout(); err != nil {
		t.Errorf("Second logout failed: %v", err)
	}
}

func TestOAuthConfigPinsRedirect(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(m.configDir, clientSecretsFile)
	if err := os.WriteFile(path, []byte(testSecrets), 0600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	config, err := m.oauthConfig()
	if err != nil {
		t.Fatalf("oauthConfig failed: %v", err)
	}
	if config.RedirectURL != "http://localhost:6789/oauth2callback" {
		t.Errorf("Redirect not pinned to callback server: %q", config.RedirectURL)
	}
	if config.ClientID != "test-client-id" {
		t.Errorf("Client id lost: %q", config.ClientID)
	}
}

func TestOAuthConfigMissingSecrets(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.oauthConfig(); err == nil {
		t.Error("Expected error without credentials.json")
	}
}
