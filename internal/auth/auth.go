// Package auth provides Google OAuth authentication for TODOIT.
//
// Client credentials come from credentials.json in the config directory; the
// user's token is cached next to it in token.json. When no token exists,
// Login runs a browser-based authorization-code flow with a local callback
// server.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	tasksapi "google.golang.org/api/tasks/v1"
)

const (
	// clientSecretsFile holds the OAuth client id/secret downloaded from the
	// Google Cloud console.
	clientSecretsFile = "credentials.json"
	// tokenFile caches the user's access + refresh token.
	tokenFile = "token.json"
	// callbackPort is where the local server listens for the OAuth redirect.
	// Must match a redirect URI registered for the OAuth client.
	callbackPort = "6789"
	// loginTimeout bounds how long we wait for the user to authorize.
	loginTimeout = 5 * time.Minute
)

// ErrNotAuthenticated indicates no cached token exists.
var ErrNotAuthenticated = errors.New("not authenticated: run 'todoit auth login'")

// Manager handles token storage and the login flow.
type Manager struct {
	configDir string
}

// NewManager creates a Manager storing credentials under configDir.
func NewManager(configDir string) (*Manager, error) {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return &Manager{configDir: configDir}, nil
}

// IsAuthenticated reports whether a cached token exists.
func (m *Manager) IsAuthenticated() bool {
	_, err := m.loadToken()
	return err == nil
}

// Client returns an HTTP client that attaches and auto-refreshes the bearer
// token. Fails with ErrNotAuthenticated when no token is cached.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	config, err := m.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := m.loadToken()
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	// Re-save the token in the background once the source has had a chance
	// to refresh it, so the cached file tracks the latest refresh token.
	source := config.TokenSource(ctx, tok)
	go func() {
		current, err := source.Token()
		if err != nil {
			log.Printf("Could not refresh token for re-save: %v", err)
			return
		}
		if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
			if err := m.saveToken(current); err != nil {
				log.Printf("Could not re-save refreshed token: %v", err)
			}
		}
	}()

	return oauth2.NewClient(ctx, source), nil
}

// Login runs the browser authorization flow and caches the obtained token.
func (m *Manager) Login(ctx context.Context) error {
	config, err := m.oauthConfig()
	if err != nil {
		return err
	}

	tok, err := tokenFromWeb(ctx, config)
	if err != nil {
		return err
	}
	return m.saveToken(tok)
}

// Logout removes the cached token.
func (m *Manager) Logout() error {
	err := os.Remove(filepath.Join(m.configDir, tokenFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// oauthConfig reads the client secrets and pins the redirect to our local
// callback server.
func (m *Manager) oauthConfig() (*oauth2.Config, error) {
	path := filepath.Join(m.configDir, clientSecretsFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client secrets %s: %w", path, err)
	}

	config, err := google.ConfigFromJSON(b, tasksapi.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}
	config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", callbackPort)
	return config, nil
}

func (m *Manager) loadToken() (*oauth2.Token, error) {
	f, err := os.Open(filepath.Join(m.configDir, tokenFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	return tok, nil
}

func (m *Manager) saveToken(tok *oauth2.Token) error {
	path := filepath.Join(m.configDir, tokenFile)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// tokenFromWeb runs the authorization-code flow: a local server captures the
// redirect while the user grants access in the browser.
func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", "localhost:"+callbackPort)
	if err != nil {
		return nil, fmt.Errorf("start callback listener on port %s: %w", callbackPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code missing from redirect")
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// AccessTypeOffline makes sure a refresh token comes back.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize TODOIT:\n%s\n", authURL)
	if err := openBrowser(authURL); err != nil {
		log.Printf("Could not open browser automatically: %v", err)
	}

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(loginTimeout):
		return nil, fmt.Errorf("authorization timed out after %v", loginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// openBrowser opens the default browser with the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
