// ABOUTME: OAuth configuration and token management for Google Calendar
// ABOUTME: Runs the local consent flow and keeps the token at an XDG path, saving refreshes
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	stdsync "sync"

	"github.com/adrg/xdg"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"

	// CallbackAddr is where the consent flow listens for Google's redirect.
	CallbackAddr = "localhost:8080"
	callbackPath = "/oauth/callback"
)

var ErrNoCredentials = errors.New("google OAuth credentials not configured: set " + EnvClientID + " and " + EnvClientSecret)

// NewOAuthConfig creates the OAuth2 config for read-only calendar access.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		RedirectURL:  "http://" + CallbackAddr + callbackPath,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// CheckCredentials reports ErrNoCredentials when the client id or secret is missing.
func CheckCredentials(cfg *oauth2.Config) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return ErrNoCredentials
	}
	return nil
}

// TokenPath returns the XDG path for the stored OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "pagen", "google-credentials.json")
}

// SaveToken writes the token to TokenPath.
func SaveToken(token *oauth2.Token) error {
	return saveTokenTo(TokenPath(), token)
}

func saveTokenTo(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads the token from TokenPath.
func LoadToken() (*oauth2.Token, error) {
	return loadTokenFrom(TokenPath())
}

func loadTokenFrom(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// savingTokenSource persists the token whenever the underlying source refreshes it.
type savingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   stdsync.Mutex
	last string
}

func newSavingTokenSource(src oauth2.TokenSource, path string, initial *oauth2.Token) *savingTokenSource {
	s := &savingTokenSource{src: src, path: path}
	if initial != nil {
		s.last = initial.AccessToken
	}
	return s
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveTokenTo(s.path, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// Authorize runs the consent flow: it serves the callback on CallbackAddr, hands the
// consent URL to open, and waits for Google's redirect or ctx.
func Authorize(ctx context.Context, cfg *oauth2.Config, open func(url string) error) (*oauth2.Token, error) {
	if err := CheckCredentials(cfg); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}

	state := uuid.NewString()
	tokens := make(chan *oauth2.Token, 1)
	errs := make(chan error, 1)

	r := chi.NewRouter()
	r.Get(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errs <- errors.New("OAuth state mismatch")
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errs <- errors.New("no authorization code received")
			return
		}

		token, err := cfg.Exchange(req.Context(), code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			errs <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}
		tokens <- token
		_, _ = fmt.Fprint(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Handler: r}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	if err := open(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)); err != nil {
		return nil, fmt.Errorf("failed to start consent: %w", err)
	}

	select {
	case token := <-tokens:
		return token, nil
	case err := <-errs:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
