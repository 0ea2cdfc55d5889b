// Package auth owns the opaque session token and is the single source
// of truth for "is the user authenticated". Token presence is the
// whole check; there is no freshness or signature validation.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_storefront/internal/store"
)

// ErrInvalidCredentials means the backend rejected the username or
// password. Anything else during login is an *AuthError and worth a
// retry-later message instead of re-entering credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthError struct {
	Transient bool
	Err       error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type Session struct {
	baseURL    string
	httpClient *http.Client
	store      store.Store
	log        *logrus.Logger

	mu    sync.RWMutex
	token string
}

func NewSession(baseURL string, st store.Store, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.New()
	}
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		store: st,
		log:   log,
	}
}

// IsAuthenticated reports token presence. A failing token load is
// logged and treated as "not authenticated", never raised.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

func (s *Session) Token(ctx context.Context) string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		return token
	}

	token, err := s.store.LoadToken(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to load token from store")
		return ""
	}
	if token != "" {
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
	}
	return token
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login is a single round trip: form-encoded credentials, 200 with a
// token on success. The token is held in memory and persisted; a
// persistence failure degrades to session-only auth.
func (s *Session) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/api/login", strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Transient: true, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &AuthError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrInvalidCredentials
	default:
		return &AuthError{Transient: true, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &AuthError{Transient: true, Err: fmt.Errorf("malformed login response: %w", err)}
	}
	if body.Token == "" {
		return &AuthError{Transient: true, Err: errors.New("login response has no token")}
	}

	s.mu.Lock()
	s.token = body.Token
	s.mu.Unlock()

	if err := s.store.SaveToken(ctx, body.Token); err != nil {
		s.log.WithError(err).Warn("failed to persist token, session will not survive restart")
	}
	return nil
}

// Logout drops the token in memory and in the store.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
