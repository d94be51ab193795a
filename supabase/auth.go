// Package supabase resolves bearer tokens against Supabase Auth (GoTrue).
package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/distill"
)

// DefaultTimeout bounds one token lookup.
const DefaultTimeout = 10 * time.Second

// Ensure AuthService implements distill.AuthService at compile time.
var _ distill.AuthService = (*AuthService)(nil)

// AuthService validates access tokens by asking the auth server who owns them.
type AuthService struct {
	client  *http.Client
	baseURL string
	anonKey string
	timeout time.Duration
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		s.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *AuthService) {
		s.client = c
	}
}

// NewAuthService creates an AuthService for the project at baseURL.
func NewAuthService(baseURL, anonKey string, opts ...Option) *AuthService {
	s := &AuthService{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate returns the user owning token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*distill.User, error) {
	if s.baseURL == "" {
		return nil, distill.Errorf(distill.ENOTCONFIGURED, "supabase URL is not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, distill.Errorf(distill.EUNAUTHORIZED, "missing bearer token")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, distill.Errorf(distill.EINTERNAL, "building auth request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if s.anonKey != "" {
		req.Header.Set("apikey", s.anonKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "auth service unreachable", Details: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, distill.Errorf(distill.EUNAUTHORIZED, "invalid or expired token")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, distill.ProviderErrorf(resp.StatusCode, "auth service returned HTTP %d", resp.StatusCode)
	}

	var user distill.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &distill.Error{Code: distill.EPROVIDER, Message: "auth service returned an unexpected response", Details: err.Error()}
	}
	if user.ID == "" {
		return nil, distill.Errorf(distill.EUNAUTHORIZED, "invalid or expired token")
	}
	return &user, nil
}
