package ercot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ercot-mcp/internal/logger"
)

const (
	// ERCOT's public-API B2C login uses the resource-owner password flow with
	// a fixed, publicly documented client id and scope.
	defaultAuthURL = "https://ercotb2c.b2clogin.com/ercotb2c.onmicrosoft.com/B2C_1_PUBAPI-ROPC-FLOW/oauth2/v2.0/token"
	authClientID   = "fec253ea-0d06-4272-a5e6-b478baeecd70"
	authScope      = "openid fec253ea-0d06-4272-a5e6-b478baeecd70 offline_access"

	// Tokens are valid for one hour from acquisition.
	tokenLifetime = time.Hour
)

// Credentials are the opaque strings AuthManager exchanges for a token.
type Credentials struct {
	Username        string
	Password        string
	SubscriptionKey string
}

// Token is one issued bearer token. It is replaced wholesale on refresh,
// never mutated in place.
type Token struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    string `json:"expires_in"`

	AcquiredAt time.Time `json:"-"`
}

// Valid reports whether the token can still be attached to a request.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.IDToken != "" && now.Sub(t.AcquiredAt) < tokenLifetime
}

// ExpiresAt is the end of the token's fixed lifetime.
func (t *Token) ExpiresAt() time.Time {
	return t.AcquiredAt.Add(tokenLifetime)
}

// AuthManager obtains and caches a bearer token for the ERCOT public API.
// The cache is a single mutex-guarded slot: concurrent callers racing on
// expiry trigger at most one credential exchange.
type AuthManager struct {
	creds      Credentials
	authURL    string
	httpClient *http.Client
	now        func() time.Time
	log        *logger.Entry

	mu    sync.Mutex
	token *Token
}

// AuthOption customizes an AuthManager.
type AuthOption func(*AuthManager)

// WithAuthURL points the manager at a different token endpoint (tests).
func WithAuthURL(u string) AuthOption {
	return func(a *AuthManager) { a.authURL = u }
}

// WithAuthHTTPClient replaces the HTTP client used for the exchange.
func WithAuthHTTPClient(c *http.Client) AuthOption {
	return func(a *AuthManager) { a.httpClient = c }
}

// WithAuthClock replaces the clock (tests).
func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *AuthManager) { a.now = now }
}

// NewAuthManager builds a manager for the given credentials.
func NewAuthManager(creds Credentials, opts ...AuthOption) (*AuthManager, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, &AuthenticationError{Message: "ERCOT credentials not set: provide ERCOTUSER and ERCOTPASS"}
	}
	a := &AuthManager{
		creds:      creds,
		authURL:    defaultAuthURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		log:        logger.WithComponent("auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Token returns a valid bearer id_token, performing the credential exchange
// on first use and transparently re-authenticating once the cached token's
// lifetime has elapsed.
func (a *AuthManager) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token.Valid(a.now()) {
		return a.token.IDToken, nil
	}
	return a.refreshLocked(ctx)
}

// Refresh discards the cached token and fetches a new one. Used by the
// client's single forced-refresh path after a 401.
func (a *AuthManager) Refresh(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshLocked(ctx)
}

// CachedToken returns the current token without triggering a refresh.
func (a *AuthManager) CachedToken() *Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *AuthManager) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {a.creds.Username},
		"password":      {a.creds.Password},
		"response_type": {"id_token"},
		"scope":         {authScope},
		"client_id":     {authClientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := a.now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		a.log.WithFields(logger.Fields{"status": resp.StatusCode}).Warn("credentials rejected")
		return "", &AuthenticationError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("check ERCOTUSER and ERCOTPASS credentials: %s", strings.TrimSpace(string(body))),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AuthenticationError{
			StatusCode: resp.StatusCode,
			Message:    "unexpected status from token endpoint",
		}
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.IDToken == "" {
		return "", &AuthenticationError{Message: "token endpoint returned no id_token"}
	}
	tok.AcquiredAt = a.now()

	a.token = &tok
	a.log.WithFields(logger.Fields{
		"duration":   a.now().Sub(start).String(),
		"expires_at": tok.ExpiresAt().Format(time.RFC3339),
	}).Info("acquired new token")
	return tok.IDToken, nil
}
