package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider supplies the bearer credential for the remote collaborator.
// Token acquisition itself is an external concern; this engine only caches
// the credential and refreshes it when the collaborator rejects it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	// Invalidate drops the cached credential so the next Token call refreshes.
	Invalidate()
}

// refreshSkew refreshes the credential slightly before its expiry.
const refreshSkew = 30 * time.Second

// fallbackTokenTTL is used when the issuer reports no lifetime and the
// credential is opaque (not a JWT).
const fallbackTokenTTL = 5 * time.Minute

// ClientCredentialsProvider fetches bearer tokens from the external token
// issuer using the client-credentials grant and caches them until expiry.
type ClientCredentialsProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewClientCredentialsProvider creates a provider against the given issuer.
func NewClientCredentialsProvider(tokenURL, clientID, clientSecret string) *ClientCredentialsProvider {
	return &ClientCredentialsProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// Token implements TokenProvider.
func (p *ClientCredentialsProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expiresAt.Add(-refreshSkew)) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token issuer returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token issuer returned empty credential")
	}

	p.token = body.AccessToken
	p.expiresAt = p.expiry(body.AccessToken, body.ExpiresIn)
	return p.token, nil
}

// Invalidate implements TokenProvider.
func (p *ClientCredentialsProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.expiresAt = time.Time{}
	p.mu.Unlock()
}

// expiry prefers the credential's own exp claim over the issuer-reported
// lifetime; the credential is never verified here, only inspected.
func (p *ClientCredentialsProvider) expiry(token string, expiresIn int64) time.Time {
	if claims := parseExpClaim(token); !claims.IsZero() {
		return claims
	}
	if expiresIn > 0 {
		return p.now().Add(time.Duration(expiresIn) * time.Second)
	}
	return p.now().Add(fallbackTokenTTL)
}

func parseExpClaim(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// StaticTokenProvider returns a fixed credential. Used in tests.
type StaticTokenProvider string

// Token implements TokenProvider.
func (s StaticTokenProvider) Token(context.Context) (string, error) { return string(s), nil }

// Invalidate implements TokenProvider.
func (s StaticTokenProvider) Invalidate() {}
