package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookstore/backend/internal/identity/domain"
)

// DefaultGoogleTokenInfoURL is Google's ID token introspection endpoint.
const DefaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleVerifier validates Google ID tokens through the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
	now          func() time.Time
}

// NewGoogleVerifier returns a verifier that accepts ID tokens minted for clientID.
// Empty tokenInfoURL uses DefaultGoogleTokenInfoURL; nil client uses a 10s timeout client.
func NewGoogleVerifier(clientID, tokenInfoURL string, client *http.Client) *GoogleVerifier {
	if tokenInfoURL == "" {
		tokenInfoURL = DefaultGoogleTokenInfoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{clientID: clientID, tokenInfoURL: tokenInfoURL, httpClient: client, now: time.Now}
}

type googleTokenInfo struct {
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Exp           string `json:"exp"`
	Name          string `json:"name"`
}

// Verify posts the ID token to tokeninfo as a form body and checks issuer, audience, expiry
// and subject. The token never appears in the request URL.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*ExternalIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("google: empty token")
	}
	if g.clientID == "" {
		return nil, errors.New("google: client id not configured")
	}
	form := url.Values{"id_token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenInfoURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("google: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: tokeninfo status=%d", resp.StatusCode)
	}
	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("google: decode response: %w", err)
	}

	if !googleIssuers[info.Iss] {
		return nil, fmt.Errorf("google: unexpected issuer %q", info.Iss)
	}
	if info.Aud != g.clientID {
		return nil, errors.New("google: audience mismatch")
	}
	exp, err := strconv.ParseInt(info.Exp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("google: invalid exp: %w", err)
	}
	if !g.now().Before(time.Unix(exp, 0)) {
		return nil, errors.New("google: token expired")
	}
	if info.Sub == "" {
		return nil, errors.New("google: missing subject")
	}
	return &ExternalIdentity{
		Provider:       domain.ProviderGoogle,
		ProviderUserID: info.Sub,
		Email:          strings.ToLower(strings.TrimSpace(info.Email)),
		EmailVerified:  info.EmailVerified == "true",
		Name:           info.Name,
	}, nil
}
