// Package security holds the signing, verification and hashing primitives behind session tokens
// and LOCAL credentials.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"bookstore/backend/internal/autherr"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed, or issued for another issuer/audience.
	ErrInvalidToken = autherr.ErrInvalidToken
	// ErrExpiredToken is returned when a correctly signed token has exp <= now.
	ErrExpiredToken = autherr.ErrExpiredToken
	// ErrNoTokenPresent is returned by ParseBearer when the header carries no bearer token.
	ErrNoTokenPresent = autherr.ErrNoTokenPresent
)

// SessionClaims are the JWT claims of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Claims is the verified identity carried by a session token.
type Claims struct {
	UserID    string
	Role      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenProvider issues and verifies session JWTs signed with RS256 or ES256.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	keyID      string
	issuer     string
	audience   string
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with privateKey and verifies with publicKey.
// issuer and audience are stamped on every token and enforced on verification.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		keyID:      thumbprint(publicKey),
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of p that reads the current time from now.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	cp := *p
	cp.now = now
	return &cp
}

// TTL returns the configured token lifetime.
func (p *TokenProvider) TTL() time.Duration { return p.ttl }

// Issue signs a token for userID and role. Returns the token and its expiry (issuedAt + TTL).
func (p *TokenProvider) Issue(userID, role string) (token string, expiresAt time.Time, err error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now().Truncate(time.Second)
	expiresAt = now.Add(p.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err = p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	if p.keyID != "" {
		t.Header["kid"] = p.keyID
	}
	return t.SignedString(p.privateKey)
}

// Verify checks the signature, then expiry, then issuer and audience, and returns the claims.
// A tampered token always yields ErrInvalidToken, even when it is also expired.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	},
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	out := &Claims{
		UserID:  claims.Subject,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}

// ExtractUserID verifies tokenString and returns its subject. Fails with the same errors as Verify.
func (p *TokenProvider) ExtractUserID(tokenString string) (string, error) {
	c, err := p.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}

const bearerPrefix = "bearer "

// ParseBearer returns the token of an "Authorization: Bearer <token>" header value,
// or ErrNoTokenPresent when the header is missing or not a bearer credential.
func ParseBearer(header string) (string, error) {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrNoTokenPresent
	}
	token := strings.TrimSpace(v[len(bearerPrefix):])
	if token == "" {
		return "", ErrNoTokenPresent
	}
	return token, nil
}

// JWKS returns the verification key as a JSON Web Key Set so other services can verify session tokens.
func (p *TokenProvider) JWKS() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       p.publicKey,
		KeyID:     p.keyID,
		Algorithm: KeyAlg(p.publicKey),
		Use:       "sig",
	}}}
}

func thumbprint(pub crypto.PublicKey) string {
	if KeyAlg(pub) == "" {
		return ""
	}
	jwk := jose.JSONWebKey{Key: pub}
	b, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
