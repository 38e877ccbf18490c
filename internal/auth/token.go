// Package auth implements the dashboard's account and session provider:
// bcrypt passwords, HS256 session tokens and token revocation.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/simp-lee/newsdesk/internal/domain"
)

const issuer = "newsdesk"

// Claims are the session token claims.
type Claims struct {
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer signing with secret; tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for p with a fresh token id.
func (t *TokenIssuer) Issue(p *domain.Profile) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		Email:    p.Email,
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, domain.NewAppError(domain.CodeInternal, "failed to sign token", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer and expiry of raw and returns its claims.
// Every failure is reported as ErrUnauthorized.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "session expired or invalid", err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "session expired or invalid", errors.New("missing token id or subject"))
	}
	return claims, nil
}
