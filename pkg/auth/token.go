package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/platinummonkey/folio/pkg/config"
)

// Claims is the JWT payload of a session token
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service from the auth configuration
func NewTokenService(cfg *config.AuthConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *ts
	c.now = now
	return &c
}

// TTL returns the validity window of issued tokens
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue signs a token for identity, valid from now for the configured TTL
func (ts *TokenService) Issue(identity Identity) (string, error) {
	now := ts.now()
	claims := Claims{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString. A valid signature
// with a past exp yields ErrTokenExpired; anything else wrong yields
// ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return ts.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// signature is verified before claims, so an expired token here
		// always carried a valid signature
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired.Wrap(err)
		}
		return nil, ErrInvalidToken.Wrap(err)
	}

	if claims.UserID == "" {
		return nil, ErrInvalidToken.Wrap(errors.New("token has no user id"))
	}

	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
