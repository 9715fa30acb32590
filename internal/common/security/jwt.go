package security

import (
	"errors"
	"fmt"
	"time"

	"bookshelf_api/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenAlg      = "HS256"
	userIDClaim   = "user_id"
	issuedAtClaim = "iat"
)

// TokenManager issues and verifies HS256 bearer tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenManager struct {
	auth   *jwtauth.JWTAuth
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenManager {
	key := make([]byte, len(secret))
	copy(key, secret)

	m := &TokenManager{
		auth:   jwtauth.New(tokenAlg, key, nil),
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateToken signs a token for userID that expires ttl from now.
func (m *TokenManager) GenerateToken(userID string) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		userIDClaim:   userID,
		issuedAtClaim: now.Unix(),
	}
	jwtauth.SetExpiry(claims, now.Add(m.ttl))

	_, tokenString, err := m.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken checks structure, signature and expiry and returns the user id.
func (m *TokenManager) VerifyToken(tokenString string) (string, error) {
	keyFunc := func(*jwt.Token) (interface{}, error) { return m.secret, nil }
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, keyFunc,
		jwt.WithValidMethods([]string{tokenAlg}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", common.ErrInvalidToken
	}
	return GetUserIDFromClaims(claims)
}

// GetUserIDFromClaims extracts the subject claim.
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims[userIDClaim].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: user_id claim is missing or not a string", common.ErrInvalidToken)
	}
	return id, nil
}
