package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"graminsetu/internal/identity/models"
	"graminsetu/internal/platform/middleware"
	id "graminsetu/pkg/domain"
)

// sessionClaims is the JWT payload for a session token. Signed claims
// replace the bare user-id header older clients still send; both paths
// carry the same logical authorization inputs (identity and role).
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates session tokens.
type TokenManager struct {
	key []byte
	ttl time.Duration
}

// NewTokenManager builds a token manager from the signing key and TTL.
func NewTokenManager(signingKey string, ttl time.Duration) *TokenManager {
	return &TokenManager{key: []byte(signingKey), ttl: ttl}
}

// Issue signs a session token for the user.
func (t *TokenManager) Issue(user *models.User, now time.Time) (string, error) {
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, implementing
// middleware.TokenValidator.
func (t *TokenManager) Validate(tokenString string) (middleware.Claims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return middleware.Claims{}, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return middleware.Claims{}, fmt.Errorf("session token invalid")
	}
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return middleware.Claims{}, fmt.Errorf("session token subject: %w", err)
	}
	return middleware.Claims{UserID: userID, Role: claims.Role}, nil
}
