// Package security verifies the access tokens issued by the POS auth service.
package security

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PermPaymentsCreate = "payments:create"
	PermPaymentsUpdate = "payments:update"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access token body. Every token is bound to one store.
type Claims struct {
	UserID      uuid.UUID `json:"user_id"`
	StoreID     uuid.UUID `json:"store_id"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}

func (c *Claims) Has(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// ParseToken checks the HS256 signature and expiry and returns the claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.StoreID == uuid.Nil || claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user or store", ErrInvalidToken)
	}
	return claims, nil
}

// IssueToken signs claims with HS256 for ttl from now.
func IssueToken(secret string, userID, storeID uuid.UUID, permissions []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      userID,
		StoreID:     storeID,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
