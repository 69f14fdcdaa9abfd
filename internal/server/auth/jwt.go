// Package auth signs and verifies session tokens (HS256 JWT).
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the registered claims plus the account role. Subject carries
// the credential id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Params identify who issues tokens and for whom.
type Params struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// GenerateToken signs a token for subject valid from now for p.TTL.
func GenerateToken(subject, role string, p Params, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(p.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.Issuer,
			Audience:  jwt.ClaimStrings{p.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(p.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseToken verifies signature, issuer, audience and expiry. It returns
// common.ErrTokenExpired for expired tokens and common.ErrInvalidToken for
// anything else.
func ParseToken(tokenString string, p Params) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return p.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.Issuer),
		jwt.WithAudience(p.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
