package utils

import (
	"fmt"
	"time"

	"booking-gateway/core/config"
	"booking-gateway/core/constants"
	"booking-gateway/core/errors"

	"github.com/golang-jwt/jwt/v5"
)

type TokenData struct {
	Email string
	Scope string
}

type operatorClaims struct {
	Email string `json:"email"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateToken issues an operator JWT scoped to the admin surface.
func GenerateToken(email string, ttl time.Duration) (string, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return "", fmt.Errorf("config not initialized")
	}

	claims := operatorClaims{
		Email: email,
		Scope: constants.ScopeTokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Admin.JWTSecret))
}

// ValidateAndParseToken verifies the signature and expiry and returns the
// embedded operator identity.
func ValidateAndParseToken(tokenString string) (*TokenData, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}

	claims := &operatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Admin.JWTSecret), nil
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid token", err)
	}
	if !token.Valid {
		return nil, errors.NewAppError(errors.ErrTokenExpired, "token expired or invalid", nil)
	}

	return &TokenData{Email: claims.Email, Scope: claims.Scope}, nil
}
