// Package auth issues and verifies the store access tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the store the token was issued
// for.
type Claims struct {
	jwt.RegisteredClaims
	StoreID string
}

func GenerateToken(storeID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		StoreID: storeID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetStoreIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", err
	}

	if !token.Valid || claims.StoreID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.StoreID, nil
}
