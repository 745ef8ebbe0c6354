package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken signs a driver token. Tokens are normally issued by the
// KwikLiner auth service; this is used by tests and the example client.
func GenerateToken(secret, driverID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":   driverID,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
}

// DriverClaims extracts the user id and role from a validated token. Ids are
// strings in KwikLiner, but numeric ids are accepted.
func DriverClaims(token *jwt.Token) (id, role string, err error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}

	switch v := claims["id"].(type) {
	case string:
		id = v
	case float64:
		id = fmt.Sprintf("%.0f", v)
	}
	if id == "" {
		return "", "", errors.New("token has no user id")
	}

	role, _ = claims["role"].(string)
	return id, role, nil
}
