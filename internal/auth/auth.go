// Package auth provides the optional bearer-token guard for mutating API
// routes. It is off unless a signing secret is configured.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

var ErrEmptySecret = errors.New("jwt secret is empty")

type JwtCustomClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// NewToken signs an HS256 token for subject valid for ttl.
func NewToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := &JwtCustomClaims{
		Name: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Middleware returns the guard for secret, or nil when secret is empty.
func Middleware(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return nil
	}
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtCustomClaims)
		},
	})
}

// Subject returns the subject of the validated token on c, if any.
func Subject(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}
