package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the JWT claim set accepted for write access
type TokenClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim
func (c *TokenClaims) GetUserID() string {
	return c.Subject
}
