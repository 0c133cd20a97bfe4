package auth

import (
	"net/http"

	"notebin/internal/domain/models"
)

// Authenticator decides whether a request may perform write operations.
// It returns an identifier for the caller (used for logging) or
// domain.ErrUnauthorized.
type Authenticator interface {
	Verify(r *http.Request) (string, error)
}

// JWTVerifier defines the interface for JWT token verification.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.TokenClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}

// AllowAll accepts every request. Used when AUTH_MODE=none.
type AllowAll struct{}

// Verify implements Authenticator
func (AllowAll) Verify(*http.Request) (string, error) {
	return "anonymous", nil
}
