package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"mime"
	"net/http"

	"notebin/internal/domain"
)

// PasswordHeader carries the shared write secret for JSON clients
const PasswordHeader = "X-Write-Password"

// SharedSecret authenticates writes with one shared password, sent either in
// the X-Write-Password header or as a "password" form field.
// This gates casual writes; it does not identify users.
type SharedSecret struct {
	digest [sha256.Size]byte
}

// NewSharedSecret creates a shared-secret authenticator
func NewSharedSecret(secret string) (*SharedSecret, error) {
	if secret == "" {
		return nil, errors.New("shared secret cannot be empty")
	}
	return &SharedSecret{digest: sha256.Sum256([]byte(secret))}, nil
}

// Verify implements Authenticator
func (s *SharedSecret) Verify(r *http.Request) (string, error) {
	candidate := r.Header.Get(PasswordHeader)
	if candidate == "" && isForm(r) {
		// ParseForm is idempotent; handlers read the same parsed values later
		if err := r.ParseForm(); err == nil {
			candidate = r.PostForm.Get("password")
		}
	}
	if candidate == "" {
		return "", domain.ErrUnauthorized
	}

	// compare fixed-size digests so timing does not leak the secret length
	got := sha256.Sum256([]byte(candidate))
	if subtle.ConstantTimeCompare(got[:], s.digest[:]) != 1 {
		return "", domain.ErrUnauthorized
	}
	return "shared-secret", nil
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
