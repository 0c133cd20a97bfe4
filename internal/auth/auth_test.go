package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebin/internal/domain"
	"notebin/internal/domain/models"
)

func testVerifier(t *testing.T, role string) (*JWKSVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	kf := func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil }
	return newVerifier(kf, role, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims models.TokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() models.TokenClaims {
	return models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "authenticated",
	}
}

func TestJWKSVerifier_Verify(t *testing.T) {
	v, key := testVerifier(t, "authenticated")

	req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, key, validClaims()))

	userID, err := v.Verify(req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestJWKSVerifier_Rejects(t *testing.T) {
	v, key := testVerifier(t, "authenticated")
	_, otherKey := testVerifier(t, "")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	anon := validClaims()
	anon.Role = "anon"

	noSubject := validClaims()
	noSubject.Subject = ""

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "token abc"},
		{name: "garbage", header: "Bearer not.a.jwt"},
		{name: "expired", header: "Bearer " + sign(t, key, expired)},
		{name: "wrong role", header: "Bearer " + sign(t, key, anon)},
		{name: "no subject", header: "Bearer " + sign(t, key, noSubject)},
		{name: "wrong key", header: "Bearer " + sign(t, otherKey, validClaims())},
		{name: "hmac algorithm", header: "Bearer " + hs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := v.Verify(req)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestSharedSecret(t *testing.T) {
	_, err := NewSharedSecret("")
	require.Error(t, err)

	s, err := NewSharedSecret("hunter2")
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
		req.Header.Set(PasswordHeader, "hunter2")
		_, err := s.Verify(req)
		assert.NoError(t, err)
	})

	t.Run("form field", func(t *testing.T) {
		form := url.Values{"password": {"hunter2"}, "content": {"hello"}}
		req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		_, err := s.Verify(req)
		require.NoError(t, err)
		assert.Equal(t, "hello", req.PostForm.Get("content"), "form stays readable for the handler")
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
		req.Header.Set(PasswordHeader, "hunter3")
		_, err := s.Verify(req)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(`{"password":"hunter2"}`))
		req.Header.Set("Content-Type", "application/json")
		_, err := s.Verify(req)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestClientFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/items/x", nil)
	req.Header.Set("User-Agent", "Roblox/WinInet")

	assert.True(t, NewClientFilter("").Allows(req))
	assert.False(t, NewClientFilter("").Enabled())
	assert.True(t, NewClientFilter("Roblox").Allows(req))
	assert.False(t, NewClientFilter("Mozilla").Allows(req))

	var nilFilter *ClientFilter
	assert.True(t, nilFilter.Allows(req))
}
