package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingKey = "test-signing-key"

func signToken(t *testing.T, sub, role string, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestHMACValidator(t *testing.T) {
	v := NewHMACValidator(signingKey)

	t.Run("accepts a valid token", func(t *testing.T) {
		claims, err := v.ValidateToken(signToken(t, "alice", "ADMIN", signingKey))
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "ADMIN", claims.Role)
	})

	t.Run("rejects a foreign signature", func(t *testing.T) {
		_, err := v.ValidateToken(signToken(t, "alice", "USER", "other-key"))
		assert.Error(t, err)
	})

	t.Run("rejects a token without subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)
		_, err = v.ValidateToken(signed)
		assert.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := Authenticate(NewHMACValidator(signingKey), logger)

	var seenActor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenActor = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("resolves actor from bearer token", func(t *testing.T) {
		seenActor = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "alice", "USER", signingKey))
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", seenActor)
	})

	t.Run("passes through without a token", func(t *testing.T) {
		seenActor = "stale"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, seenActor)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
