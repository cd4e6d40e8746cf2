package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tho/simplercv/internal/infrastructure/config"
	ctxutil "tho/simplercv/internal/infrastructure/context"
	"tho/simplercv/internal/testutil"
)

const testIssuer = "https://issuer.example.com"

func newTestAuthenticator(t *testing.T) (*JWTAuthenticator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	auth := newAuthenticator(config.AuthSettings{
		Enabled:     true,
		IssuerURI:   testIssuer,
		ClockSkew:   time.Minute,
		BypassPaths: []string{"/health"},
	}, testutil.NewTestLogger())
	auth.keyfunc = func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
	return auth, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewJWTAuthenticator_AuthDisabled(t *testing.T) {
	auth, err := NewJWTAuthenticator(config.AuthSettings{Enabled: false}, testutil.NewTestLogger())
	require.NoError(t, err)
	require.NotNil(t, auth)

	called := false
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/simple-rcv", nil))

	assert.True(t, called)
	auth.Close()
}

func TestNewJWTAuthenticator_InvalidJWKSetURI(t *testing.T) {
	_, err := NewJWTAuthenticator(config.AuthSettings{
		Enabled:   true,
		IssuerURI: testIssuer,
		JWKSetURI: "invalid-uri",
	}, testutil.NewTestLogger())
	assert.Error(t, err)
}

func TestJWTAuthenticator_Middleware(t *testing.T) {
	auth, key := newTestAuthenticator(t)

	valid := signToken(t, key, jwt.MapClaims{
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"email": "jere@tho.cl",
	})
	expired := signToken(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongIssuer := signToken(t, key, jwt.MapClaims{
		"iss": "https://other.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name          string
		method        string
		path          string
		header        string
		expectedCode  int
		expectedEmail string
	}{
		{name: "valid token sets email", method: http.MethodPost, path: "/api/simple-rcv", header: "Bearer " + valid, expectedCode: http.StatusOK, expectedEmail: "jere@tho.cl"},
		{name: "missing header", method: http.MethodPost, path: "/api/simple-rcv", expectedCode: http.StatusUnauthorized},
		{name: "expired token", method: http.MethodPost, path: "/api/simple-rcv", header: "Bearer " + expired, expectedCode: http.StatusUnauthorized},
		{name: "wrong issuer", method: http.MethodPost, path: "/api/simple-rcv", header: "Bearer " + wrongIssuer, expectedCode: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodPost, path: "/api/simple-rcv", header: "Bearer invalid.token.here", expectedCode: http.StatusUnauthorized},
		{name: "bypass path", method: http.MethodGet, path: "/health", expectedCode: http.StatusOK},
		{name: "preflight passes", method: http.MethodOptions, path: "/api/simple-rcv", expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotEmail string
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotEmail = ctxutil.GetUserEmail(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedEmail, gotEmail)
			if tt.expectedCode == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestJWTAuthenticator_RejectsHMAC(t *testing.T) {
	auth, _ := newTestAuthenticator(t)
	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("shared"))
	require.NoError(t, err)

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/simple-rcv", nil)
	req.Header.Set("Authorization", "Bearer "+hmac)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		expectedTok string
		expectedErr bool
	}{
		{name: "empty header", header: "", expectedErr: true},
		{name: "no Bearer prefix", header: "token123", expectedErr: true},
		{name: "too many parts", header: "Bearer token extra", expectedErr: true},
		{name: "valid", header: "Bearer token123", expectedTok: "token123"},
		{name: "case insensitive", header: "bearer token123", expectedTok: "token123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := extractBearerToken(tt.header)
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTok, token)
		})
	}
}
