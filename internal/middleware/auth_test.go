package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-checkout/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func request(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newTestServer(mw ...echo.MiddlewareFunc) (*echo.Echo, *auth.Identity) {
	e := echo.New()
	var seen auth.Identity
	handlers := append([]echo.MiddlewareFunc{Auth(testSecret)}, mw...)
	e.GET("/protected", func(c echo.Context) error {
		seen, _ = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	}, handlers...)
	return e, &seen
}

func TestAuthResolvesIdentity(t *testing.T) {
	e, seen := newTestServer()

	token := signToken(t, jwt.MapClaims{"sub": "user-1", "role": auth.RoleBrand, "brand_id": "brand-a"})
	rec := request(e, token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, auth.RoleBrand, seen.Role)
	assert.Equal(t, "brand-a", seen.BrandID)
}

func TestAuthDefaultsToBuyerRole(t *testing.T) {
	e, seen := newTestServer()

	rec := request(e, signToken(t, jwt.MapClaims{"sub": "user-2"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RoleBuyer, seen.Role)
}

func TestAuthRejectsMissingOrInvalidTokens(t *testing.T) {
	e, _ := newTestServer()

	assert.Equal(t, http.StatusUnauthorized, request(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(e, "not-a-token").Code)

	// Token signed with a different secret.
	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, request(e, other).Code)

	// Expired token.
	expired := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, request(e, expired).Code)

	// Missing subject.
	assert.Equal(t, http.StatusUnauthorized, request(e, signToken(t, jwt.MapClaims{"role": auth.RoleAdmin})).Code)
}

func TestRequireRole(t *testing.T) {
	e, _ := newTestServer(RequireRole(auth.RoleAdmin))

	admin := signToken(t, jwt.MapClaims{"sub": "admin-1", "role": auth.RoleAdmin})
	assert.Equal(t, http.StatusOK, request(e, admin).Code)

	buyer := signToken(t, jwt.MapClaims{"sub": "user-1", "role": auth.RoleBuyer})
	assert.Equal(t, http.StatusForbidden, request(e, buyer).Code)
}
