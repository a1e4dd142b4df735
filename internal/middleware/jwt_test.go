package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockpilot/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authorization string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return c, handler(c)
}

func TestJWTMiddleware_InjectsUserAndTenant(t *testing.T) {
	mw, err := NewJWTMiddleware("", testSecret, nil)
	require.NoError(t, err)

	userID := uuid.New()
	tenantID := uuid.New()
	token := signedToken(t, jwt.MapClaims{
		"sub":       userID.String(),
		"tenant_id": tenantID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	c, err := invoke(t, mw, "Bearer "+token)

	require.NoError(t, err)
	gotUser, ok := common.GetUserIDFromContext(c.Request().Context())
	assert.True(t, ok)
	assert.Equal(t, userID, gotUser)
	gotTenant, ok := common.GetTenantIDFromContext(c.Request().Context())
	assert.True(t, ok)
	assert.Equal(t, tenantID, gotTenant)
}

func TestJWTMiddleware_MissingTokenRejected(t *testing.T) {
	mw, err := NewJWTMiddleware("", testSecret, nil)
	require.NoError(t, err)

	_, err = invoke(t, mw, "")

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_BadSignatureRejected(t *testing.T) {
	mw, err := NewJWTMiddleware("", testSecret, nil)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, signErr := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, signErr)

	_, err = invoke(t, mw, "Bearer "+signed)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_ExpiredTokenRejected(t *testing.T) {
	mw, err := NewJWTMiddleware("", testSecret, nil)
	require.NoError(t, err)

	token := signedToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err = invoke(t, mw, "Bearer "+token)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_MissingTenantClaimNotInjected(t *testing.T) {
	mw, err := NewJWTMiddleware("", testSecret, nil)
	require.NoError(t, err)

	token := signedToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	c, err := invoke(t, mw, "Bearer "+token)

	require.NoError(t, err)
	_, ok := common.GetTenantIDFromContext(c.Request().Context())
	assert.False(t, ok)
}

func TestNewJWTMiddleware_RequiresSomeKeySource(t *testing.T) {
	_, err := NewJWTMiddleware("", "", nil)

	assert.Error(t, err)
}
