package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("u1", "admin", "secret", time.Hour)
	require.NoError(t, err)

	userID, role, err := parseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "admin", role)
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("u1", "operator", "secret", time.Hour)
	require.NoError(t, err)

	_, _, err = parseJWT(token, "other")
	assert.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT("u1", "operator", "secret", -time.Minute)
	require.NoError(t, err)

	_, _, err = parseJWT(token, "secret")
	assert.Error(t, err)
}

// echoRequest runs a request through the middleware and reports what the
// wrapped handler saw in its context.
func echoRequest(t *testing.T, mw echo.MiddlewareFunc, mutate func(*http.Request)) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mutate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var userID, role string
	handler := mw(func(c echo.Context) error {
		userID = GetUserID(c.Request().Context())
		role = GetUserRole(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, userID, role
}

func TestEchoAuthBearer(t *testing.T) {
	token, err := GenerateJWT("u1", "operator", "secret", time.Hour)
	require.NoError(t, err)

	rec, userID, role := echoRequest(t, EchoAuth("secret", nil), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "operator", role)
}

func TestEchoAuthCookie(t *testing.T) {
	token, err := GenerateJWT("u2", "admin", "secret", time.Hour)
	require.NoError(t, err)

	rec, userID, role := echoRequest(t, EchoAuth("secret", nil), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", userID)
	assert.Equal(t, "admin", role)
}

func TestEchoAuthMissingCredentials(t *testing.T) {
	rec, _, _ := echoRequest(t, EchoAuth("secret", nil), func(r *http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEchoAuthBadBearer(t *testing.T) {
	rec, _, _ := echoRequest(t, EchoAuth("secret", nil), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEchoAuthExpiredCookie(t *testing.T) {
	token, err := GenerateJWT("u2", "admin", "secret", -time.Minute)
	require.NoError(t, err)

	rec, _, _ := echoRequest(t, EchoAuth("secret", nil), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
