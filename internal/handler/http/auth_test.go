package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/internal/auth"
)

func login(t *testing.T, env *testEnv, email string) auth.Session {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: email, Password: "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s auth.Session
	decodeData(t, rec, &s)
	return s
}

func TestLogin_IssuesToken(t *testing.T) {
	env := newTestEnv(t)

	s := login(t, env, "Dev@Example.com")
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, "dev@example.com", s.User.Email)
	assert.Equal(t, auth.RoleUser, s.User.Role)
}

func TestLogin_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errResp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "email")
	assert.Contains(t, errResp.Fields, "password")
}

func TestBearerToken_ScopesCartToUser(t *testing.T) {
	env := newTestEnv(t)
	s := login(t, env, "dev@example.com")

	rec := env.withToken(t, http.MethodPost, "/api/v1/cart/items", s.AccessToken, AddItemRequest{ProductID: "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The same user signing in again sees the same cart.
	again := login(t, env, "dev@example.com")
	rec = env.withToken(t, http.MethodGet, "/api/v1/cart", again.AccessToken, nil)
	var cart CartResponse
	decodeData(t, rec, &cart)
	assert.Equal(t, 1, cart.Count)
}

func TestBearerToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rec := env.withToken(t, http.MethodGet, "/api/v1/cart", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
