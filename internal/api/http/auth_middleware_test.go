package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/stateless-auth/internal/auth"
	"github.com/spec-kit/stateless-auth/internal/domain"
)

type staticLookup struct {
	users map[string]*domain.User
}

func (l *staticLookup) FindByID(_ context.Context, id string) (*domain.User, error) {
	return l.users[id], nil
}

func newProtectedApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	lookup := &staticLookup{users: map[string]*domain.User{
		"42": {ID: "42", Email: "koldo@example.test"},
	}}
	tokens := auth.NewTokenService("test-secret", "https://auth.test", time.Hour, lookup, auth.TokenOptions{})

	data, err := tokens.Issue(lookup.users["42"])
	require.NoError(t, err)

	app := fiber.New()
	app.Use(errorHandlingMiddleware(zap.NewNop(), nil))

	mw := NewAuthMiddleware(tokens)
	app.Get("/private", mw.Require, func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"user_id": claims.Data.User.ID})
	})
	app.Get("/mixed", mw.Allow, func(c *fiber.Ctx) error {
		if claims, ok := ClaimsFromContext(c); ok {
			return c.JSON(fiber.Map{"user_id": claims.Data.User.ID})
		}
		return c.JSON(fiber.Map{"user_id": ""})
	})

	return app, data.Token
}

func errorCode(t *testing.T, resp *stdhttp.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestRequireAcceptsValidToken(t *testing.T) {
	app, token := newProtectedApp(t)

	req, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "42", body["user_id"])
}

func TestRequireAcceptsFallbackHeader(t *testing.T) {
	app, token := newProtectedApp(t)

	req, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/private", nil)
	req.Header.Set("X-Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}

func TestRequireRejectsMissingHeader(t *testing.T) {
	app, _ := newProtectedApp(t)

	req, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/private", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "NO_AUTH_HEADER", errorCode(t, resp))
}

func TestRequireRejectsMalformedHeader(t *testing.T) {
	app, _ := newProtectedApp(t)

	req, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Token abc123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "MALFORMED_AUTH_HEADER", errorCode(t, resp))
}

func TestRequireRejectsGarbageToken(t *testing.T) {
	app, _ := newProtectedApp(t)

	req, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "TOKEN_INVALID", errorCode(t, resp))
}

func TestAllowPassesAnonymous(t *testing.T) {
	app, token := newProtectedApp(t)

	req, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/mixed", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body["user_id"])

	// A presented-but-broken token is still a failure.
	req, _ = stdhttp.NewRequest(stdhttp.MethodGet, "/mixed", nil)
	req.Header.Set("Authorization", "Bearer broken")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)

	// And a good one identifies the caller.
	req, _ = stdhttp.NewRequest(stdhttp.MethodGet, "/mixed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}
