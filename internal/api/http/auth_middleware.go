package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stateless-auth/internal/auth"
)

const claimsKey = "auth_claims"

// AuthMiddleware validates bearer tokens and stores the decoded claims.
type AuthMiddleware struct {
	tokens *auth.TokenService
}

// NewAuthMiddleware constructs middleware around the token service.
func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// authHeader returns the Authorization header, falling back to the
// redirect-preserved variant some proxies rewrite it into.
func authHeader(c *fiber.Ctx) string {
	if v := c.Get(fiber.HeaderAuthorization); v != "" {
		return v
	}
	return c.Get("X-Authorization")
}

// Require rejects any request without a valid token.
func (m *AuthMiddleware) Require(c *fiber.Ctx) error {
	claims, err := m.tokens.Validate(c.UserContext(), authHeader(c))
	if err != nil {
		return MapAuthError(err)
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

// Allow validates a token when one is presented but lets anonymous requests
// through: a missing header is not a failure here, anything else is.
func (m *AuthMiddleware) Allow(c *fiber.Ctx) error {
	claims, err := m.tokens.Validate(c.UserContext(), authHeader(c))
	if err != nil {
		if errors.Is(err, auth.ErrNoAuthHeader) {
			return c.Next()
		}
		return MapAuthError(err)
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the validated claims, if any.
func ClaimsFromContext(c *fiber.Ctx) (*auth.Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*auth.Claims)
	return claims, ok
}
