package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/payfriend/payfriend/internal/session"
	"github.com/payfriend/payfriend/internal/user"
)

// SessionAuth resolves the bearer token to a fresh user row and stores both
// in request locals. Identity always travels explicitly through the request;
// there is no ambient current-user state.
func SessionAuth(store session.Store, repo user.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		userID, err := store.Get(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fiber.NewError(http.StatusUnauthorized, "session expired or invalid")
			}
			return fiber.NewError(http.StatusInternalServerError, "session lookup failed")
		}

		u, err := repo.FindByID(c.UserContext(), userID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}

		c.Locals("user", u)
		c.Locals("session_token", token)
		return c.Next()
	}
}

// RequireVerified gates payment routes on a completed phone verification and
// an assigned provider identity handle.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := c.Locals("user").(user.User)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		if !u.Verified || u.ProviderID == "" {
			return fiber.NewError(http.StatusForbidden, "phone verification required")
		}
		return c.Next()
	}
}
