package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/payfriend/payfriend/internal/session"
)

// RegisterAuthRoutes wires registration, login and verification endpoints.
// Register and login are public; verification endpoints need a session so the
// user being verified is always explicit.
func RegisterAuthRoutes(r fiber.Router, h *session.Handler, sessionAuth, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/verify", sessionAuth, h.Verify)
	group.Post("/resend", sessionAuth, h.Resend)
	group.Post("/logout", sessionAuth, h.Logout)
}
