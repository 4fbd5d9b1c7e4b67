package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/payfriend/payfriend/internal/middleware"
	"github.com/payfriend/payfriend/internal/payment"
)

// RegisterPaymentRoutes wires the authenticated payment endpoints. Status is
// available to any authenticated session; everything that can move money
// additionally requires a verified phone.
func RegisterPaymentRoutes(r fiber.Router, h *payment.Handler, idempotency fiber.Handler) {
	r.Get("/payments/status", h.Status)

	verified := r.Group("", middleware.RequireVerified())
	if idempotency != nil {
		verified.Post("/payments/send", idempotency, h.Send)
	} else {
		verified.Post("/payments/send", h.Send)
	}
	verified.Get("/payments", h.List)
	verified.Post("/payments/auth/sms", h.StartSMSAuth)
	verified.Post("/payments/auth/sms/check", h.CheckSMSAuth)
}
