package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/payfriend/payfriend/internal/user"
	"github.com/payfriend/payfriend/internal/verify"
)

// Handler exposes payment endpoints including the provider webhook.
type Handler struct {
	service *Service
	webhook *verify.WebhookVerifier
	logger  *slog.Logger
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service, webhook *verify.WebhookVerifier, logger *slog.Logger) *Handler {
	return &Handler{service: service, webhook: webhook, logger: logger}
}

type sendRequest struct {
	SendTo string `json:"send_to"`
	Amount int64  `json:"amount"`
}

// Send submits a payment request backed by a push challenge.
func (h *Handler) Send(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Create(c.UserContext(), u, CreateInput{SendTo: req.SendTo, Amount: req.Amount})
	if err != nil {
		var providerErr *verify.ProviderError
		switch {
		case errors.Is(err, ErrNotVerified):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.As(err, &providerErr):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"success": false, "error": providerErr.Message})
		default:
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"request_id": p.ID,
		"status":     p.Status,
	})
}

type callbackRequest struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// Callback receives the provider's asynchronous decision. The signature is
// checked against the raw body before the payload is even parsed; a failure
// here is treated as a potential forgery and mutates nothing.
func (h *Handler) Callback(c *fiber.Ctx) error {
	body := c.Body()
	if !h.webhook.Verify(c.Get(verify.SignatureHeader), body) {
		h.logger.Warn("webhook signature rejected", "ip", c.IP(), "path", c.Path())
		return fiber.NewError(http.StatusUnauthorized, "invalid signature")
	}

	var req callbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.UUID == "" {
		return fiber.NewError(http.StatusBadRequest, "uuid is required")
	}

	err := h.service.HandleCallback(c.UserContext(), Callback{RequestID: req.UUID, Status: req.Status})
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidStatus):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Status reports the current status of one of the caller's payment requests.
func (h *Handler) Status(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	requestID := c.Query("request_id")
	if requestID == "" {
		return fiber.NewError(http.StatusBadRequest, "request_id is required")
	}

	status, err := h.service.Status(c.UserContext(), u, requestID)
	if err != nil {
		return mapPaymentError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"request_id": requestID, "status": status})
}

type paymentItem struct {
	RequestID string     `json:"request_id"`
	SendTo    string     `json:"send_to"`
	Amount    int64      `json:"amount"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// List returns the caller's payment requests.
func (h *Handler) List(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	payments, err := h.service.List(c.UserContext(), u)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	items := make([]paymentItem, 0, len(payments))
	for _, p := range payments {
		items = append(items, paymentItem{
			RequestID: p.ID,
			SendTo:    p.SendTo,
			Amount:    p.Amount,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
			DecidedAt: p.DecidedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"payments": items})
}

type smsAuthRequest struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
}

// StartSMSAuth triggers the SMS fallback challenge.
func (h *Handler) StartSMSAuth(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req smsAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RequestID == "" {
		return fiber.NewError(http.StatusBadRequest, "request_id is required")
	}
	if err := h.service.StartSMSAuth(c.UserContext(), u, req.RequestID); err != nil {
		return mapPaymentError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "code_sent"})
}

// CheckSMSAuth validates a fallback code and approves the payment.
func (h *Handler) CheckSMSAuth(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req smsAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RequestID == "" || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "request_id and code are required")
	}
	if err := h.service.CheckSMSAuth(c.UserContext(), u, req.RequestID, req.Code); err != nil {
		return mapPaymentError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "approved"})
}

func mapPaymentError(err error) error {
	var providerErr *verify.ProviderError
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotPending):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrCodeRejected):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &providerErr):
		return fiber.NewError(http.StatusBadRequest, providerErr.Message)
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
