package session

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/payfriend/payfriend/internal/user"
	"github.com/payfriend/payfriend/internal/verify"
)

// Handler exposes register/login/logout and phone-verification endpoints.
type Handler struct {
	users *user.Service
	store Store
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(users *user.Service, store Store) *Handler {
	return &Handler{users: users, store: store}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Channel  string `json:"channel"`
}

type authResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// Register opens an account, triggers code delivery and starts a session so
// the caller can submit the verification code.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	u, err := h.users.Register(c.UserContext(), user.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Channel:  req.Channel,
	})
	if err != nil {
		return mapAuthError(err)
	}
	token, err := h.store.Create(c.UserContext(), u.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(authResponse{Token: token, UserID: u.ID, Email: u.Email, Verified: u.Verified})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials and returns a fresh session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	u, err := h.users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	token, err := h.store.Create(c.UserContext(), u.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(authResponse{Token: token, UserID: u.ID, Email: u.Email, Verified: u.Verified})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// Verify completes phone verification for the session user.
func (h *Handler) Verify(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "code is required")
	}
	verified, err := h.users.VerifyPhone(c.UserContext(), u, req.Code)
	if err != nil {
		return mapAuthError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":  verified.ID,
		"verified": verified.Verified,
	})
}

type resendRequest struct {
	Channel string `json:"channel"`
}

// Resend triggers delivery of a fresh verification code.
func (h *Handler) Resend(c *fiber.Ctx) error {
	u, ok := c.Locals("user").(user.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.users.ResendCode(c.UserContext(), u, req.Channel); err != nil {
		return mapAuthError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "code_sent"})
}

// Logout discards the caller's session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("session_token").(string)
	if token != "" {
		if err := h.store.Delete(c.UserContext(), token); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

func mapAuthError(err error) error {
	var providerErr *verify.ProviderError
	switch {
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrAlreadyVerified):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrCodeRejected):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &providerErr):
		return fiber.NewError(http.StatusBadRequest, providerErr.Message)
	case errors.Is(err, user.ErrNotFound):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
