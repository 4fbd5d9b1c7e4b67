package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/payfriend/payfriend/internal/config"
	"github.com/payfriend/payfriend/internal/middleware"
	"github.com/payfriend/payfriend/internal/notification"
	"github.com/payfriend/payfriend/internal/payment"
	"github.com/payfriend/payfriend/internal/session"
	"github.com/payfriend/payfriend/internal/user"
	"github.com/payfriend/payfriend/internal/verify"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Repositories fall
// back to in-memory implementations when no database is configured, and the
// provider client falls back to the stub when no API URL is set, so the app
// stays runnable in development.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var verifier verify.Client
	if d.Cfg.VerifyBaseURL != "" {
		verifier = verify.NewHTTPClient(d.Cfg.VerifyBaseURL, d.Cfg.VerifyAPIKey)
	} else {
		verifier = &verify.Stub{}
	}
	webhook := verify.NewWebhookVerifier(d.Cfg.WebhookSecret)

	var userRepo user.Repository
	if d.DB != nil {
		userRepo = user.NewPostgresRepository(d.DB)
	} else {
		userRepo = user.NewMemoryRepository()
	}

	var sessions session.Store
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache, d.Cfg.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(d.Cfg.SessionTTL)
	}

	var paymentStore payment.Store
	if d.DB != nil {
		paymentStore = payment.NewPostgresStore(d.DB)
	} else {
		paymentStore = payment.NewMemoryStore()
	}

	userSvc := user.NewService(userRepo, verifier)
	notifier := notification.NewLoggerNotifier(d.Logger)
	paymentSvc := payment.NewService(paymentStore, verifier, notifier, d.Cfg.PushExpiry)

	authHandler := session.NewHandler(userSvc, sessions)
	paymentHandler := payment.NewHandler(paymentSvc, webhook, d.Logger)

	// The provider webhook lives outside the versioned API group; its path
	// is part of the contract registered with the provider.
	app.Post("/payments/callback", paymentHandler.Callback)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, middleware.SessionAuth(sessions, userRepo), rateLimiter)

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	protected := api.Group("", middleware.SessionAuth(sessions, userRepo))
	RegisterPaymentRoutes(protected, paymentHandler, idempotency)

	return nil
}
