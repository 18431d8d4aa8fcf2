package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chain-pair/chain_pair/internal/channel"
	"github.com/chain-pair/chain_pair/internal/config"
	"github.com/chain-pair/chain_pair/internal/middleware"
	"github.com/chain-pair/chain_pair/internal/securechannel"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Secure   *securechannel.Service
	Channels *channel.Service
}

// Setup configures middlewares and the control API routes.
func Setup(app *fiber.App, d Deps) error {
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Control API
	api := app.Group("/api/v1", middleware.AccessToken(d.Cfg.ControlTokenHash))
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	pairingHandler := securechannel.NewHandler(d.Secure, d.Channels)
	resendLimiter := middleware.ResendRateLimit(d.Cache, 3)
	RegisterPairingRoutes(api, pairingHandler, resendLimiter)

	return nil
}

// RegisterPairingRoutes adds the pairing control endpoints.
func RegisterPairingRoutes(api fiber.Router, h *securechannel.Handler, resendLimiter fiber.Handler) {
	pairing := api.Group("/pairing")
	pairing.Get("/status", h.Status)
	pairing.Post("/resend", resendLimiter, h.Resend)
	pairing.Post("/logout", h.Logout)
}
