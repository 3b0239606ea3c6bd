package auth

import (
	"padtracker-console/internal/config"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthApi struct {
	controller *AuthController
	config     *config.Config
	sessions   session.Service
	logger     *zap.Logger
}

func NewAuthApi(controller *AuthController, config *config.Config, sessions session.Service, logger *zap.Logger) *AuthApi {
	return &AuthApi{
		controller: controller,
		config:     config,
		sessions:   sessions,
		logger:     logger,
	}
}

// Setup registers all auth-related routes
func (h *AuthApi) Setup(app *fiber.App) {
	// Public routes
	app.Post("/api/auth/send-otp", h.controller.SendOTP)
	app.Post("/api/auth/verify-otp", h.controller.VerifyOTP)
	app.Get("/login", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"screen": "login"})
	})

	protected := app.Group("/api/auth", middleware.SessionGuard(h.sessions, h.logger, h.config.SkipAuth))
	protected.Post("/logout", h.controller.Logout)
	protected.Get("/me", h.controller.Me)
}
