package saved_report

import (
	"padtracker-console/internal/config"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SavedReportApi struct {
	controller *SavedReportController
	config     *config.Config
	sessions   session.Service
	logger     *zap.Logger
}

func NewSavedReportApi(controller *SavedReportController, config *config.Config, sessions session.Service, logger *zap.Logger) *SavedReportApi {
	return &SavedReportApi{
		controller: controller,
		config:     config,
		sessions:   sessions,
		logger:     logger,
	}
}

func (h *SavedReportApi) Setup(app *fiber.App) {
	guard := middleware.SessionGuard(h.sessions, h.logger, h.config.SkipAuth)
	reports := middleware.RequireRole(session.RoleSuperAdmin, session.RoleAdmin, session.RoleNGO)

	app.Get("/saved-reports", guard, reports, h.controller.List)
	app.Get("/reports/:type/saved/:id", guard, reports, h.controller.Open)

	group := app.Group("/api/saved-reports", guard, reports)
	group.Get("/", h.controller.List)
	group.Post("/", h.controller.Create)
	group.Post("/dialog/:type", h.controller.OpenDialog)
	group.Delete("/dialog/:type", h.controller.CloseDialog)
	group.Put("/:id", h.controller.Update)
	group.Delete("/:id", h.controller.Delete)
}
