package history

import (
	"padtracker-console/internal/config"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type HistoryApi struct {
	controller *HistoryController
	config     *config.Config
	sessions   session.Service
	logger     *zap.Logger
}

func NewHistoryApi(controller *HistoryController, config *config.Config, sessions session.Service, logger *zap.Logger) *HistoryApi {
	return &HistoryApi{
		controller: controller,
		config:     config,
		sessions:   sessions,
		logger:     logger,
	}
}

func (h *HistoryApi) Setup(app *fiber.App) {
	guard := middleware.SessionGuard(h.sessions, h.logger, h.config.SkipAuth)

	app.Get("/dispense-history", guard, h.controller.Open(Dispense))
	refill := middleware.RequireRole(session.RoleSuperAdmin, session.RoleAdmin)
	app.Get("/refill-history", guard, refill, h.controller.Open(Refill))

	group := app.Group("/api/history", guard)
	group.Use("/"+Refill.Name, refill)
	group.Get("/:kind", h.controller.Get)
	group.Put("/:kind/filters", h.controller.UpdateFilters)
	group.Post("/:kind/range", h.controller.Range)
	group.Get("/:kind/export", h.controller.Export)
}
