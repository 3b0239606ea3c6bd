package report

import (
	"padtracker-console/internal/config"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportApi struct {
	ReportController *ReportController
	Config           *config.Config
	Sessions         session.Service
	Logger           *zap.Logger
}

func NewReportApi(reportController *ReportController, config *config.Config, sessions session.Service, logger *zap.Logger) *ReportApi {
	return &ReportApi{
		ReportController: reportController,
		Config:           config,
		Sessions:         sessions,
		Logger:           logger,
	}
}

func (api *ReportApi) Setup(app *fiber.App) {
	guard := middleware.SessionGuard(api.Sessions, api.Logger, api.Config.SkipAuth)
	reports := middleware.RequireRole(session.RoleSuperAdmin, session.RoleAdmin, session.RoleNGO)

	app.Get("/reports/:type", guard, reports, api.ReportController.Open)

	group := app.Group("/api/reports", guard, reports)
	group.Get("/:type", api.ReportController.Get)
	group.Get("/:type/filters", api.ReportController.GetFilters)
	group.Put("/:type/filters", api.ReportController.UpdateFilters)
	group.Post("/:type/filters/select", api.ReportController.Select)
	group.Post("/:type/filters/range", api.ReportController.Range)
	group.Post("/:type/run", api.ReportController.Run)
	group.Get("/:type/pdf", api.ReportController.ExportPDF)
	group.Get("/:type/xlsx", api.ReportController.ExportXLSX)
}
