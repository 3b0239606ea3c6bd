package dashboard

import (
	"padtracker-console/internal/common/api"
	"padtracker-console/internal/config"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardApi struct {
	DashboardController *DashboardController
	Config              *config.Config
	Sessions            session.Service
	Logger              *zap.Logger
}

func NewDashboardApi(dashboardController *DashboardController, cfg *config.Config, sessions session.Service, logger *zap.Logger) api.Route {
	return &DashboardApi{
		DashboardController: dashboardController,
		Config:              cfg,
		Sessions:            sessions,
		Logger:              logger,
	}
}

func (api *DashboardApi) Setup(app *fiber.App) {
	guard := middleware.SessionGuard(api.Sessions, api.Logger, api.Config.SkipAuth)

	app.Get("/", guard, api.DashboardController.GetDashboard)
	app.Get("/api/dashboard", guard, api.DashboardController.GetDashboard)
}
