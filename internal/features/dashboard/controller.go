package dashboard

import (
	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/store"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	DashboardService DashboardService
	Workspaces       *store.Registry
}

func NewDashboardController(dashboardService DashboardService, workspaces *store.Registry) *DashboardController {
	return &DashboardController{DashboardService: dashboardService, Workspaces: workspaces}
}

// GetDashboard godoc
// @Summary      Dashboard cards and charts
// @Description  Fetches the pre-aggregated stats and lays out the chart widgets
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      502  {object}  map[string]any
// @Router       /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *fiber.Ctx) error {
	state, err := c.DashboardService.Fetch(ctx.UserContext(), middleware.Workspace(ctx, c.Workspaces))
	if err != nil {
		return common_api.Fail(ctx, err, state)
	}
	return ctx.JSON(fiber.Map{
		"state":  state,
		"screen": c.DashboardService.Screen(state),
	})
}
