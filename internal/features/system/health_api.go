package system

import (
	"padtracker-console/internal/common/api"
	"padtracker-console/internal/store"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	workspaces *store.Registry
}

func NewHealthApi(workspaces *store.Registry) api.Route {
	return &HealthApi{workspaces: workspaces}
}

// Setup registers health check route
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Check if the server is up
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (h *HealthApi) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "OK",
		"workspaces": h.workspaces.Len(),
	})
}
