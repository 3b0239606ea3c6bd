package menu

import (
	"padtracker-console/internal/config"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MenuApi struct {
	config   *config.Config
	sessions session.Service
	logger   *zap.Logger
}

func NewMenuApi(config *config.Config, sessions session.Service, logger *zap.Logger) *MenuApi {
	return &MenuApi{config: config, sessions: sessions, logger: logger}
}

func (h *MenuApi) Setup(app *fiber.App) {
	app.Get("/api/menu", middleware.SessionGuard(h.sessions, h.logger, h.config.SkipAuth), h.GetMenu)
}

// GetMenu godoc
// @Summary      Sidebar menu
// @Description  Menu items visible to the current role
// @Tags         menu
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /api/menu [get]
func (h *MenuApi) GetMenu(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	return c.JSON(fiber.Map{
		"role":      sess.Role,
		"roleLabel": sess.Role.Label(),
		"items":     For(sess.Role),
	})
}
