package history

import (
	"strconv"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/store"

	"github.com/gofiber/fiber/v2"
)

type HistoryController struct {
	HistoryService HistoryService
	Workspaces     *store.Registry
}

func NewHistoryController(historyService HistoryService, workspaces *store.Registry) *HistoryController {
	return &HistoryController{HistoryService: historyService, Workspaces: workspaces}
}

type RangeRequest struct {
	Range grid.QuickRange `json:"range"`
}

func kindParam(_ *fiber.Ctx, name string) (Kind, bool) {
	k, err := ParseKind(name)
	return k, err == nil
}

// Open returns a screen handler for one history listing; it loads the first page.
func (ctrl *HistoryController) Open(k Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		screen, err := ctrl.HistoryService.Fetch(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), k)
		if err != nil {
			return common_api.Fail(c, err, screen)
		}
		return c.JSON(screen)
	}
}

// Get godoc
// @Summary      Load the current history page
// @Tags         history
// @Produce      json
// @Param        kind path string true "dispense-history or refill-history"
// @Success      200  {object} Screen
// @Router       /api/history/{kind} [get]
func (ctrl *HistoryController) Get(c *fiber.Ctx) error {
	k, ok := kindParam(c, c.Params("kind"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown history"})
	}
	ws := middleware.Workspace(c, ctrl.Workspaces)
	if c.QueryBool("cached") {
		return c.JSON(ctrl.HistoryService.Screen(ws, k))
	}
	screen, err := ctrl.HistoryService.Fetch(c.UserContext(), ws, k)
	if err != nil {
		return common_api.Fail(c, err, screen)
	}
	return c.JSON(screen)
}

// UpdateFilters godoc
// @Summary      Change history filters
// @Description  Grid filter changes on dispense history are applied after a short debounce and answer 202
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        kind  path string true "dispense-history or refill-history"
// @Param        input body FilterUpdate true "Changed fields"
// @Success      200  {object} Screen
// @Success      202  {object} Screen
// @Router       /api/history/{kind}/filters [put]
func (ctrl *HistoryController) UpdateFilters(c *fiber.Ctx) error {
	k, ok := kindParam(c, c.Params("kind"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown history"})
	}
	var update FilterUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	screen, err := ctrl.HistoryService.UpdateFilters(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), k, update)
	if err != nil {
		return common_api.Fail(c, err, screen)
	}
	if screen.Pending {
		return c.Status(fiber.StatusAccepted).JSON(screen)
	}
	return c.JSON(screen)
}

// Range godoc
// @Summary      Apply a quick date range
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        kind  path string true "dispense-history or refill-history"
// @Param        input body RangeRequest true "Quick range"
// @Success      200  {object} Screen
// @Router       /api/history/{kind}/range [post]
func (ctrl *HistoryController) Range(c *fiber.Ctx) error {
	k, ok := kindParam(c, c.Params("kind"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown history"})
	}
	var req RangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	screen, err := ctrl.HistoryService.ApplyQuickRange(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), k, req.Range)
	if err != nil {
		return common_api.Fail(c, err, screen)
	}
	return c.JSON(screen)
}

// Export godoc
// @Summary      Export history
// @Description  Exports the whole filtered range, or only the loaded page with scope=page
// @Tags         history
// @Produce      text/csv
// @Param        kind   path  string true  "dispense-history or refill-history"
// @Param        format query string false "csv (default) or xlsx"
// @Param        scope  query string false "all (default) or page"
// @Success      200  {file} file
// @Router       /api/history/{kind}/export [get]
func (ctrl *HistoryController) Export(c *fiber.Ctx) error {
	k, ok := kindParam(c, c.Params("kind"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown history"})
	}
	export, err := ctrl.HistoryService.Export(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), k, c.Query("format", "csv"), c.Query("scope") == "page")
	if err != nil {
		return common_api.Fail(c, err, nil)
	}
	c.Set("Content-Type", export.ContentType)
	c.Set("X-Export-Rows", strconv.Itoa(export.Rows))
	c.Attachment(export.Filename)
	return c.Send(export.Data)
}
