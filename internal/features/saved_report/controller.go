package saved_report

import (
	"errors"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/features/report"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/store"

	"github.com/gofiber/fiber/v2"
)

type SavedReportController struct {
	SavedReportService SavedReportService
	Workspaces         *store.Registry
}

func NewSavedReportController(savedReportService SavedReportService, workspaces *store.Registry) *SavedReportController {
	return &SavedReportController{
		SavedReportService: savedReportService,
		Workspaces:         workspaces,
	}
}

func typeParam(raw string) (report.ReportType, bool) {
	t, err := report.ParseReportType(raw)
	return t, err == nil
}

// Open godoc
// @Summary      Open a saved report
// @Description  Prefills the report filters from the saved report and reloads the report
// @Tags         saved-reports
// @Produce      json
// @Param        type path string true "Report type"
// @Param        id   path string true "Saved report ID"
// @Success      200  {object} report.Screen
// @Router       /reports/{type}/saved/{id} [get]
func (ctrl *SavedReportController) Open(c *fiber.Ctx) error {
	t, ok := typeParam(c.Params("type"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown report type"})
	}
	screen, err := ctrl.SavedReportService.View(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), t, c.Params("id"))
	if err != nil {
		return common_api.Fail(c, err, screen)
	}
	return c.JSON(screen)
}

// List godoc
// @Summary      List saved reports of a report type
// @Tags         saved-reports
// @Produce      json
// @Param        type query string false "Report type, machine-wise when omitted"
// @Success      200  {object} map[string]any
// @Router       /api/saved-reports [get]
func (ctrl *SavedReportController) List(c *fiber.Ctx) error {
	t, ok := typeParam(c.Query("type", string(report.MachineWise)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be a report type"})
	}
	state, err := ctrl.SavedReportService.List(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), t)
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(state)
}

// Create godoc
// @Summary      Save the live report
// @Description  Creates a saved report, or replaces the one currently open for that report type
// @Tags         saved-reports
// @Accept       json
// @Produce      json
// @Param        input body SaveRequest true "Report name and description"
// @Success      200  {object} map[string]any
// @Failure      422  {object} map[string]any
// @Router       /api/saved-reports [post]
func (ctrl *SavedReportController) Create(c *fiber.Ctx) error {
	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	state, err := ctrl.SavedReportService.Save(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), req)
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(state)
}

// Update godoc
// @Summary      Replace an open saved report
// @Tags         saved-reports
// @Accept       json
// @Produce      json
// @Param        id   path string true "Saved report ID"
// @Param        input body SaveRequest true "Report name and description"
// @Success      200  {object} map[string]any
// @Failure      409  {object} map[string]string
// @Router       /api/saved-reports/{id} [put]
func (ctrl *SavedReportController) Update(c *fiber.Ctx) error {
	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	state, err := ctrl.SavedReportService.Update(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), c.Params("id"), req)
	if errors.Is(err, ErrNotSelected) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(state)
}

// Delete godoc
// @Summary      Delete a saved report
// @Tags         saved-reports
// @Produce      json
// @Param        id      path  string true "Saved report ID"
// @Param        type    query string true "Report type"
// @Param        confirm query bool   true "Must be true"
// @Success      200  {object} map[string]any
// @Failure      409  {object} map[string]string
// @Router       /api/saved-reports/{id} [delete]
func (ctrl *SavedReportController) Delete(c *fiber.Ctx) error {
	t, ok := typeParam(c.Query("type"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be a report type"})
	}
	if !c.QueryBool("confirm") {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "confirmation required"})
	}
	state, err := ctrl.SavedReportService.Delete(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), t, c.Params("id"))
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(state)
}

// OpenDialog godoc
// @Summary      Open the save dialog
// @Tags         saved-reports
// @Param        type path string true "Report type"
// @Success      200  {object} report.Screen
// @Router       /api/saved-reports/dialog/{type} [post]
func (ctrl *SavedReportController) OpenDialog(c *fiber.Ctx) error {
	return ctrl.dialog(c, true)
}

// CloseDialog godoc
// @Summary      Close the save dialog
// @Tags         saved-reports
// @Param        type path string true "Report type"
// @Success      200  {object} report.Screen
// @Router       /api/saved-reports/dialog/{type} [delete]
func (ctrl *SavedReportController) CloseDialog(c *fiber.Ctx) error {
	return ctrl.dialog(c, false)
}

func (ctrl *SavedReportController) dialog(c *fiber.Ctx, open bool) error {
	t, ok := typeParam(c.Params("type"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown report type"})
	}
	return c.JSON(ctrl.SavedReportService.SetDialog(middleware.Workspace(c, ctrl.Workspaces), t, open))
}
