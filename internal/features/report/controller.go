package report

import (
	"encoding/json"
	"errors"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/store"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
	Workspaces    *store.Registry
}

func NewReportController(reportService ReportService, workspaces *store.Registry) *ReportController {
	return &ReportController{ReportService: reportService, Workspaces: workspaces}
}

type SelectRequest struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

type RangeRequest struct {
	Range grid.QuickRange `json:"range"`
}

func reportType(c *fiber.Ctx) (ReportType, error) {
	t, err := ParseReportType(c.Params("type"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return t, nil
}

// Open godoc
// @Summary      Open an ad hoc report screen
// @Description  Starts the report from its default filters and loads it
// @Tags         reports
// @Produce      json
// @Param        type path string true "machine-wise, school-wise, district-wise or state-wise"
// @Success      200  {object} Screen
// @Router       /reports/{type} [get]
func (c *ReportController) Open(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	ws := middleware.Workspace(ctx, c.Workspaces)
	c.ReportService.EnterRoute(ws, Route{Type: t})

	screen := c.ReportService.Screen(ws, t)
	if screen.State.Status == store.StatusIdle {
		if screen, err = c.ReportService.Run(ctx.UserContext(), ws, t); err != nil {
			return common_api.Fail(ctx, err, screen)
		}
	}
	return ctx.JSON(screen)
}

// Get godoc
// @Summary      Current report screen state
// @Tags         reports
// @Produce      json
// @Param        type path string true "Report type"
// @Success      200  {object} Screen
// @Router       /api/reports/{type} [get]
func (c *ReportController) Get(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(c.ReportService.Screen(middleware.Workspace(ctx, c.Workspaces), t))
}

// GetFilters godoc
// @Summary      Current filters
// @Tags         reports
// @Produce      json
// @Param        type path string true "Report type"
// @Success      200  {object} map[string]any
// @Router       /api/reports/{type}/filters [get]
func (c *ReportController) GetFilters(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	f := c.ReportService.Filters(middleware.Workspace(ctx, c.Workspaces), t)
	return ctx.JSON(fiber.Map{"filters": f, "payload": ToQueryPayload(f)})
}

// UpdateFilters godoc
// @Summary      Change filters and reload
// @Description  Overlays the top-level keys of the body on the current filters
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        type path string true "Report type"
// @Success      200  {object} Screen
// @Failure      422  {object} map[string]any
// @Router       /api/reports/{type}/filters [put]
func (c *ReportController) UpdateFilters(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	if !json.Valid(ctx.Body()) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	screen, err := c.ReportService.UpdateFilters(ctx.UserContext(), middleware.Workspace(ctx, c.Workspaces), t, json.RawMessage(ctx.Body()))
	if err != nil {
		return common_api.Fail(ctx, err, screen)
	}
	return ctx.JSON(screen)
}

// Select godoc
// @Summary      Change the state or district selection
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        type path string true "Report type"
// @Param        input body SelectRequest true "Selection"
// @Success      200  {object} Screen
// @Router       /api/reports/{type}/filters/select [post]
func (c *ReportController) Select(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	var req SelectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	screen, err := c.ReportService.SelectRegion(ctx.UserContext(), middleware.Workspace(ctx, c.Workspaces), t, req.Field, req.Values)
	if err != nil {
		return common_api.Fail(ctx, err, screen)
	}
	return ctx.JSON(screen)
}

// Range godoc
// @Summary      Apply a quick date range
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        type path string true "Report type"
// @Param        input body RangeRequest true "today, yesterday, last7Days, last30Days, thisMonth or lastMonth"
// @Success      200  {object} Screen
// @Router       /api/reports/{type}/filters/range [post]
func (c *ReportController) Range(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	var req RangeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	screen, err := c.ReportService.ApplyQuickRange(ctx.UserContext(), middleware.Workspace(ctx, c.Workspaces), t, req.Range)
	if err != nil {
		return common_api.Fail(ctx, err, screen)
	}
	return ctx.JSON(screen)
}

// Run godoc
// @Summary      Reload the report with the current filters
// @Tags         reports
// @Produce      json
// @Param        type path string true "Report type"
// @Success      200  {object} Screen
// @Router       /api/reports/{type}/run [post]
func (c *ReportController) Run(ctx *fiber.Ctx) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	screen, err := c.ReportService.Run(ctx.UserContext(), middleware.Workspace(ctx, c.Workspaces), t)
	if err != nil {
		return common_api.Fail(ctx, err, screen)
	}
	return ctx.JSON(screen)
}

// ExportPDF godoc
// @Summary      Download the loaded report as PDF
// @Tags         reports
// @Produce      application/pdf
// @Param        type path string true "Report type"
// @Success      200  {file} file
// @Router       /api/reports/{type}/pdf [get]
func (c *ReportController) ExportPDF(ctx *fiber.Ctx) error {
	return c.export(ctx, "pdf", "application/pdf")
}

// ExportXLSX godoc
// @Summary      Download the loaded report as XLSX
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        type path string true "Report type"
// @Success      200  {file} file
// @Router       /api/reports/{type}/xlsx [get]
func (c *ReportController) ExportXLSX(ctx *fiber.Ctx) error {
	return c.export(ctx, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (c *ReportController) export(ctx *fiber.Ctx, format, contentType string) error {
	t, err := reportType(ctx)
	if err != nil {
		return err
	}
	data, filename, err := c.ReportService.Export(middleware.Workspace(ctx, c.Workspaces), t, format)
	if err != nil {
		if errors.Is(err, ErrNotLoaded) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	ctx.Set("Content-Type", contentType)
	ctx.Attachment(filename)
	return ctx.Send(data)
}
