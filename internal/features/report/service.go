package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"go.uber.org/zap"
)

var ErrNotLoaded = errors.New("report has not been loaded")

// Screen is the view model of one report screen.
type Screen struct {
	ReportType          ReportType          `json:"reportType"`
	Title               string              `json:"title"`
	Route               Route               `json:"route"`
	Filters             Filters             `json:"filters"`
	State               store.State[Result] `json:"state"`
	View                *View               `json:"view,omitempty"`
	SelectedSavedReport *SavedReport        `json:"selectedSavedReport,omitempty"`
	SaveDialogOpen      bool                `json:"saveDialogOpen"`
}

type ReportService interface {
	EnterRoute(ws *store.Workspace, next Route)
	Filters(ws *store.Workspace, t ReportType) Filters
	SetFilters(ws *store.Workspace, f Filters)
	UpdateFilters(ctx context.Context, ws *store.Workspace, t ReportType, patch json.RawMessage) (Screen, error)
	SelectRegion(ctx context.Context, ws *store.Workspace, t ReportType, field string, values []string) (Screen, error)
	ApplyQuickRange(ctx context.Context, ws *store.Workspace, t ReportType, r grid.QuickRange) (Screen, error)
	Run(ctx context.Context, ws *store.Workspace, t ReportType) (Screen, error)
	Screen(ws *store.Workspace, t ReportType) Screen
	Export(ws *store.Workspace, t ReportType, format string) ([]byte, string, error)
	Today() time.Time
}

type ReportServiceImpl struct {
	Client *upstream.Client
	Logger *zap.Logger
	now    func() time.Time
}

func NewReportService(client *upstream.Client, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		Client: client,
		Logger: logger.Named("report"),
		now:    time.Now,
	}
}

func (s *ReportServiceImpl) Today() time.Time { return grid.Day(s.now()) }

// EnterRoute records the report screen a session is on. Leaving a saved report clears the
// selected saved report together with the result and filters of its report type, and
// opening an ad hoc report always starts from that type's defaults.
func (s *ReportServiceImpl) EnterRoute(ws *store.Workspace, next Route) {
	slot := store.SlotOf[Route](ws, SlotRoute)
	prev, ok := slot.Get()
	if ok && prev == next {
		return
	}
	slot.Set(next)
	store.SlotOf[bool](ws, SlotSaveDialog).Clear()

	if ok && prev.SavedID != "" {
		store.SlotOf[SavedReport](ws, SlotSelected).Clear()
		clearType(ws, prev.Type)
	}
	if next.SavedID == "" {
		store.SlotOf[SavedReport](ws, SlotSelected).Clear()
		clearType(ws, next.Type)
	}
}

func clearType(ws *store.Workspace, t ReportType) {
	store.SliceOf[Result](ws, ResultSlice(t)).Reset()
	store.SlotOf[Filters](ws, FiltersSlot(t)).Clear()
}

func (s *ReportServiceImpl) Filters(ws *store.Workspace, t ReportType) Filters {
	slot := store.SlotOf[Filters](ws, FiltersSlot(t))
	if f, ok := slot.Get(); ok {
		return f
	}
	f := BuildDefaultFilters(t, s.now())
	slot.Set(f)
	return f
}

func (s *ReportServiceImpl) SetFilters(ws *store.Workspace, f Filters) {
	store.SlotOf[Filters](ws, FiltersSlot(f.Type())).Set(f)
}

func (s *ReportServiceImpl) UpdateFilters(ctx context.Context, ws *store.Workspace, t ReportType, patch json.RawMessage) (Screen, error) {
	next, err := PatchFilters(s.Filters(ws, t), patch)
	if err != nil {
		return s.Screen(ws, t), err
	}
	if err := Validate(next); err != nil {
		return s.Screen(ws, t), err
	}
	s.SetFilters(ws, next)
	return s.Run(ctx, ws, t)
}

func (s *ReportServiceImpl) SelectRegion(ctx context.Context, ws *store.Workspace, t ReportType, field string, values []string) (Screen, error) {
	current := s.Filters(ws, t)
	next, err := PatchFilters(current, nil)
	if err != nil {
		return s.Screen(ws, t), err
	}
	switch field {
	case "states":
		next.Base().SelectedStates = HandleMultiSelect(values, AllStates)
	case "districts":
		next.Base().SelectedDistricts = HandleMultiSelect(values, AllDistricts)
	default:
		return s.Screen(ws, t), validation.Errors{"field": "must be one of: states districts"}
	}
	s.SetFilters(ws, next)
	return s.Run(ctx, ws, t)
}

func (s *ReportServiceImpl) ApplyQuickRange(ctx context.Context, ws *store.Workspace, t ReportType, r grid.QuickRange) (Screen, error) {
	bounds, err := r.Resolve(s.now())
	if err != nil {
		return s.Screen(ws, t), validation.Errors{"range": err.Error()}
	}
	next, err := PatchFilters(s.Filters(ws, t), nil)
	if err != nil {
		return s.Screen(ws, t), err
	}
	next.Base().StartDate = bounds.Start
	next.Base().EndDate = bounds.End
	s.SetFilters(ws, next)
	return s.Run(ctx, ws, t)
}

// Run fetches the report for the current filters. Invalid filters never reach the network.
func (s *ReportServiceImpl) Run(ctx context.Context, ws *store.Workspace, t ReportType) (Screen, error) {
	f := s.Filters(ws, t)
	if err := Validate(f); err != nil {
		return s.Screen(ws, t), err
	}
	payload := ToQueryPayload(f)
	slice := store.SliceOf[Result](ws, ResultSlice(t))

	_, err := store.Run(ctx, slice, "Failed to fetch report data", func(ctx context.Context) (Result, error) {
		var res Result
		if err := s.Client.Post(ctx, t.Path(), payload, &res); err != nil {
			return Result{}, err
		}
		if res.Data == nil {
			res.Data = []map[string]any{}
		}
		if res.Summary == nil {
			res.Summary = map[string]any{}
		}
		return res, nil
	})
	if err != nil && !errors.Is(err, store.ErrSuperseded) {
		s.Logger.Warn("report fetch failed",
			zap.String("session_id", ws.SessionID()),
			zap.String("report_type", string(t)),
			zap.Error(err),
		)
	}
	return s.Screen(ws, t), err
}

func (s *ReportServiceImpl) Screen(ws *store.Workspace, t ReportType) Screen {
	f := s.Filters(ws, t)
	route, _ := store.SlotOf[Route](ws, SlotRoute).Get()
	open, _ := store.SlotOf[bool](ws, SlotSaveDialog).Get()
	screen := Screen{
		ReportType:     t,
		Title:          t.Title(),
		Route:          route,
		Filters:        f,
		State:          store.SliceOf[Result](ws, ResultSlice(t)).Snapshot(),
		SaveDialogOpen: open,
	}
	if screen.State.Status == store.StatusLoaded {
		view := screen.State.Data.Visible(t, f.Base().IncludeColumns)
		screen.View = &view
	}
	if selected, ok := store.SlotOf[SavedReport](ws, SlotSelected).Get(); ok && selected.ReportType == t {
		screen.SelectedSavedReport = &selected
	}
	return screen
}

// Export renders the loaded report as pdf or xlsx.
func (s *ReportServiceImpl) Export(ws *store.Workspace, t ReportType, format string) ([]byte, string, error) {
	screen := s.Screen(ws, t)
	if screen.View == nil {
		return nil, "", ErrNotLoaded
	}
	base := screen.Filters.Base()
	name := fmt.Sprintf("%s_%s_to_%s", t, base.StartDate, base.EndDate)
	if screen.SelectedSavedReport != nil {
		name = screen.SelectedSavedReport.ReportName + "_" + name
	}

	switch format {
	case "pdf":
		title := t.Title()
		if screen.SelectedSavedReport != nil {
			title = screen.SelectedSavedReport.ReportName
		}
		data, err := RenderPDF(title, screen.Filters, *screen.View, s.now())
		return data, name + ".pdf", err
	case "xlsx":
		data, err := grid.WriteXLSX("Report", screen.View.Columns, screen.View.Rows)
		return data, name + ".xlsx", err
	}
	return nil, "", fmt.Errorf("unsupported format: %s", format)
}
