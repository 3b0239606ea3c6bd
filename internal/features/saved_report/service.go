package saved_report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"padtracker-console/internal/common/models"
	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/features/report"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"go.uber.org/zap"
)

const (
	sliceSave = "savedReport:save"
	sliceView = "savedReport:view"
)

var ErrNotSelected = errors.New("open the saved report before updating it")

type SaveRequest struct {
	ReportType  string `json:"reportType" validate:"required"`
	ReportName  string `json:"reportName" validate:"required"`
	Description string `json:"description"`
}

type SavedReportService interface {
	List(ctx context.Context, ws *store.Workspace, t report.ReportType) (store.State[[]report.SavedReport], error)
	SetDialog(ws *store.Workspace, t report.ReportType, open bool) report.Screen
	Save(ctx context.Context, ws *store.Workspace, req SaveRequest) (store.State[report.SavedReport], error)
	Update(ctx context.Context, ws *store.Workspace, id string, req SaveRequest) (store.State[report.SavedReport], error)
	View(ctx context.Context, ws *store.Workspace, t report.ReportType, id string) (report.Screen, error)
	Delete(ctx context.Context, ws *store.Workspace, t report.ReportType, id string) (store.State[[]report.SavedReport], error)
}

type SavedReportServiceImpl struct {
	Client  *upstream.Client
	Reports report.ReportService
	Logger  *zap.Logger
}

func NewSavedReportService(client *upstream.Client, reports report.ReportService, logger *zap.Logger) SavedReportService {
	return &SavedReportServiceImpl{
		Client:  client,
		Reports: reports,
		Logger:  logger.Named("saved_report"),
	}
}

func (s *SavedReportServiceImpl) List(ctx context.Context, ws *store.Workspace, t report.ReportType) (store.State[[]report.SavedReport], error) {
	query := url.Values{}
	query.Set("type", string(t))
	return store.Run(ctx, store.SliceOf[[]report.SavedReport](ws, report.SavedListSlice(t)), "Failed to fetch saved reports",
		func(ctx context.Context) ([]report.SavedReport, error) {
			var env models.Envelope[[]report.SavedReport]
			if err := s.Client.Get(ctx, upstream.PathSavedReports, query, &env); err != nil {
				return nil, err
			}
			if env.Data == nil {
				return []report.SavedReport{}, nil
			}
			return env.Data, nil
		})
}

func (s *SavedReportServiceImpl) SetDialog(ws *store.Workspace, t report.ReportType, open bool) report.Screen {
	slot := store.SlotOf[bool](ws, report.SlotSaveDialog)
	if open {
		slot.Set(true)
	} else {
		slot.Clear()
	}
	return s.Reports.Screen(ws, t)
}

func normalize(req SaveRequest) (SaveRequest, report.ReportType, error) {
	req.ReportName = strings.TrimSpace(req.ReportName)
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.Struct(req); err != nil {
		return req, "", err
	}
	t, err := report.ParseReportType(req.ReportType)
	if err != nil {
		return req, "", validation.Errors{"reportType": err.Error()}
	}
	return req, t, nil
}

// payload captures the live filters and summary of the report screen.
func (s *SavedReportServiceImpl) payload(ws *store.Workspace, t report.ReportType, req SaveRequest) (report.SavedReport, error) {
	filters, err := json.Marshal(s.Reports.Filters(ws, t))
	if err != nil {
		return report.SavedReport{}, err
	}
	summary := s.Reports.Screen(ws, t).State.Data.Summary
	if summary == nil {
		summary = map[string]any{}
	}
	return report.SavedReport{
		ReportType:  t,
		ReportName:  req.ReportName,
		Description: req.Description,
		Filters:     filters,
		Summary:     summary,
	}, nil
}

// Save persists the live report. A report already backed by a saved report is replaced
// through update instead of being created again. Success closes the save dialog and
// leaves the route unchanged.
func (s *SavedReportServiceImpl) Save(ctx context.Context, ws *store.Workspace, req SaveRequest) (store.State[report.SavedReport], error) {
	req, t, err := normalize(req)
	if err != nil {
		return store.SliceOf[report.SavedReport](ws, sliceSave).Snapshot(), err
	}
	if selected, ok := store.SlotOf[report.SavedReport](ws, report.SlotSelected).Get(); ok && selected.ReportType == t && !selected.ID.IsZero() {
		return s.Update(ctx, ws, selected.ID.String(), req)
	}

	body, err := s.payload(ws, t, req)
	if err != nil {
		return store.SliceOf[report.SavedReport](ws, sliceSave).Snapshot(), err
	}
	return s.persist(ctx, ws, t, "Report saved successfully", body, func(ctx context.Context, out any) error {
		return s.Client.Post(ctx, upstream.PathSaveReport, body, out)
	})
}

// Update fully replaces the selected saved report.
func (s *SavedReportServiceImpl) Update(ctx context.Context, ws *store.Workspace, id string, req SaveRequest) (store.State[report.SavedReport], error) {
	req, t, err := normalize(req)
	if err != nil {
		return store.SliceOf[report.SavedReport](ws, sliceSave).Snapshot(), err
	}
	selected, ok := store.SlotOf[report.SavedReport](ws, report.SlotSelected).Get()
	if !ok || selected.ID.String() != id || selected.ReportType != t {
		return store.SliceOf[report.SavedReport](ws, sliceSave).Snapshot(), ErrNotSelected
	}

	body, err := s.payload(ws, t, req)
	if err != nil {
		return store.SliceOf[report.SavedReport](ws, sliceSave).Snapshot(), err
	}
	body.ID = selected.ID
	path := upstream.PathUpdateSavedReport + url.PathEscape(id)
	return s.persist(ctx, ws, t, "Report updated successfully", body, func(ctx context.Context, out any) error {
		return s.Client.Put(ctx, path, body, out)
	})
}

func (s *SavedReportServiceImpl) persist(ctx context.Context, ws *store.Workspace, t report.ReportType, fallbackMessage string, body report.SavedReport, call func(context.Context, any) error) (store.State[report.SavedReport], error) {
	slice := store.SliceOf[report.SavedReport](ws, sliceSave)
	seq := slice.Begin()

	var env models.Envelope[report.SavedReport]
	if err := call(ctx, &env); err != nil {
		if !slice.Reject(seq, upstream.Message(err, "Failed to save report")) {
			return slice.Snapshot(), store.ErrSuperseded
		}
		return slice.Snapshot(), err
	}

	saved := env.Data
	if saved.ID.IsZero() {
		saved.ID = body.ID
	}
	if saved.ReportName == "" {
		saved.ReportName = body.ReportName
		saved.Description = body.Description
		saved.Filters = body.Filters
		saved.Summary = body.Summary
	}
	saved.ReportType = t

	message := env.Message
	if message == "" {
		message = fallbackMessage
	}
	if !slice.Resolve(seq, saved, message) {
		return slice.Snapshot(), store.ErrSuperseded
	}

	store.SlotOf[bool](ws, report.SlotSaveDialog).Clear()
	if !saved.ID.IsZero() {
		store.SlotOf[report.SavedReport](ws, report.SlotSelected).Set(saved)
		store.SliceOf[[]report.SavedReport](ws, report.SavedListSlice(t)).Mutate(func(list []report.SavedReport) []report.SavedReport {
			return upsert(list, saved)
		})
	}
	s.Logger.Info("saved report persisted",
		zap.String("session_id", ws.SessionID()),
		zap.String("report_type", string(t)),
		zap.String("saved_report_id", saved.ID.String()),
	)
	return slice.Snapshot(), nil
}

// View loads a saved report, prefills the filters from it and reloads the report data.
func (s *SavedReportServiceImpl) View(ctx context.Context, ws *store.Workspace, t report.ReportType, id string) (report.Screen, error) {
	s.Reports.EnterRoute(ws, report.Route{Type: t, SavedID: id})

	state, err := store.Run(ctx, store.SliceOf[report.SavedReport](ws, sliceView), "Failed to load saved report",
		func(ctx context.Context) (report.SavedReport, error) {
			var env models.Envelope[report.SavedReport]
			if err := s.Client.Get(ctx, upstream.PathViewSavedReport+url.PathEscape(id), nil, &env); err != nil {
				return report.SavedReport{}, err
			}
			if env.Data.ReportType != "" && env.Data.ReportType != t {
				return report.SavedReport{}, fmt.Errorf("saved report %s is a %s report", id, env.Data.ReportType)
			}
			env.Data.ReportType = t
			if env.Data.ID.IsZero() {
				env.Data.ID = models.RecordID(id)
			}
			return env.Data, nil
		})
	if err != nil {
		return s.Reports.Screen(ws, t), err
	}

	saved := state.Data
	store.SlotOf[report.SavedReport](ws, report.SlotSelected).Set(saved)

	filters, err := report.MergeFilters(saved.Filters, t, s.Reports.Today())
	if err != nil {
		return s.Reports.Screen(ws, t), err
	}
	s.Reports.SetFilters(ws, filters)
	return s.Reports.Run(ctx, ws, t)
}

// Delete removes a saved report upstream, then drops it from the cached list. On failure
// the list is left as it was.
func (s *SavedReportServiceImpl) Delete(ctx context.Context, ws *store.Workspace, t report.ReportType, id string) (store.State[[]report.SavedReport], error) {
	list := store.SliceOf[[]report.SavedReport](ws, report.SavedListSlice(t))
	seq := list.Begin()

	var env models.Envelope[json.RawMessage]
	if err := s.Client.Delete(ctx, upstream.PathDeleteSavedReport+url.PathEscape(id), &env); err != nil {
		if !list.Reject(seq, upstream.Message(err, "Failed to delete saved report")) {
			return list.Snapshot(), store.ErrSuperseded
		}
		return list.Snapshot(), err
	}

	message := env.Message
	if message == "" {
		message = "Report deleted successfully"
	}
	list.Apply(seq, func(items []report.SavedReport) []report.SavedReport {
		return without(items, id)
	}, message)

	selected := store.SlotOf[report.SavedReport](ws, report.SlotSelected)
	if current, ok := selected.Get(); ok && current.ID.String() == id {
		selected.Clear()
	}
	return list.Snapshot(), nil
}

func without(items []report.SavedReport, id string) []report.SavedReport {
	out := make([]report.SavedReport, 0, len(items))
	for _, item := range items {
		if item.ID.String() != id {
			out = append(out, item)
		}
	}
	return out
}

func upsert(items []report.SavedReport, saved report.SavedReport) []report.SavedReport {
	out := make([]report.SavedReport, 0, len(items)+1)
	replaced := false
	for _, item := range items {
		if item.ID == saved.ID {
			out = append(out, saved)
			replaced = true
			continue
		}
		out = append(out, item)
	}
	if !replaced {
		out = append(out, saved)
	}
	return out
}
