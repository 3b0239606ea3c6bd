package history

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"padtracker-console/internal/common/models"
	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/config"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/features/report"
	"padtracker-console/internal/session"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"go.uber.org/zap"
)

// Screen is the view model of a history screen.
type Screen struct {
	History string                   `json:"history"`
	Filters Filters                  `json:"filters"`
	State   store.State[models.Page] `json:"state"`
	Pending bool                     `json:"pending,omitempty"`
}

type Export struct {
	Data        []byte
	Filename    string
	ContentType string
	Rows        int
}

type HistoryService interface {
	Screen(ws *store.Workspace, k Kind) Screen
	Fetch(ctx context.Context, ws *store.Workspace, k Kind) (Screen, error)
	UpdateFilters(ctx context.Context, ws *store.Workspace, k Kind, update FilterUpdate) (Screen, error)
	ApplyQuickRange(ctx context.Context, ws *store.Workspace, k Kind, r grid.QuickRange) (Screen, error)
	Export(ctx context.Context, ws *store.Workspace, k Kind, format string, currentPage bool) (*Export, error)
}

type HistoryServiceImpl struct {
	Client   *upstream.Client
	Sessions session.Service
	Logger   *zap.Logger
	debounce time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func NewHistoryService(client *upstream.Client, sessions session.Service, cfg *config.Config, logger *zap.Logger) HistoryService {
	return &HistoryServiceImpl{
		Client:   client,
		Sessions: sessions,
		Logger:   logger.Named("history"),
		debounce: cfg.GridDebounce,
		timeout:  cfg.UpstreamTimeout,
		now:      time.Now,
	}
}

func (s *HistoryServiceImpl) defaults() Filters {
	r, _ := grid.RangeLast30Days.Resolve(s.now())
	return Filters{
		States:    []string{},
		Districts: []string{},
		StartDate: r.Start,
		EndDate:   r.End,
		Grid:      grid.Query{Page: 1, PageSize: grid.DefaultPageSize},
	}
}

func (s *HistoryServiceImpl) filters(ws *store.Workspace, k Kind) Filters {
	slot := store.SlotOf[Filters](ws, k.filtersSlot())
	if f, ok := slot.Get(); ok {
		return f
	}
	f := s.defaults()
	slot.Set(f)
	return f
}

func (s *HistoryServiceImpl) Screen(ws *store.Workspace, k Kind) Screen {
	return Screen{
		History: k.Name,
		Filters: s.filters(ws, k),
		State:   store.SliceOf[models.Page](ws, k.sliceName()).Snapshot(),
	}
}

// params renders the filters as upstream query parameters. Empty region sets are left
// out, which the API reads as every state or district.
func params(f Filters, paged bool) url.Values {
	q := f.Grid
	if !paged {
		q.Page, q.PageSize = 0, 0
	}
	v := q.Values()
	if len(f.States) > 0 {
		v.Set("states", strings.Join(f.States, ","))
	}
	if len(f.Districts) > 0 {
		v.Set("districts", strings.Join(f.Districts, ","))
	}
	v.Set("startDate", f.StartDate)
	v.Set("endDate", f.EndDate)
	return v
}

func (s *HistoryServiceImpl) Fetch(ctx context.Context, ws *store.Workspace, k Kind) (Screen, error) {
	query := params(s.filters(ws, k), true)
	_, err := store.Run(ctx, store.SliceOf[models.Page](ws, k.sliceName()), "Failed to fetch history", func(ctx context.Context) (models.Page, error) {
		var page models.Page
		if err := s.Client.Get(ctx, k.BasePath, query, &page); err != nil {
			return models.Page{}, err
		}
		if page.Data == nil {
			page.Data = []map[string]any{}
		}
		return page, nil
	})
	return s.Screen(ws, k), err
}

// UpdateFilters applies a filter change. On a debounced listing a change touching only
// the grid query is refetched after the debounce delay, with the last change winning;
// every other change refetches at once.
func (s *HistoryServiceImpl) UpdateFilters(ctx context.Context, ws *store.Workspace, k Kind, update FilterUpdate) (Screen, error) {
	next := s.filters(ws, k)
	regionOrDates := false

	if update.States != nil {
		next.States = report.HandleMultiSelect(update.States, report.AllStates)
		regionOrDates = true
	}
	if update.Districts != nil {
		next.Districts = report.HandleMultiSelect(update.Districts, report.AllDistricts)
		regionOrDates = true
	}
	if update.StartDate != nil {
		next.StartDate = *update.StartDate
		regionOrDates = true
	}
	if update.EndDate != nil {
		next.EndDate = *update.EndDate
		regionOrDates = true
	}
	if update.Page != nil {
		next.Grid.Page = *update.Page
	}
	if update.PageSize != nil {
		next.Grid.PageSize = *update.PageSize
	}
	if update.SortField != nil {
		next.Grid.SortField = *update.SortField
	}
	if update.SortOrder != nil {
		next.Grid.SortOrder = *update.SortOrder
	}
	if update.FilterModel != nil {
		next.Grid.Filter = *update.FilterModel
		next.Grid.Page = 1
	}
	next.Grid = next.Grid.Normalize()

	if err := (grid.DateRange{Start: next.StartDate, End: next.EndDate}).Validate(); err != nil {
		return s.Screen(ws, k), validation.Errors{"endDate": err.Error()}
	}
	store.SlotOf[Filters](ws, k.filtersSlot()).Set(next)

	if k.Debounced && !regionOrDates && update.FilterModel != nil {
		s.schedule(ctx, ws, k)
		screen := s.Screen(ws, k)
		screen.Pending = true
		return screen, nil
	}
	return s.Fetch(ctx, ws, k)
}

// schedule runs the fetch after the debounce delay, outside any request. A token the
// upstream API rejects by then logs the session out, as the session guard would.
func (s *HistoryServiceImpl) schedule(ctx context.Context, ws *store.Workspace, k Kind) {
	if ws.Closed() {
		return
	}
	debouncer := store.Attach(ws, k.debouncerName(), func() *grid.Debouncer {
		return grid.NewDebouncer(s.debounce)
	})
	detached := context.WithoutCancel(ctx)
	debouncer.Trigger(func() {
		if ws.Closed() {
			return
		}
		ctx, cancel := context.WithTimeout(detached, s.timeout)
		defer cancel()

		_, err := s.Fetch(ctx, ws, k)
		switch {
		case err == nil, errors.Is(err, store.ErrSuperseded):
		case upstream.IsUnauthorized(err):
			s.Logger.Info("upstream revoked token during debounced fetch", zap.String("session_id", ws.SessionID()), zap.String("history", k.Name))
			if err := s.Sessions.Destroy(ctx, ws.SessionID()); err != nil {
				s.Logger.Error("failed to destroy session", zap.String("session_id", ws.SessionID()), zap.Error(err))
			}
		default:
			s.Logger.Warn("debounced history fetch failed", zap.String("session_id", ws.SessionID()), zap.String("history", k.Name), zap.Error(err))
		}
	})
}

func (s *HistoryServiceImpl) ApplyQuickRange(ctx context.Context, ws *store.Workspace, k Kind, r grid.QuickRange) (Screen, error) {
	bounds, err := r.Resolve(s.now())
	if err != nil {
		return s.Screen(ws, k), validation.Errors{"range": err.Error()}
	}
	return s.UpdateFilters(ctx, ws, k, FilterUpdate{StartDate: &bounds.Start, EndDate: &bounds.End})
}

// Export renders the full filtered range from the export endpoint, or only the loaded
// page when currentPage is set.
func (s *HistoryServiceImpl) Export(ctx context.Context, ws *store.Workspace, k Kind, format string, currentPage bool) (*Export, error) {
	f := s.filters(ws, k)

	var rows []map[string]any
	if currentPage {
		rows = store.SliceOf[models.Page](ws, k.sliceName()).Snapshot().Data.Data
	} else {
		var page models.Page
		if err := s.Client.Get(ctx, upstream.ExportPath(k.BasePath), params(f, false), &page); err != nil {
			return nil, err
		}
		rows = page.Data
	}

	columns := k.Columns
	if len(columns) == 0 {
		columns = grid.ColumnsOf(rows)
	}
	r := grid.DateRange{Start: f.StartDate, End: f.EndDate}

	switch format {
	case "", "csv":
		var buf bytes.Buffer
		if err := grid.WriteCSV(&buf, columns, rows); err != nil {
			return nil, err
		}
		return &Export{
			Data:        buf.Bytes(),
			Filename:    grid.ExportFilename(k.Name, f.States, f.Districts, r, s.now(), "csv"),
			ContentType: "text/csv; charset=utf-8",
			Rows:        len(rows),
		}, nil
	case "xlsx":
		data, err := grid.WriteXLSX("History", columns, rows)
		if err != nil {
			return nil, err
		}
		return &Export{
			Data:        data,
			Filename:    grid.ExportFilename(k.Name, f.States, f.Districts, r, s.now(), "xlsx"),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Rows:        len(rows),
		}, nil
	}
	return nil, validation.Errors{"format": "must be one of: csv xlsx"}
}
