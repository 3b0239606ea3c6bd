package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"padtracker-console/internal/config"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reportUpstream struct {
	mu       sync.Mutex
	payloads []map[string]any
	status   int
}

func (u *reportUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	u.payloads = append(u.payloads, payload)
	if u.status != 0 {
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(`{"message":"Report engine offline"}`))
		return
	}
	_, _ = w.Write([]byte(`{"data":[{"machineId":"VM-1","coinDispensed":3}],"summary":{"totalMachines":1,"totalCoin":3}}`))
}

func (u *reportUpstream) last() map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.payloads[len(u.payloads)-1]
}

func newTestReportService(t *testing.T, u http.Handler) *ReportServiceImpl {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)
	client := upstream.NewClient(&config.Config{UpstreamURL: srv.URL, UpstreamTimeout: 5 * time.Second}, zap.NewNop(), nil)
	svc := NewReportService(client, zap.NewNop()).(*ReportServiceImpl)
	svc.now = func() time.Time { return today }
	return svc
}

func TestRunLoadsReport(t *testing.T) {
	u := &reportUpstream{}
	svc := newTestReportService(t, u)
	ws := store.NewWorkspace("s1")

	screen, err := svc.Run(context.Background(), ws, MachineWise)
	require.NoError(t, err)
	assert.Equal(t, store.StatusLoaded, screen.State.Status)
	require.NotNil(t, screen.View)
	assert.Len(t, screen.View.Rows, 1)
	assert.Equal(t, "2025-03-10", u.last()["startDate"])
	assert.Equal(t, "all", u.last()["machineStatus"])
}

func TestRunFailureKeepsPreviousResult(t *testing.T) {
	u := &reportUpstream{}
	svc := newTestReportService(t, u)
	ws := store.NewWorkspace("s1")

	_, err := svc.Run(context.Background(), ws, SchoolWise)
	require.NoError(t, err)

	u.status = http.StatusInternalServerError
	screen, err := svc.Run(context.Background(), ws, SchoolWise)
	require.Error(t, err)
	assert.Equal(t, "Report engine offline", screen.State.Error)
	assert.Len(t, screen.State.Data.Data, 1)
}

func TestInvalidFiltersNeverReachUpstream(t *testing.T) {
	u := &reportUpstream{}
	svc := newTestReportService(t, u)
	ws := store.NewWorkspace("s1")

	_, err := svc.UpdateFilters(context.Background(), ws, StateWise, json.RawMessage(`{"startDate":"2025-05-01","endDate":"2025-04-01"}`))
	require.Error(t, err)
	assert.Empty(t, u.payloads)
	assert.Equal(t, "2025-03-10", svc.Filters(ws, StateWise).Base().StartDate)
}

func TestSelectRegionCollapsesSentinel(t *testing.T) {
	u := &reportUpstream{}
	svc := newTestReportService(t, u)
	ws := store.NewWorkspace("s1")

	screen, err := svc.SelectRegion(context.Background(), ws, DistrictWise, "states", []string{"Kerala", "Goa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kerala", "Goa"}, screen.Filters.Base().SelectedStates)

	screen, err = svc.SelectRegion(context.Background(), ws, DistrictWise, "states", []string{"Kerala", AllStates})
	require.NoError(t, err)
	assert.Empty(t, screen.Filters.Base().SelectedStates)
	assert.Equal(t, []any{}, u.last()["states"])

	_, err = svc.SelectRegion(context.Background(), ws, DistrictWise, "blocks", nil)
	assert.Error(t, err)
}

func TestApplyQuickRange(t *testing.T) {
	u := &reportUpstream{}
	svc := newTestReportService(t, u)
	ws := store.NewWorkspace("s1")

	screen, err := svc.ApplyQuickRange(context.Background(), ws, MachineWise, "last7Days")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-04", screen.Filters.Base().StartDate)
	assert.Equal(t, "2025-04-10", screen.Filters.Base().EndDate)
}

func TestEnterRouteClearsSavedReportState(t *testing.T) {
	u := &reportUpstream{}
	svc := newTestReportService(t, u)
	ws := store.NewWorkspace("s1")

	svc.EnterRoute(ws, Route{Type: MachineWise, SavedID: "7"})
	store.SlotOf[SavedReport](ws, SlotSelected).Set(SavedReport{ID: "7", ReportType: MachineWise, ReportName: "Q1 Report"})
	f := BuildDefaultFilters(MachineWise, today)
	f.Base().SelectedStates = []string{"Kerala"}
	svc.SetFilters(ws, f)
	_, err := svc.Run(context.Background(), ws, MachineWise)
	require.NoError(t, err)
	assert.NotNil(t, svc.Screen(ws, MachineWise).SelectedSavedReport)

	svc.EnterRoute(ws, Route{Type: SchoolWise})

	_, ok := store.SlotOf[SavedReport](ws, SlotSelected).Get()
	assert.False(t, ok)
	screen := svc.Screen(ws, MachineWise)
	assert.Equal(t, store.StatusIdle, screen.State.Status)
	assert.Empty(t, screen.Filters.Base().SelectedStates)
}

func TestEnterRouteSameRouteKeepsState(t *testing.T) {
	svc := newTestReportService(t, &reportUpstream{})
	ws := store.NewWorkspace("s1")

	svc.EnterRoute(ws, Route{Type: MachineWise})
	_, err := svc.Run(context.Background(), ws, MachineWise)
	require.NoError(t, err)
	svc.EnterRoute(ws, Route{Type: MachineWise})
	assert.Equal(t, store.StatusLoaded, svc.Screen(ws, MachineWise).State.Status)
}

func TestExport(t *testing.T) {
	svc := newTestReportService(t, &reportUpstream{})
	ws := store.NewWorkspace("s1")

	_, _, err := svc.Export(ws, MachineWise, "pdf")
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = svc.Run(context.Background(), ws, MachineWise)
	require.NoError(t, err)

	data, name, err := svc.Export(ws, MachineWise, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "machine-wise_2025-03-10_to_2025-04-09.pdf", name)
	assert.Equal(t, "%PDF", string(data[:4]))

	data, name, err = svc.Export(ws, MachineWise, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "machine-wise_2025-03-10_to_2025-04-09.xlsx", name)
	assert.NotEmpty(t, data)

	_, _, err = svc.Export(ws, MachineWise, "docx")
	assert.Error(t, err)
}
