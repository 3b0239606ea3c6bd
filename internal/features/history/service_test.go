package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"testing"
	"time"

	"padtracker-console/internal/config"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/session"
	"padtracker-console/internal/store"
	"padtracker-console/internal/tests/upstreamfake"
	"padtracker-console/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var today = time.Date(2025, time.April, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*HistoryServiceImpl, *upstreamfake.Server) {
	t.Helper()
	svc, fake, _ := newTestFixture(t)
	return svc, fake
}

func newTestFixture(t *testing.T) (*HistoryServiceImpl, *upstreamfake.Server, *store.Registry) {
	t.Helper()
	fake := upstreamfake.New(t)
	cfg := &config.Config{
		UpstreamURL:     fake.URL,
		UpstreamTimeout: 5 * time.Second,
		GridDebounce:    20 * time.Millisecond,
		JWTSecret:       "history-secret",
		SessionTTL:      time.Hour,
	}
	workspaces := store.NewRegistry()
	t.Cleanup(workspaces.CloseAll)
	client := upstream.NewClient(cfg, zap.NewNop(), session.TokenFromContext)
	sessions := session.NewService(session.NewMemoryStore(), workspaces, client, cfg, zap.NewNop())
	svc := NewHistoryService(client, sessions, cfg, zap.NewNop()).(*HistoryServiceImpl)
	svc.now = func() time.Time { return today }
	return svc, fake, workspaces
}

func seedRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{
			"date": "2025-04-01", "machineId": fmt.Sprintf("VM-%d", i), "schoolName": "GHS, Kollam",
			"district": "Kollam", "state": "Kerala", "dispenseType": "coin", "quantity": 1, "amount": 5,
		}
	}
	return rows
}

func TestDefaultsAreLast30Days(t *testing.T) {
	svc, _ := newTestService(t)
	screen := svc.Screen(store.NewWorkspace("s1"), Dispense)
	assert.Equal(t, "2025-03-12", screen.Filters.StartDate)
	assert.Equal(t, "2025-04-10", screen.Filters.EndDate)
	assert.Equal(t, 1, screen.Filters.Grid.Page)
}

func TestFetchSendsFilters(t *testing.T) {
	svc, fake := newTestService(t)
	fake.SetRecords("/dispense-history", seedRows(3))
	ws := store.NewWorkspace("s1")

	screen, err := svc.UpdateFilters(context.Background(), ws, Dispense, FilterUpdate{States: []string{"Kerala", "Tamil Nadu"}})
	require.NoError(t, err)
	assert.Len(t, screen.State.Data.Data, 3)
	assert.Equal(t, int64(3), screen.State.Data.Total)

	call, ok := fake.LastCall(http.MethodGet, "/dispense-history")
	require.True(t, ok)
	assert.Equal(t, "Kerala,Tamil Nadu", call.Query.Get("states"))
	assert.Empty(t, call.Query.Get("districts"))
	assert.Equal(t, "2025-03-12", call.Query.Get("startDate"))
	assert.Equal(t, "1", call.Query.Get("page"))
}

func TestQuickRangeLast7Days(t *testing.T) {
	svc, fake := newTestService(t)
	ws := store.NewWorkspace("s1")

	screen, err := svc.ApplyQuickRange(context.Background(), ws, Dispense, grid.RangeLast7Days)
	require.NoError(t, err)
	assert.False(t, screen.Pending)

	call, ok := fake.LastCall(http.MethodGet, "/dispense-history")
	require.True(t, ok)
	assert.Equal(t, "2025-04-04", call.Query.Get("startDate"))
	assert.Equal(t, "2025-04-10", call.Query.Get("endDate"))
}

func TestInvalidRangeIsRejected(t *testing.T) {
	svc, fake := newTestService(t)
	start := "2025-05-01"
	_, err := svc.UpdateFilters(context.Background(), store.NewWorkspace("s1"), Refill, FilterUpdate{StartDate: &start})
	assert.Error(t, err)
	assert.Empty(t, fake.Calls())
}

func TestGridFilterChangesAreDebounced(t *testing.T) {
	svc, fake := newTestService(t)
	ws := store.NewWorkspace("s1")
	defer ws.Close()

	for _, v := range []string{"V", "VM", "VM-1"} {
		screen, err := svc.UpdateFilters(context.Background(), ws, Dispense, FilterUpdate{
			FilterModel: &grid.FilterModel{Items: []grid.FilterItem{{Field: "machineId", Operator: "contains", Value: v}}},
		})
		require.NoError(t, err)
		assert.True(t, screen.Pending)
	}

	assert.Eventually(t, func() bool {
		return fake.CountCalls(http.MethodGet, "/dispense-history") == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, fake.CountCalls(http.MethodGet, "/dispense-history"), "only the last change is fetched")
	call, _ := fake.LastCall(http.MethodGet, "/dispense-history")
	assert.Equal(t, "VM-1", call.Query.Get("machineId_contains"))
}

func TestRefillFilterChangesFetchAtOnce(t *testing.T) {
	svc, fake := newTestService(t)
	screen, err := svc.UpdateFilters(context.Background(), store.NewWorkspace("s1"), Refill, FilterUpdate{
		FilterModel: &grid.FilterModel{Items: []grid.FilterItem{{Field: "machineId", Operator: "equals", Value: "VM-3"}}},
	})
	require.NoError(t, err)
	assert.False(t, screen.Pending)
	call, ok := fake.LastCall(http.MethodGet, "/refill-history")
	require.True(t, ok)
	assert.Equal(t, "VM-3", call.Query.Get("machineId"))
}

func TestExportCSV(t *testing.T) {
	svc, fake := newTestService(t)
	fake.SetRecords("/dispense-history", seedRows(4))
	ws := store.NewWorkspace("s1")

	_, err := svc.UpdateFilters(context.Background(), ws, Dispense, FilterUpdate{States: []string{"Tamil Nadu"}})
	require.NoError(t, err)

	export, err := svc.Export(context.Background(), ws, Dispense, "csv", false)
	require.NoError(t, err)
	assert.Equal(t, 4, export.Rows)
	assert.Equal(t, "dispense-history_Tamil-Nadu_All-Districts_2025-03-12_to_2025-04-10_2025-04-10.csv", export.Filename)

	_, ok := fake.LastCall(http.MethodGet, "/dispense-history/export-data")
	require.True(t, ok)

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(export.Data, []byte("\ufeff"))))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "Date", records[0][0])
	assert.Equal(t, "GHS, Kollam", records[1][2])
}

func TestExportCurrentPageXLSX(t *testing.T) {
	svc, fake := newTestService(t)
	fake.SetRecords("/refill-history", seedRows(2))
	ws := store.NewWorkspace("s1")

	_, err := svc.Fetch(context.Background(), ws, Refill)
	require.NoError(t, err)

	export, err := svc.Export(context.Background(), ws, Refill, "xlsx", true)
	require.NoError(t, err)
	assert.Equal(t, 2, export.Rows)
	assert.Equal(t, 0, fake.CountCalls(http.MethodGet, "/refill-history/export-data"))

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("History")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = svc.Export(context.Background(), ws, Refill, "pdf", true)
	assert.Error(t, err)
}

func TestDebouncedFetchRejectedUpstreamLogsOut(t *testing.T) {
	svc, fake, workspaces := newTestFixture(t)
	ctx := context.Background()
	sess, token, err := svc.Sessions.Create(ctx, session.Profile{Token: "up-1", Role: "admin"})
	require.NoError(t, err)
	ws := workspaces.Get(sess.ID)

	fake.Fail(http.MethodGet, "/dispense-history", http.StatusUnauthorized)
	screen, err := svc.UpdateFilters(session.WithSession(ctx, sess), ws, Dispense, FilterUpdate{
		FilterModel: &grid.FilterModel{Items: []grid.FilterItem{{Field: "machineId", Operator: "contains", Value: "VM"}}},
	})
	require.NoError(t, err)
	require.True(t, screen.Pending)

	assert.Eventually(t, ws.Closed, time.Second, 5*time.Millisecond)
	_, err = svc.Sessions.Resolve(ctx, token)
	assert.Error(t, err)
	assert.Equal(t, 0, workspaces.Len())
	assert.True(t, workspaces.Get(sess.ID).Closed(), "a dropped session does not get a fresh workspace")

	call, ok := fake.LastCall(http.MethodGet, "/dispense-history")
	require.True(t, ok)
	assert.Equal(t, "up-1", call.Token)
}

func TestDebouncedFetchSkipsDroppedWorkspace(t *testing.T) {
	svc, fake := newTestService(t)
	ws := store.NewWorkspace("s1")

	_, err := svc.UpdateFilters(context.Background(), ws, Dispense, FilterUpdate{
		FilterModel: &grid.FilterModel{Items: []grid.FilterItem{{Field: "machineId", Operator: "contains", Value: "VM"}}},
	})
	require.NoError(t, err)
	ws.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, fake.CountCalls(http.MethodGet, "/dispense-history"))
}

func TestExportIgnoresPageSize(t *testing.T) {
	svc, fake := newTestService(t)
	fake.SetRecords("/dispense-history", seedRows(7))
	ws := store.NewWorkspace("s1")

	pageSize := 2
	screen, err := svc.UpdateFilters(context.Background(), ws, Dispense, FilterUpdate{PageSize: &pageSize})
	require.NoError(t, err)
	require.Len(t, screen.State.Data.Data, 2)
	assert.Equal(t, int64(7), screen.State.Data.Total)

	tests := []struct {
		name        string
		currentPage bool
		rows        int
	}{
		{"full range", false, 7},
		{"current page", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			export, err := svc.Export(context.Background(), ws, Dispense, "csv", tt.currentPage)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, export.Rows)

			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(export.Data, []byte("\ufeff")))).ReadAll()
			require.NoError(t, err)
			assert.Len(t, records, tt.rows+1)
		})
	}

	call, ok := fake.LastCall(http.MethodGet, "/dispense-history/export-data")
	require.True(t, ok)
	assert.Empty(t, call.Query.Get("pageSize"))
}
