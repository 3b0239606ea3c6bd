package resource

import (
	"context"
	"net/http"
	"testing"
	"time"

	"padtracker-console/internal/common/models"
	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/config"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/store"
	"padtracker-console/internal/tests/upstreamfake"
	"padtracker-console/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMachineService(t *testing.T) (*Service[VendingMachine], *upstreamfake.Server) {
	t.Helper()
	fake := upstreamfake.New(t)
	client := upstream.NewClient(&config.Config{UpstreamURL: fake.URL, UpstreamTimeout: 5 * time.Second}, zap.NewNop(), nil)
	deriver, err := grid.NewDeriver(grid.DefaultDisplayRules()[KindVendingMachines.Name])
	require.NoError(t, err)
	return NewService[VendingMachine](KindVendingMachines, client, zap.NewNop(), deriver), fake
}

func intPtr(v int) *int { return &v }

func idPtr(v string) *models.RecordID {
	id := models.RecordID(v)
	return &id
}

func TestFetchAndDerivedColumns(t *testing.T) {
	svc, fake := newMachineService(t)
	fake.SetRecords("/vending-machines", []map[string]any{
		{"id": 1, "machineId": "VM-1", "status": "active", "stockLevel": 50, "schoolId": 9},
		{"id": 2, "machineId": "VM-2", "status": "Faulty", "stockLevel": 50},
		{"id": 3, "machineId": "VM-3", "status": "active", "stockLevel": 5},
		{"id": 4, "machineId": "VM-4", "status": "active"},
	})
	ws := store.NewWorkspace("s1")

	state, err := svc.Fetch(context.Background(), ws, nil)
	require.NoError(t, err)
	require.Len(t, state.Data, 4)
	assert.Equal(t, "1", state.Data[0].ID.String(), "numeric ids are accepted")
	assert.Equal(t, []VendingMachine{state.Data[1], state.Data[2], state.Data[3]}, UnallocatedMachines(state.Data))

	rows, err := svc.Rows(state.Data)
	require.NoError(t, err)
	var dots []any
	for _, row := range rows {
		dots = append(dots, row["statusDot"])
	}
	assert.Equal(t, []any{"green", "red", "amber", "grey"}, dots)
	assert.Equal(t, true, rows[0]["allocated"])
	assert.Equal(t, false, rows[1]["allocated"])
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	svc, fake := newMachineService(t)
	ws := store.NewWorkspace("s1")
	ctx := context.Background()

	state, err := svc.Save(ctx, ws, VendingMachine{MachineID: "VM-9", Status: "active", StockLevel: intPtr(30)})
	require.NoError(t, err)
	require.Len(t, state.Data, 1)
	created := state.Data[0]
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "Vending machine created successfully", state.SuccessMessage)

	created.SchoolID = idPtr("12")
	state, err = svc.Save(ctx, ws, created)
	require.NoError(t, err)
	require.Len(t, state.Data, 1)
	assert.True(t, state.Data[0].Allocated())
	assert.Equal(t, 1, fake.CountCalls(http.MethodPut, upstream.UpdatePath("/vending-machines", created.ID.String())))
}

func TestSaveValidatesBeforeDispatch(t *testing.T) {
	svc, fake := newMachineService(t)
	_, err := svc.Save(context.Background(), store.NewWorkspace("s1"), VendingMachine{Status: "broken", StockLevel: intPtr(-1)})
	var fields validation.Errors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "machineId")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "stockLevel")
	assert.Empty(t, fake.Calls())
}

func TestDelete(t *testing.T) {
	svc, fake := newMachineService(t)
	fake.SetRecords("/vending-machines", []map[string]any{
		{"id": "a", "machineId": "VM-1", "status": "active"},
		{"id": "b", "machineId": "VM-2", "status": "active"},
	})
	ws := store.NewWorkspace("s1")
	ctx := context.Background()
	_, err := svc.Fetch(ctx, ws, nil)
	require.NoError(t, err)

	fake.Fail(http.MethodDelete, "/vending-machines/a", http.StatusConflict)
	state, err := svc.Delete(ctx, ws, "a")
	require.Error(t, err)
	assert.Len(t, state.Data, 2)
	assert.Equal(t, "Upstream failure 409", state.Error)

	fake.Fail(http.MethodDelete, "/vending-machines/a", 0)
	state, err = svc.Delete(ctx, ws, "a")
	require.NoError(t, err)
	require.Len(t, state.Data, 1)
	assert.Equal(t, "b", state.Data[0].ID.String())
	assert.Equal(t, "Deleted", state.SuccessMessage)
}

func TestDecodeWithID(t *testing.T) {
	rec, err := decodeWithID[School]([]byte(`{"schoolName":"GHS","state":"Kerala","district":"Kollam"}`), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID.String())

	_, err = decodeWithID[School]([]byte(`{"id":8,"schoolName":"GHS"}`), "7")
	assert.Error(t, err)

	_, err = decodeWithID[School]([]byte(`not json`), "7")
	assert.Error(t, err)
}
