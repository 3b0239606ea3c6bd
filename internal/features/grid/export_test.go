package grid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteCSV(t *testing.T) {
	cols := []Column{{Key: "machine", Header: "Machine"}, {Key: "qty", Header: "Quantity"}}
	rows := []map[string]any{
		{"machine": `VM "North" 1`, "qty": float64(3)},
		{"machine": "VM-2", "qty": nil},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cols, rows))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM), "missing byte order mark")

	lines := strings.Split(strings.TrimRight(string(out[len(utf8BOM):]), "\r\n"), "\r\n")
	assert.Equal(t, []string{
		`"Machine","Quantity"`,
		`"VM ""North"" 1","3"`,
		`"VM-2",""`,
	}, lines)
}

func TestWriteCSVRowCountMatchesRows(t *testing.T) {
	for _, n := range []int{0, 1, 25, 137} {
		rows := make([]map[string]any, n)
		for i := range rows {
			rows[i] = map[string]any{"id": float64(i)}
		}
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, []Column{{Key: "id", Header: "ID"}}, rows))
		lines := strings.Count(buf.String(), "\r\n")
		assert.Equal(t, n+1, lines, "header plus one line per row")
	}
}

func TestWriteXLSX(t *testing.T) {
	cols := []Column{{Key: "state", Header: "State"}, {Key: "total", Header: "Total"}}
	rows := []map[string]any{{"state": "Kerala", "total": float64(42)}}

	data, err := WriteXLSX("Dispense", cols, rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Dispense", "A1")
	require.NoError(t, err)
	assert.Equal(t, "State", header)

	total, err := f.GetCellValue("Dispense", "B2")
	require.NoError(t, err)
	assert.Equal(t, "42", total)
}

func TestExportFilename(t *testing.T) {
	today := time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)
	r := DateRange{Start: "2024-03-01", End: "2024-03-31"}

	assert.Equal(t,
		"dispense-history_All-States_All-Districts_2024-03-01_to_2024-03-31_2024-04-02.csv",
		ExportFilename("dispense-history", nil, nil, r, today, "csv"))

	assert.Equal(t,
		"refill-history_Tamil-Nadu-Kerala_Chennai_2024-03-01_to_2024-03-31_2024-04-02.csv",
		ExportFilename("refill-history", []string{"Tamil Nadu", "Kerala"}, []string{"Chennai"}, r, today, "csv"))
}
