package grid

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Column is one exported column: the row key and its header text.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// ColumnsOf derives columns from the first row when the caller has no catalog, sorted
// for a stable layout.
func ColumnsOf(rows []map[string]any) []Column {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Key: k, Header: k}
	}
	return cols
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a UTF-8 CSV with a byte order mark. Every field is quoted.
func WriteCSV(w io.Writer, columns []Column, rows []map[string]any) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := writeQuoted(w, header); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = FormatValue(row[col.Key])
		}
		if err := writeQuoted(w, record); err != nil {
			return err
		}
	}
	return nil
}

func writeQuoted(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteXLSX renders rows into a single-sheet workbook with a bold header row.
func WriteXLSX(sheetName string, columns []Column, rows []map[string]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Report"
	}
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range rows {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			switch v := row[col.Key].(type) {
			case nil:
			case float64, int, int64, bool:
				f.SetCellValue(sheetName, cell, v)
			default:
				f.SetCellValue(sheetName, cell, FormatValue(v))
			}
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// ExportFilename builds <history>_<states>_<districts>_<start>_to_<end>_<YYYY-MM-DD>.<ext>.
// Empty selections are written as All-States and All-Districts.
func ExportFilename(history string, states, districts []string, r DateRange, today time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s_%s_to_%s_%s.%s",
		history,
		selectionLabel(states, "All-States"),
		selectionLabel(districts, "All-Districts"),
		r.Start, r.End,
		today.Format(DateLayout),
		ext,
	)
}

func selectionLabel(values []string, all string) string {
	if len(values) == 0 {
		return all
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strings.Join(strings.Fields(v), "-"))
	}
	return strings.Join(parts, "-")
}
