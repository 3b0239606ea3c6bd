package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"padtracker-console/internal/features/grid"

	"github.com/phpdave11/gofpdf"
)

// RenderPDF lays out the visible part of a report: title, active filters, summary and rows.
func RenderPDF(title string, f Filters, view View, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(usable, 9, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, line := range filterLines(f) {
		pdf.CellFormat(usable, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(usable, 5, "Generated "+generatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(view.Summary) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(usable, 7, "Summary", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, s := range view.Summary {
			pdf.CellFormat(60, 6, tr(s.Label), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, tr(grid.FormatValue(s.Value)), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(view.Columns) > 0 {
		colW := usable / float64(len(view.Columns))
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(224, 224, 224)
		for _, col := range view.Columns {
			pdf.CellFormat(colW, 7, tr(col.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range view.Rows {
			for _, col := range view.Columns {
				pdf.CellFormat(colW, 6, tr(clip(grid.FormatValue(row[col.Key]), 40)), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func filterLines(f Filters) []string {
	base := f.Base()
	lines := []string{
		"States: " + joinOrAll(base.SelectedStates, AllStates),
		"Districts: " + joinOrAll(base.SelectedDistricts, AllDistricts),
		fmt.Sprintf("Period: %s to %s", base.StartDate, base.EndDate),
		"Dispense type: " + string(base.DispenseType),
	}
	switch v := f.(type) {
	case *MachineWiseFilters:
		lines = append(lines, "Machine status: "+v.MachineStatus)
	case *SchoolWiseFilters:
		lines = append(lines, "School category: "+v.SchoolCategory)
	}
	return lines
}

func joinOrAll(values []string, all string) string {
	if len(values) == 0 {
		return all
	}
	return strings.Join(values, ", ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
