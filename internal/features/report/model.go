package report

import (
	"encoding/json"
	"fmt"

	"padtracker-console/internal/common/models"
)

type ReportType string

const (
	MachineWise  ReportType = "machine-wise"
	SchoolWise   ReportType = "school-wise"
	DistrictWise ReportType = "district-wise"
	StateWise    ReportType = "state-wise"
)

var ReportTypes = []ReportType{MachineWise, SchoolWise, DistrictWise, StateWise}

func ParseReportType(s string) (ReportType, error) {
	for _, t := range ReportTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// Path is the upstream endpoint computing this report.
func (t ReportType) Path() string {
	return "/reports/" + string(t)
}

func (t ReportType) Title() string {
	switch t {
	case MachineWise:
		return "Machine-wise Report"
	case SchoolWise:
		return "School-wise Report"
	case DistrictWise:
		return "District-wise Report"
	case StateWise:
		return "State-wise Report"
	}
	panic(fmt.Sprintf("report: unhandled report type %q", string(t)))
}

type DispenseType string

const (
	DispenseAll  DispenseType = "all"
	DispenseCoin DispenseType = "coin"
	DispenseCard DispenseType = "card"
	DispenseFree DispenseType = "free"
)

// Result is computed entirely upstream.
type Result struct {
	Data    []map[string]any `json:"data"`
	Summary map[string]any   `json:"summary"`
}

// SavedReport is a persisted filter set plus the summary it produced when saved.
type SavedReport struct {
	ID          models.RecordID `json:"id,omitempty"`
	ReportName  string          `json:"reportName" validate:"required"`
	Description string          `json:"description,omitempty"`
	ReportType  ReportType      `json:"reportType" validate:"required"`
	Filters     json.RawMessage `json:"filters"`
	Summary     map[string]any  `json:"summary"`
	CreatedBy   any             `json:"createdBy,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
}

// Route is the report screen currently shown to a session. SavedID is empty for an ad hoc
// report.
type Route struct {
	Type    ReportType `json:"reportType"`
	SavedID string     `json:"savedReportId,omitempty"`
}

// Workspace entry names shared with the saved-report screens.
const (
	SlotRoute       = "report:route"
	SlotSelected    = "selectedSavedReport"
	SlotSaveDialog  = "report:saveDialog"
	sliceResultPref = "report:"
	slotFilterPref  = "report:filters:"
)

func ResultSlice(t ReportType) string    { return sliceResultPref + string(t) }
func FiltersSlot(t ReportType) string    { return slotFilterPref + string(t) }
func SavedListSlice(t ReportType) string { return "savedReports:" + string(t) }
