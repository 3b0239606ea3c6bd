package report

import (
	"encoding/json"
	"fmt"
	"time"

	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/features/grid"
)

const (
	AllStates    = "All States"
	AllDistricts = "All Districts"
	AllValue     = "all"
)

// BaseFilters is shared by every report type. Empty state and district sets mean no
// restriction.
type BaseFilters struct {
	SelectedStates    []string        `json:"selectedStates"`
	SelectedDistricts []string        `json:"selectedDistricts"`
	StartDate         string          `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate           string          `json:"endDate" validate:"required,datetime=2006-01-02"`
	DispenseType      DispenseType    `json:"dispenseType" validate:"oneof=all coin card free"`
	IncludeColumns    map[string]bool `json:"includeColumns"`
}

type MachineWiseFilters struct {
	BaseFilters
	MachineStatus string `json:"machineStatus" validate:"oneof=all active inactive faulty"`
}

type SchoolWiseFilters struct {
	BaseFilters
	SchoolCategory string `json:"schoolCategory" validate:"oneof=all primary upper-primary secondary higher-secondary"`
}

type DistrictWiseFilters struct {
	BaseFilters
}

type StateWiseFilters struct {
	BaseFilters
}

// Filters is the filter set of one report type.
type Filters interface {
	Type() ReportType
	Base() *BaseFilters
	extras() map[string]any
}

func (f *MachineWiseFilters) Type() ReportType  { return MachineWise }
func (f *SchoolWiseFilters) Type() ReportType   { return SchoolWise }
func (f *DistrictWiseFilters) Type() ReportType { return DistrictWise }
func (f *StateWiseFilters) Type() ReportType    { return StateWise }

func (f *BaseFilters) Base() *BaseFilters { return f }

func (f *MachineWiseFilters) extras() map[string]any {
	return map[string]any{"machineStatus": f.MachineStatus}
}

func (f *SchoolWiseFilters) extras() map[string]any {
	return map[string]any{"schoolCategory": f.SchoolCategory}
}

func (f *DistrictWiseFilters) extras() map[string]any { return nil }
func (f *StateWiseFilters) extras() map[string]any    { return nil }

func newFilters(t ReportType) Filters {
	switch t {
	case MachineWise:
		return &MachineWiseFilters{}
	case SchoolWise:
		return &SchoolWiseFilters{}
	case DistrictWise:
		return &DistrictWiseFilters{}
	case StateWise:
		return &StateWiseFilters{}
	}
	panic(fmt.Sprintf("report: unhandled report type %q", string(t)))
}

// BuildDefaultFilters returns the canonical filter set: every state and district, the 31
// days ending yesterday, every dispense type and every catalog column.
func BuildDefaultFilters(t ReportType, today time.Time) Filters {
	day := grid.Day(today)
	base := BaseFilters{
		SelectedStates:    []string{},
		SelectedDistricts: []string{},
		StartDate:         day.AddDate(0, 0, -31).Format(grid.DateLayout),
		EndDate:           day.AddDate(0, 0, -1).Format(grid.DateLayout),
		DispenseType:      DispenseAll,
		IncludeColumns:    CatalogFor(t).DefaultInclude(),
	}
	switch t {
	case MachineWise:
		return &MachineWiseFilters{BaseFilters: base, MachineStatus: AllValue}
	case SchoolWise:
		return &SchoolWiseFilters{BaseFilters: base, SchoolCategory: AllValue}
	case DistrictWise:
		return &DistrictWiseFilters{BaseFilters: base}
	case StateWise:
		return &StateWiseFilters{BaseFilters: base}
	}
	panic(fmt.Sprintf("report: unhandled report type %q", string(t)))
}

// MergeFilters overlays a stored filter set on the defaults of its report type. The merge
// is one level deep: a stored includeColumns map replaces the default map entirely.
func MergeFilters(saved json.RawMessage, t ReportType, today time.Time) (Filters, error) {
	return PatchFilters(BuildDefaultFilters(t, today), saved)
}

// PatchFilters overlays the top-level keys present in patch on current.
func PatchFilters(current Filters, patch json.RawMessage) (Filters, error) {
	patch, err := unwrapBlob(patch)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	if len(patch) > 0 {
		overlay := map[string]json.RawMessage{}
		if err := json.Unmarshal(patch, &overlay); err != nil {
			return nil, validation.Errors{"filters": "must be a JSON object"}
		}
		for k, v := range overlay {
			merged[k] = v
		}
	}

	combined, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	out := newFilters(current.Type())
	if err := json.Unmarshal(combined, out); err != nil {
		return nil, validation.Errors{"filters": "has a field of the wrong type: " + err.Error()}
	}
	return out, nil
}

// unwrapBlob accepts filters stored either as an object or as a JSON-encoded string of
// one, and treats null as empty.
func unwrapBlob(b json.RawMessage) (json.RawMessage, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	if b[0] != '"' {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode filters string: %w", err)
	}
	if s == "" {
		return nil, nil
	}
	return json.RawMessage(s), nil
}

// ToQueryPayload is the body posted to the report endpoint.
func ToQueryPayload(f Filters) map[string]any {
	base := f.Base()
	payload := map[string]any{
		"states":       orEmpty(base.SelectedStates),
		"districts":    orEmpty(base.SelectedDistricts),
		"startDate":    base.StartDate,
		"endDate":      base.EndDate,
		"dispenseType": string(base.DispenseType),
	}
	for k, v := range f.extras() {
		payload[k] = v
	}
	return payload
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// HandleMultiSelect applies a new selection. A selection containing the sentinel collapses
// to the empty set, which means no restriction.
func HandleMultiSelect(values []string, sentinel string) []string {
	for _, v := range values {
		if v == sentinel {
			return []string{}
		}
	}
	return orEmpty(values)
}

// Validate checks the filter set before it is sent upstream.
func Validate(f Filters) error {
	if err := validation.Struct(f); err != nil {
		return err
	}
	base := f.Base()
	r := grid.DateRange{Start: base.StartDate, End: base.EndDate}
	if err := r.Validate(); err != nil {
		return validation.Errors{"endDate": "must not be before startDate"}
	}
	return nil
}
