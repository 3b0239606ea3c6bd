package report

import (
	"fmt"
	"sort"

	"padtracker-console/internal/features/grid"
)

// SummaryField is a summary value. Column links it to the row column whose visibility it
// follows; an unlinked field is always shown.
type SummaryField struct {
	Key    string
	Label  string
	Column string
}

type Catalog struct {
	Columns []grid.Column
	Summary []SummaryField
}

var dispenseColumns = []grid.Column{
	{Key: "totalDispensed", Header: "Total Dispensed"},
	{Key: "coinDispensed", Header: "Coin"},
	{Key: "cardDispensed", Header: "Card"},
	{Key: "freeDispensed", Header: "Free"},
}

var dispenseSummary = []SummaryField{
	{Key: "totalDispensed", Label: "Total Dispensed", Column: "totalDispensed"},
	{Key: "totalCoin", Label: "Coin", Column: "coinDispensed"},
	{Key: "totalCard", Label: "Card", Column: "cardDispensed"},
	{Key: "totalFree", Label: "Free", Column: "freeDispensed"},
}

func withDispense(cols ...grid.Column) []grid.Column {
	return append(cols, dispenseColumns...)
}

var catalogs = map[ReportType]Catalog{
	MachineWise: {
		Columns: append(withDispense(
			grid.Column{Key: "machineId", Header: "Machine ID"},
			grid.Column{Key: "schoolName", Header: "School"},
			grid.Column{Key: "district", Header: "District"},
			grid.Column{Key: "state", Header: "State"},
			grid.Column{Key: "status", Header: "Status"},
		),
			grid.Column{Key: "refills", Header: "Refills"},
			grid.Column{Key: "currentStock", Header: "Current Stock"},
		),
		Summary: append([]SummaryField{
			{Key: "totalMachines", Label: "Machines"},
		}, append(dispenseSummary,
			SummaryField{Key: "totalRefills", Label: "Refills", Column: "refills"},
		)...),
	},
	SchoolWise: {
		Columns: withDispense(
			grid.Column{Key: "schoolName", Header: "School"},
			grid.Column{Key: "udiseCode", Header: "UDISE Code"},
			grid.Column{Key: "district", Header: "District"},
			grid.Column{Key: "state", Header: "State"},
			grid.Column{Key: "category", Header: "Category"},
			grid.Column{Key: "machineCount", Header: "Machines"},
		),
		Summary: append([]SummaryField{
			{Key: "totalSchools", Label: "Schools"},
			{Key: "totalMachines", Label: "Machines", Column: "machineCount"},
		}, dispenseSummary...),
	},
	DistrictWise: {
		Columns: withDispense(
			grid.Column{Key: "district", Header: "District"},
			grid.Column{Key: "state", Header: "State"},
			grid.Column{Key: "schoolCount", Header: "Schools"},
			grid.Column{Key: "machineCount", Header: "Machines"},
		),
		Summary: append([]SummaryField{
			{Key: "totalDistricts", Label: "Districts"},
			{Key: "totalSchools", Label: "Schools", Column: "schoolCount"},
			{Key: "totalMachines", Label: "Machines", Column: "machineCount"},
		}, dispenseSummary...),
	},
	StateWise: {
		Columns: withDispense(
			grid.Column{Key: "state", Header: "State"},
			grid.Column{Key: "districtCount", Header: "Districts"},
			grid.Column{Key: "schoolCount", Header: "Schools"},
			grid.Column{Key: "machineCount", Header: "Machines"},
		),
		Summary: append([]SummaryField{
			{Key: "totalStates", Label: "States"},
			{Key: "totalDistricts", Label: "Districts", Column: "districtCount"},
			{Key: "totalSchools", Label: "Schools", Column: "schoolCount"},
			{Key: "totalMachines", Label: "Machines", Column: "machineCount"},
		}, dispenseSummary...),
	},
}

func CatalogFor(t ReportType) Catalog {
	c, ok := catalogs[t]
	if !ok {
		panic(fmt.Sprintf("report: no catalog for %q", string(t)))
	}
	return c
}

// DefaultInclude turns every column on.
func (c Catalog) DefaultInclude() map[string]bool {
	include := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		include[col.Key] = true
	}
	return include
}

// SummaryValue is one displayed summary entry.
type SummaryValue struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

// View is the displayable part of a result.
type View struct {
	Columns []grid.Column    `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Summary []SummaryValue   `json:"summary"`
}

// Visible projects the result onto the columns switched on in include. A column shows
// only when include has it set to true. Summary fields follow their linked column;
// summary keys the catalog does not know are always shown, after the known ones.
func (r Result) Visible(t ReportType, include map[string]bool) View {
	catalog := CatalogFor(t)
	view := View{Columns: []grid.Column{}, Rows: make([]map[string]any, 0, len(r.Data)), Summary: []SummaryValue{}}

	for _, col := range catalog.Columns {
		if include[col.Key] {
			view.Columns = append(view.Columns, col)
		}
	}

	for _, row := range r.Data {
		projected := make(map[string]any, len(view.Columns))
		for _, col := range view.Columns {
			projected[col.Key] = row[col.Key]
		}
		view.Rows = append(view.Rows, projected)
	}

	known := make(map[string]bool, len(catalog.Summary))
	for _, field := range catalog.Summary {
		known[field.Key] = true
		value, ok := r.Summary[field.Key]
		if !ok {
			continue
		}
		if field.Column != "" && !include[field.Column] {
			continue
		}
		view.Summary = append(view.Summary, SummaryValue{Key: field.Key, Label: field.Label, Value: value})
	}

	var extra []string
	for k := range r.Summary {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		view.Summary = append(view.Summary, SummaryValue{Key: k, Label: k, Value: r.Summary[k]})
	}
	return view
}
