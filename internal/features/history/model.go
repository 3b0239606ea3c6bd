package history

import (
	"fmt"

	"padtracker-console/internal/features/grid"
)

// Kind is one history listing.
type Kind struct {
	Name      string
	BasePath  string
	Debounced bool // grid filter changes wait for the debounce delay before refetching
	Columns   []grid.Column
}

var (
	Dispense = Kind{
		Name:      "dispense-history",
		BasePath:  "/dispense-history",
		Debounced: true,
		Columns: []grid.Column{
			{Key: "date", Header: "Date"},
			{Key: "machineId", Header: "Machine ID"},
			{Key: "schoolName", Header: "School"},
			{Key: "district", Header: "District"},
			{Key: "state", Header: "State"},
			{Key: "dispenseType", Header: "Dispense Type"},
			{Key: "quantity", Header: "Quantity"},
			{Key: "amount", Header: "Amount"},
		},
	}
	Refill = Kind{
		Name:     "refill-history",
		BasePath: "/refill-history",
		Columns: []grid.Column{
			{Key: "date", Header: "Date"},
			{Key: "machineId", Header: "Machine ID"},
			{Key: "schoolName", Header: "School"},
			{Key: "district", Header: "District"},
			{Key: "state", Header: "State"},
			{Key: "quantity", Header: "Refilled Quantity"},
			{Key: "refilledBy", Header: "Refilled By"},
		},
	}
)

func ParseKind(name string) (Kind, error) {
	switch name {
	case Dispense.Name:
		return Dispense, nil
	case Refill.Name:
		return Refill, nil
	}
	return Kind{}, fmt.Errorf("unknown history %q", name)
}

func (k Kind) sliceName() string     { return "history:" + k.Name }
func (k Kind) filtersSlot() string   { return "history:filters:" + k.Name }
func (k Kind) debouncerName() string { return "history:debounce:" + k.Name }

// Filters is the state of a history screen: region, date range and the grid query.
type Filters struct {
	States    []string   `json:"states"`
	Districts []string   `json:"districts"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	Grid      grid.Query `json:"grid"`
}

// FilterUpdate carries the fields a screen changed. Nil fields are left alone.
type FilterUpdate struct {
	States      []string          `json:"states"`
	Districts   []string          `json:"districts"`
	StartDate   *string           `json:"startDate"`
	EndDate     *string           `json:"endDate"`
	Page        *int              `json:"page"`
	PageSize    *int              `json:"pageSize"`
	SortField   *string           `json:"sortField"`
	SortOrder   *string           `json:"sortOrder"`
	FilterModel *grid.FilterModel `json:"filterModel"`
}
