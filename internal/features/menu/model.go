package menu

import (
	"fmt"

	"padtracker-console/internal/session"
)

type Key string

const (
	KeyDashboard       Key = "dashboard"
	KeyMachines        Key = "machines"
	KeySchools         Key = "schools"
	KeyDispenseHistory Key = "dispense-history"
	KeyRefillHistory   Key = "refill-history"
	KeyReports         Key = "reports"
	KeySavedReports    Key = "saved-reports"
	KeyManualEntries   Key = "manual-entries"
	KeyGeolocations    Key = "geolocations"
	KeyNGOContacts     Key = "ngo-contacts"
	KeyAllocations     Key = "allocations"
	KeyTeam            Key = "team"
	KeyRoles           Key = "roles"
)

type Item struct {
	Key   Key    `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Route string `json:"route"`
	Group string `json:"group"`
	Order int    `json:"order"`
}

var Items = []Item{
	{Key: KeyDashboard, Label: "Dashboard", Icon: "dashboard", Route: "/", Group: "Overview", Order: 1},
	{Key: KeyMachines, Label: "Vending Machines", Icon: "precision_manufacturing", Route: "/machines", Group: "Operations", Order: 2},
	{Key: KeySchools, Label: "Schools", Icon: "school", Route: "/schools", Group: "Operations", Order: 3},
	{Key: KeyDispenseHistory, Label: "Dispense History", Icon: "history", Route: "/dispense-history", Group: "Operations", Order: 4},
	{Key: KeyRefillHistory, Label: "Refill History", Icon: "inventory", Route: "/refill-history", Group: "Operations", Order: 5},
	{Key: KeyManualEntries, Label: "Manual Entries", Icon: "edit_note", Route: "/manual-entries", Group: "Operations", Order: 6},
	{Key: KeyReports, Label: "Reports", Icon: "assessment", Route: "/reports/machine-wise", Group: "Reports", Order: 7},
	{Key: KeySavedReports, Label: "Saved Reports", Icon: "bookmarks", Route: "/saved-reports", Group: "Reports", Order: 8},
	{Key: KeyGeolocations, Label: "Geolocations", Icon: "map", Route: "/geolocations", Group: "Masters", Order: 9},
	{Key: KeyNGOContacts, Label: "NGO / SPOC", Icon: "groups", Route: "/ngo-contacts", Group: "Masters", Order: 10},
	{Key: KeyAllocations, Label: "Allocations", Icon: "link", Route: "/allocations", Group: "Masters", Order: 11},
	{Key: KeyTeam, Label: "Team", Icon: "badge", Route: "/team", Group: "Administration", Order: 12},
	{Key: KeyRoles, Label: "Roles", Icon: "admin_panel_settings", Route: "/roles", Group: "Administration", Order: 13},
}

// Allowed decides menu visibility. Every role is matched explicitly.
func Allowed(role session.Role, key Key) bool {
	switch role {
	case session.RoleSuperAdmin:
		return true
	case session.RoleAdmin:
		return key != KeyRoles
	case session.RoleNGO:
		switch key {
		case KeyDashboard, KeyMachines, KeySchools, KeyDispenseHistory, KeyReports, KeySavedReports, KeyManualEntries:
			return true
		}
		return false
	case session.RoleSPOC:
		switch key {
		case KeyDashboard, KeyDispenseHistory, KeyManualEntries:
			return true
		}
		return false
	}
	panic(fmt.Sprintf("menu: unhandled role %q", string(role)))
}

// For returns the items visible to role, in menu order.
func For(role session.Role) []Item {
	out := make([]Item, 0, len(Items))
	for _, item := range Items {
		if Allowed(role, item.Key) {
			out = append(out, item)
		}
	}
	return out
}
