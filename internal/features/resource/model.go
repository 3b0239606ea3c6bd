package resource

import (
	"padtracker-console/internal/common/models"
	"padtracker-console/internal/session"
)

// Record is any CRUD record with a server-assigned identifier.
type Record interface {
	RecordID() models.RecordID
}

// Kind describes one upstream CRUD collection.
type Kind struct {
	Name     string         // console path segment
	BasePath string         // upstream base path
	Label    string         // singular, used in messages
	Screen   string         // console page listing the collection
	Roles    []session.Role // roles allowed to use it
}

var (
	everyone   = []session.Role{session.RoleSuperAdmin, session.RoleAdmin, session.RoleNGO, session.RoleSPOC}
	fieldStaff = []session.Role{session.RoleSuperAdmin, session.RoleAdmin, session.RoleNGO}
	admins     = []session.Role{session.RoleSuperAdmin, session.RoleAdmin}
)

var (
	KindSchools          = Kind{Name: "schools", BasePath: "/schools", Label: "School", Screen: "/schools", Roles: fieldStaff}
	KindVendingMachines  = Kind{Name: "vending-machines", BasePath: "/vending-machines", Label: "Vending machine", Screen: "/machines", Roles: fieldStaff}
	KindGeolocations     = Kind{Name: "geolocations", BasePath: "/geolocations", Label: "Geolocation", Screen: "/geolocations", Roles: admins}
	KindNGOContacts      = Kind{Name: "ngo-contacts", BasePath: "/ngo-contacts", Label: "NGO/SPOC contact", Screen: "/ngo-contacts", Roles: admins}
	KindAllocations      = Kind{Name: "allocations", BasePath: "/allocations", Label: "Allocation", Screen: "/allocations", Roles: admins}
	KindManualPadEntries = Kind{Name: "manual-pad-entries", BasePath: "/manual-pad-entries", Label: "Manual pad entry", Screen: "/manual-entries", Roles: everyone}
	KindUsers            = Kind{Name: "users", BasePath: "/users", Label: "Team member", Screen: "/team", Roles: admins}
	KindRoles            = Kind{Name: "roles", BasePath: "/roles", Label: "Role", Screen: "/roles", Roles: []session.Role{session.RoleSuperAdmin}}
)

func (k Kind) SliceName() string { return "resource:" + k.Name }

type School struct {
	ID            models.RecordID  `json:"id,omitempty"`
	SchoolName    string           `json:"schoolName" validate:"required"`
	UdiseCode     string           `json:"udiseCode" validate:"omitempty,len=11,numeric"`
	Category      string           `json:"category" validate:"omitempty,oneof=primary upper-primary secondary higher-secondary"`
	State         string           `json:"state" validate:"required"`
	District      string           `json:"district" validate:"required"`
	Address       string           `json:"address,omitempty"`
	Pincode       string           `json:"pincode,omitempty" validate:"omitempty,len=6,numeric"`
	GeolocationID *models.RecordID `json:"geolocationId,omitempty"`
	NGOContactID  *models.RecordID `json:"ngoContactId,omitempty"`
}

func (r School) RecordID() models.RecordID { return r.ID }

type VendingMachine struct {
	ID          models.RecordID  `json:"id,omitempty"`
	MachineID   string           `json:"machineId" validate:"required"`
	SchoolID    *models.RecordID `json:"schoolId"`
	SchoolName  string           `json:"schoolName,omitempty"`
	Status      string           `json:"status" validate:"required,oneof=active inactive faulty"`
	StockLevel  *int             `json:"stockLevel" validate:"omitempty,gte=0"`
	Capacity    int              `json:"capacity,omitempty" validate:"gte=0"`
	State       string           `json:"state,omitempty"`
	District    string           `json:"district,omitempty"`
	InstalledOn string           `json:"installedOn,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r VendingMachine) RecordID() models.RecordID { return r.ID }

// Allocated reports whether the machine is assigned to a school.
func (r VendingMachine) Allocated() bool {
	return r.SchoolID != nil && !r.SchoolID.IsZero()
}

type Geolocation struct {
	ID        models.RecordID `json:"id,omitempty"`
	State     string          `json:"state" validate:"required"`
	District  string          `json:"district" validate:"required"`
	Block     string          `json:"block,omitempty"`
	Latitude  *float64        `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64        `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

func (r Geolocation) RecordID() models.RecordID { return r.ID }

type NGOContact struct {
	ID           models.RecordID `json:"id,omitempty"`
	Name         string          `json:"name" validate:"required"`
	Organisation string          `json:"organisation,omitempty"`
	Type         string          `json:"type" validate:"required,oneof=ngo spoc"`
	Mobile       string          `json:"mobile" validate:"required,len=10,numeric"`
	Email        string          `json:"email,omitempty" validate:"omitempty,email"`
	State        string          `json:"state,omitempty"`
	District     string          `json:"district,omitempty"`
}

func (r NGOContact) RecordID() models.RecordID { return r.ID }

type Allocation struct {
	ID          models.RecordID `json:"id,omitempty"`
	MachineID   models.RecordID `json:"machineId" validate:"required"`
	SchoolID    models.RecordID `json:"schoolId" validate:"required"`
	AllocatedOn string          `json:"allocatedOn" validate:"required,datetime=2006-01-02"`
	Remarks     string          `json:"remarks,omitempty"`
}

func (r Allocation) RecordID() models.RecordID { return r.ID }

type ManualPadEntry struct {
	ID        models.RecordID `json:"id,omitempty"`
	MachineID models.RecordID `json:"machineId" validate:"required"`
	EntryType string          `json:"entryType" validate:"required,oneof=dispense refill"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	EntryDate string          `json:"entryDate" validate:"required,datetime=2006-01-02"`
	Remarks   string          `json:"remarks,omitempty"`
}

func (r ManualPadEntry) RecordID() models.RecordID { return r.ID }

type User struct {
	ID     models.RecordID `json:"id,omitempty"`
	Name   string          `json:"name" validate:"required"`
	Mobile string          `json:"mobile" validate:"required,len=10,numeric"`
	Email  string          `json:"email,omitempty" validate:"omitempty,email"`
	RoleID int             `json:"roleId" validate:"required,gt=0"`
	Role   string          `json:"role,omitempty"`
	Status string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func (r User) RecordID() models.RecordID { return r.ID }

type RoleDefinition struct {
	ID          models.RecordID `json:"id,omitempty"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Permissions []string        `json:"permissions,omitempty"`
}

func (r RoleDefinition) RecordID() models.RecordID { return r.ID }

// UnallocatedMachines keeps the machines not assigned to any school.
func UnallocatedMachines(machines []VendingMachine) []VendingMachine {
	out := make([]VendingMachine, 0, len(machines))
	for _, m := range machines {
		if !m.Allocated() {
			out = append(out, m)
		}
	}
	return out
}
