package resource

import (
	"fmt"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/config"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type registrar interface {
	Register(r fiber.Router)
	List(c *fiber.Ctx) error
}

type mount struct {
	kind       Kind
	controller registrar
}

type ResourceApi struct {
	mounts   []mount
	machines *Controller[VendingMachine]

	workspaces *store.Registry
	config     *config.Config
	sessions   session.Service
	logger     *zap.Logger
}

func newController[T Record](kind Kind, client *upstream.Client, workspaces *store.Registry, rules grid.DisplayRules, logger *zap.Logger) (*Controller[T], error) {
	deriver, err := grid.NewDeriver(rules[kind.Name])
	if err != nil {
		return nil, fmt.Errorf("%s display rules: %w", kind.Name, err)
	}
	return NewController(NewService[T](kind, client, logger, deriver), workspaces), nil
}

func NewResourceApi(client *upstream.Client, workspaces *store.Registry, rules grid.DisplayRules, config *config.Config, sessions session.Service, logger *zap.Logger) (*ResourceApi, error) {
	api := &ResourceApi{workspaces: workspaces, config: config, sessions: sessions, logger: logger}

	schools, err := newController[School](KindSchools, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}
	if api.machines, err = newController[VendingMachine](KindVendingMachines, client, workspaces, rules, logger); err != nil {
		return nil, err
	}
	users, err := newController[User](KindUsers, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}
	geolocations, err := newController[Geolocation](KindGeolocations, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}
	contacts, err := newController[NGOContact](KindNGOContacts, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}
	allocations, err := newController[Allocation](KindAllocations, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}
	entries, err := newController[ManualPadEntry](KindManualPadEntries, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}
	roles, err := newController[RoleDefinition](KindRoles, client, workspaces, rules, logger)
	if err != nil {
		return nil, err
	}

	api.mounts = []mount{
		{KindSchools, schools},
		{KindVendingMachines, api.machines},
		{KindGeolocations, geolocations},
		{KindNGOContacts, contacts},
		{KindAllocations, allocations},
		{KindManualPadEntries, entries},
		{KindUsers, users},
		{KindRoles, roles},
	}
	return api, nil
}

func (h *ResourceApi) Setup(app *fiber.App) {
	guard := middleware.SessionGuard(h.sessions, h.logger, h.config.SkipAuth)

	for _, m := range h.mounts {
		app.Get(m.kind.Screen, guard, middleware.RequireRole(m.kind.Roles...), m.controller.List)
	}

	app.Get("/api/vending-machines/unallocated", guard, middleware.RequireRole(KindAllocations.Roles...), h.unallocated)

	for _, m := range h.mounts {
		group := app.Group("/api/"+m.kind.Name, guard, middleware.RequireRole(m.kind.Roles...))
		m.controller.Register(group)
	}
}

// unallocated lists the machines that can still be assigned to a school.
func (h *ResourceApi) unallocated(c *fiber.Ctx) error {
	state, err := h.machines.Service.Fetch(c.UserContext(), middleware.Workspace(c, h.workspaces), nil)
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(fiber.Map{"data": UnallocatedMachines(state.Data)})
}
