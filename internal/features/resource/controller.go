package resource

import (
	"encoding/json"
	"errors"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/common/models"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/store"

	"github.com/gofiber/fiber/v2"
)

// Listing is the view model of a resource screen.
type Listing[T Record] struct {
	Resource string           `json:"resource"`
	State    store.State[[]T] `json:"state"`
	Rows     []map[string]any `json:"rows"`
}

type Controller[T Record] struct {
	Service    *Service[T]
	Workspaces *store.Registry
}

func NewController[T Record](service *Service[T], workspaces *store.Registry) *Controller[T] {
	return &Controller[T]{Service: service, Workspaces: workspaces}
}

func (ctrl *Controller[T]) listing(state store.State[[]T]) (Listing[T], error) {
	rows, err := ctrl.Service.Rows(state.Data)
	return Listing[T]{Resource: ctrl.Service.Kind().Name, State: state, Rows: rows}, err
}

// List fetches the collection, passing pagination, sort and column filters through.
func (ctrl *Controller[T]) List(c *fiber.Ctx) error {
	query, err := grid.ParseQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	params := query.Values()
	if c.Query("page") == "" {
		params.Del("page")
		params.Del("pageSize")
	}

	state, err := ctrl.Service.Fetch(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), params)
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	view, err := ctrl.listing(state)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(view)
}

// State returns the cached slice without fetching.
func (ctrl *Controller[T]) State(c *fiber.Ctx) error {
	view, err := ctrl.listing(ctrl.Service.Snapshot(middleware.Workspace(c, ctrl.Workspaces)))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(view)
}

func (ctrl *Controller[T]) Create(c *fiber.Ctx) error {
	var rec T
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !rec.RecordID().IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id is assigned by the server"})
	}
	return ctrl.save(c, rec)
}

func (ctrl *Controller[T]) Update(c *fiber.Ctx) error {
	rec, err := decodeWithID[T](c.Body(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctrl.save(c, rec)
}

// decodeWithID decodes body as T with the path id. A body id that disagrees is rejected.
func decodeWithID[T Record](body []byte, id string) (T, error) {
	var rec T
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return rec, errors.New("invalid request body")
	}
	if raw, ok := fields["id"]; ok {
		var bodyID models.RecordID
		if err := json.Unmarshal(raw, &bodyID); err != nil || (!bodyID.IsZero() && bodyID.String() != id) {
			return rec, errors.New("id does not match the path")
		}
	}
	fields["id"], _ = json.Marshal(id)
	merged, _ := json.Marshal(fields)
	if err := json.Unmarshal(merged, &rec); err != nil {
		return rec, errors.New("invalid request body")
	}
	return rec, nil
}

func (ctrl *Controller[T]) save(c *fiber.Ctx, rec T) error {
	state, err := ctrl.Service.Save(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), rec)
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(state)
}

// Delete requires ?confirm=true; without it nothing is dispatched.
func (ctrl *Controller[T]) Delete(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "confirmation required"})
	}
	state, err := ctrl.Service.Delete(c.UserContext(), middleware.Workspace(c, ctrl.Workspaces), c.Params("id"))
	if err != nil {
		return common_api.Fail(c, err, state)
	}
	return c.JSON(state)
}

// Register mounts the collection routes on r.
func (ctrl *Controller[T]) Register(r fiber.Router) {
	r.Get("/", ctrl.List)
	r.Get("/state", ctrl.State)
	r.Post("/", ctrl.Create)
	r.Put("/:id", ctrl.Update)
	r.Delete("/:id", ctrl.Delete)
}
