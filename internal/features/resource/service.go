package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"padtracker-console/internal/common/models"
	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"go.uber.org/zap"
)

// Service holds the list, create, update and delete thunks of one resource kind. Every
// call settles the kind's slice in the session workspace; nothing is retried and nothing
// is applied before the server confirms it.
type Service[T Record] struct {
	kind    Kind
	client  *upstream.Client
	logger  *zap.Logger
	deriver *grid.Deriver
}

func NewService[T Record](kind Kind, client *upstream.Client, logger *zap.Logger, deriver *grid.Deriver) *Service[T] {
	return &Service[T]{
		kind:    kind,
		client:  client,
		logger:  logger.Named("resource").With(zap.String("resource", kind.Name)),
		deriver: deriver,
	}
}

func (s *Service[T]) Kind() Kind { return s.kind }

func (s *Service[T]) slice(ws *store.Workspace) *store.Slice[[]T] {
	return store.SliceOf[[]T](ws, s.kind.SliceName())
}

func (s *Service[T]) Snapshot(ws *store.Workspace) store.State[[]T] {
	return s.slice(ws).Snapshot()
}

func (s *Service[T]) Fetch(ctx context.Context, ws *store.Workspace, query url.Values) (store.State[[]T], error) {
	return store.Run(ctx, s.slice(ws), fmt.Sprintf("Failed to fetch %s list", s.kind.Label), func(ctx context.Context) ([]T, error) {
		var env models.Envelope[[]T]
		if err := s.client.Get(ctx, s.kind.BasePath, query, &env); err != nil {
			return nil, err
		}
		if env.Data == nil {
			return []T{}, nil
		}
		return env.Data, nil
	})
}

// Save validates rec, then creates it when it has no identifier and updates it otherwise.
// Invalid input never reaches the network.
func (s *Service[T]) Save(ctx context.Context, ws *store.Workspace, rec T) (store.State[[]T], error) {
	if err := validation.Struct(rec); err != nil {
		return s.Snapshot(ws), err
	}

	slice := s.slice(ws)
	seq := slice.Begin()

	id := rec.RecordID()
	var env models.Envelope[json.RawMessage]
	var err error
	verb := "created"
	if id.IsZero() {
		err = s.client.Post(ctx, s.kind.BasePath, rec, &env)
	} else {
		verb = "updated"
		err = s.client.Put(ctx, upstream.UpdatePath(s.kind.BasePath, id.String()), rec, &env)
	}
	if err != nil {
		if !slice.Reject(seq, upstream.Message(err, fmt.Sprintf("Failed to save %s", s.kind.Label))) {
			return slice.Snapshot(), store.ErrSuperseded
		}
		return slice.Snapshot(), err
	}

	saved := rec
	if len(env.Data) > 0 {
		var returned T
		if json.Unmarshal(env.Data, &returned) == nil && !returned.RecordID().IsZero() {
			saved = returned
		}
	}

	message := env.Message
	if message == "" {
		message = fmt.Sprintf("%s %s successfully", s.kind.Label, verb)
	}
	if !slice.Apply(seq, func(items []T) []T { return upsert(items, saved) }, message) {
		return slice.Snapshot(), store.ErrSuperseded
	}
	s.logger.Info("record saved", zap.String("id", saved.RecordID().String()), zap.String("action", verb))
	return slice.Snapshot(), nil
}

// Delete removes id upstream and then from the cached list. A failed delete leaves the
// list as it was and records the error.
func (s *Service[T]) Delete(ctx context.Context, ws *store.Workspace, id string) (store.State[[]T], error) {
	slice := s.slice(ws)
	seq := slice.Begin()

	var env models.Envelope[json.RawMessage]
	if err := s.client.Delete(ctx, upstream.DeletePath(s.kind.BasePath, id), &env); err != nil {
		if !slice.Reject(seq, upstream.Message(err, fmt.Sprintf("Failed to delete %s", s.kind.Label))) {
			return slice.Snapshot(), store.ErrSuperseded
		}
		return slice.Snapshot(), err
	}

	message := env.Message
	if message == "" {
		message = fmt.Sprintf("%s deleted successfully", s.kind.Label)
	}
	slice.Apply(seq, func(items []T) []T { return without(items, id) }, message)
	s.logger.Info("record deleted", zap.String("id", id))
	return slice.Snapshot(), nil
}

// Rows renders items as grid rows with the kind's derived display columns.
func (s *Service[T]) Rows(items []T) ([]map[string]any, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	rows := []map[string]any{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	if err := s.deriver.Apply(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func without[T Record](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.RecordID().String() != id {
			out = append(out, item)
		}
	}
	return out
}

func upsert[T Record](items []T, rec T) []T {
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, item := range items {
		if !rec.RecordID().IsZero() && item.RecordID() == rec.RecordID() {
			out = append(out, rec)
			replaced = true
			continue
		}
		out = append(out, item)
	}
	if !replaced {
		out = append(out, rec)
	}
	return out
}
