package store

import (
	"context"
	"errors"
	"sync"

	"padtracker-console/internal/upstream"
)

// ErrSuperseded is returned by Run when a newer dispatch on the same slice was issued
// before this one settled; its result was discarded.
var ErrSuperseded = errors.New("response superseded by a newer request")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// State is the view of a slice handed to screens.
type State[T any] struct {
	Data           T      `json:"data"`
	Loading        bool   `json:"loading"`
	Error          string `json:"error,omitempty"`
	SuccessMessage string `json:"successMessage,omitempty"`
	Status         Status `json:"status"`
	Seq            uint64 `json:"seq"`
}

// Slice owns one resource's remote data plus its loading and error flags.
//
// Every dispatch takes a sequence token from Begin. Only the holder of the latest token may
// settle the slice, so a slow response to a superseded request can never overwrite the
// result of a newer one.
type Slice[T any] struct {
	mu      sync.RWMutex
	name    string
	data    T
	loading bool
	err     string
	success string
	status  Status
	issued  uint64
}

func NewSlice[T any](name string) *Slice[T] {
	return &Slice[T]{name: name, status: StatusIdle}
}

func (s *Slice[T]) Name() string { return s.name }

// Begin marks the slice loading and returns the token the dispatch must settle with.
func (s *Slice[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.loading = true
	s.err = ""
	s.success = ""
	s.status = StatusLoading
	return s.issued
}

// Resolve stores data if seq is still the latest token. It reports whether it did.
func (s *Slice[T]) Resolve(seq uint64, data T, successMessage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued {
		return false
	}
	s.data = data
	s.loading = false
	s.err = ""
	s.success = successMessage
	s.status = StatusLoaded
	return true
}

// Reject records message if seq is still the latest token. Cached data is left untouched.
func (s *Slice[T]) Reject(seq uint64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued {
		return false
	}
	s.loading = false
	s.err = message
	s.success = ""
	s.status = StatusErrored
	return true
}

// Apply transforms the cached data unconditionally (a confirmed remote delete stays true
// whatever else is in flight) and settles the flags only when seq is current.
func (s *Slice[T]) Apply(seq uint64, fn func(T) T, successMessage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fn(s.data)
	if seq != s.issued {
		return false
	}
	s.loading = false
	s.err = ""
	s.success = successMessage
	s.status = StatusLoaded
	return true
}

// Mutate transforms the cached data without touching the request flags.
func (s *Slice[T]) Mutate(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fn(s.data)
}

// Set replaces the data outside of any request, e.g. to prefill a form.
func (s *Slice[T]) Set(data T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.status = StatusLoaded
}

// Reset clears the slice back to idle. Requests in flight when Reset is called are
// invalidated and their responses discarded.
func (s *Slice[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.issued++
	s.data = zero
	s.loading = false
	s.err = ""
	s.success = ""
	s.status = StatusIdle
}

func (s *Slice[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State[T]{
		Data:           s.data,
		Loading:        s.loading,
		Error:          s.err,
		SuccessMessage: s.success,
		Status:         s.status,
		Seq:            s.issued,
	}
}

// Run is the thunk: it dispatches call against the slice and reduces a failure to the
// user-facing message (the server's, else fallback).
func Run[T any](ctx context.Context, s *Slice[T], fallback string, call func(ctx context.Context) (T, error)) (State[T], error) {
	return RunMessage(ctx, s, fallback, "", call)
}

func RunMessage[T any](ctx context.Context, s *Slice[T], fallback, successMessage string, call func(ctx context.Context) (T, error)) (State[T], error) {
	seq := s.Begin()
	data, err := call(ctx)
	if err != nil {
		if !s.Reject(seq, upstream.Message(err, fallback)) {
			return s.Snapshot(), ErrSuperseded
		}
		return s.Snapshot(), err
	}
	if !s.Resolve(seq, data, successMessage) {
		return s.Snapshot(), ErrSuperseded
	}
	return s.Snapshot(), nil
}
