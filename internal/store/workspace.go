package store

import (
	"fmt"
	"sync"
	"time"
)

// Stopper is implemented by workspace entries holding timers.
type Stopper interface {
	Stop()
}

// Slot holds a single non-remote value (current filters, the open dialog, the last route).
type Slot[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.set = true
}

func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.set = false
}

// Workspace is the per-session state store: independent named slices and slots with no
// cross-slice transactions.
type Workspace struct {
	mu        sync.Mutex
	sessionID string
	entries   map[string]any
	closed    bool
}

func NewWorkspace(sessionID string) *Workspace {
	return &Workspace{sessionID: sessionID, entries: make(map[string]any)}
}

func (w *Workspace) SessionID() string { return w.sessionID }

// Closed reports whether the workspace was dropped. Work finishing after that point must
// not commit into it.
func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func entry[E any](w *Workspace, name string, create func() E) E {
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.entries[name]; ok {
		typed, ok := existing.(E)
		if !ok {
			panic(fmt.Sprintf("store: %q holds %T, requested %T", name, existing, typed))
		}
		return typed
	}
	created := create()
	w.entries[name] = created
	return created
}

// SliceOf returns the named slice, creating it on first use.
func SliceOf[T any](w *Workspace, name string) *Slice[T] {
	return entry(w, name, func() *Slice[T] { return NewSlice[T](name) })
}

// SlotOf returns the named slot, creating it on first use.
func SlotOf[T any](w *Workspace, name string) *Slot[T] {
	return entry(w, name, func() *Slot[T] { return &Slot[T]{} })
}

// Attach returns the named entry, creating it with create on first use.
func Attach[E any](w *Workspace, name string, create func() E) E {
	return entry(w, name, create)
}

// Close stops pending timers and invalidates requests in flight on every slice.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entries {
		switch e := e.(type) {
		case Stopper:
			e.Stop()
		case interface{ Reset() }:
			e.Reset()
		}
	}
	w.entries = make(map[string]any)
	w.closed = true
}

// Registry maps session ids to their workspaces. Dropped ids are remembered until Prune so
// a request that raced a logout cannot bring the workspace back.
type Registry struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	dropped    map[string]time.Time
	now        func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		workspaces: make(map[string]*Workspace),
		dropped:    make(map[string]time.Time),
		now:        time.Now,
	}
}

// Get returns the session's workspace, creating it on first use. For a dropped session it
// returns a closed workspace that is not registered.
func (r *Registry) Get(sessionID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, gone := r.dropped[sessionID]; gone {
		ws := NewWorkspace(sessionID)
		ws.closed = true
		return ws
	}
	ws, ok := r.workspaces[sessionID]
	if !ok {
		ws = NewWorkspace(sessionID)
		r.workspaces[sessionID] = ws
	}
	return ws
}

func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	ws, ok := r.workspaces[sessionID]
	delete(r.workspaces, sessionID)
	r.dropped[sessionID] = r.now()
	r.mu.Unlock()
	if ok {
		ws.Close()
	}
}

// Prune forgets ids dropped before cutoff. Their console tokens have expired by then.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, at := range r.dropped {
		if at.Before(cutoff) {
			delete(r.dropped, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// CloseAll drops every workspace.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()
	for _, ws := range all {
		ws.Close()
	}
}
