package session

import (
	"sort"
	"sync"
)

// Tracker records which long-running operations are currently in flight.
// It is owned by the workspace and injected into collaborators; it is never
// shared across instances.
type Tracker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]struct{})}
}

// Begin marks key as in flight. Returns false when it already was.
func (t *Tracker) Begin(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[key]; ok {
		return false
	}
	t.active[key] = struct{}{}
	return true
}

// Done clears key.
func (t *Tracker) Done(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, key)
}

// InFlight reports whether key is currently tracked.
func (t *Tracker) InFlight(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[key]
	return ok
}

// Active returns the tracked keys, sorted.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.active))
	for key := range t.active {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
