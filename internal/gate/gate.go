// Package gate implements the set of scene identities for which scheduling
// is currently suspended.
package gate

import (
	"sync"

	"github.com/gdextbuild/compilerd/internal/task"
)

// Set is a GateSet: a set of scene identities whose pending tasks must not
// be scheduled. It is safe for concurrent use, but Set's own lock only
// covers a single call; internal/scheduler makes every gate change and
// gate check while holding its own mutex, so that a check and the queue
// state it is combined with stay consistent.
type Set struct {
	mu    sync.RWMutex
	gated map[*task.Scene]struct{}
}

// New returns an empty GateSet.
func New() *Set {
	return &Set{gated: make(map[*task.Scene]struct{})}
}

// Disable inserts s into the set idempotently.
func (s *Set) Disable(scene *task.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gated[scene] = struct{}{}
}

// Enable removes s from the set if present, and reports whether the set
// actually changed.
func (s *Set) Enable(scene *task.Scene) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gated[scene]; !ok {
		return false
	}
	delete(s.gated, scene)
	return true
}

// Contains reports whether scene is currently gated.
func (s *Set) Contains(scene *task.Scene) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.gated[scene]
	return ok
}

// Len reports the number of gated scenes, mostly useful for tests/logging.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gated)
}
