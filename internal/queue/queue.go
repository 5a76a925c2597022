// Package queue implements the ordered sequence of pending tasks. Queue
// itself holds no lock: pending state is always mutated alongside
// current/gated_scenes/running under the scheduler's single mutex, so
// Queue's methods assume the caller already holds that lock.
package queue

import (
	"github.com/gdextbuild/compilerd/internal/gate"
	"github.com/gdextbuild/compilerd/internal/task"
)

// Queue is the FIFO of pending tasks.
type Queue struct {
	pending []task.Task
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Len reports the number of pending tasks.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Enqueue implements the dedup-on-enqueue rule: if an equivalent task is
// already pending, do nothing; else append t. Equivalence is only checked
// against pending — a task equivalent to the currently running one is
// still appended, so the in-flight run finishes first and the new request
// runs after it.
func (q *Queue) Enqueue(t task.Task) (added bool) {
	for _, p := range q.pending {
		if t.IsSameAs(p) {
			return false
		}
	}
	q.pending = append(q.pending, t)
	return true
}

// PopFirstEligible scans pending in order and removes+returns the first
// task whose scene is not gated. Any gated task encountered is left in
// place; gating never discards work.
func (q *Queue) PopFirstEligible(gates *gate.Set) (task.Task, bool) {
	for i, t := range q.pending {
		if gates.Contains(t.SceneRef) {
			continue
		}
		q.pending = append(q.pending[:i:i], q.pending[i+1:]...)
		return t, true
	}
	return task.Task{}, false
}

// RemoveFor erases every pending task targeting scene.
func (q *Queue) RemoveFor(scene *task.Scene) {
	kept := q.pending[:0:0]
	for _, t := range q.pending {
		if t.SceneRef != scene {
			kept = append(kept, t)
		}
	}
	q.pending = kept
}

// ContainsFor reports whether any pending task targets scene. It does not
// consider the currently running task; callers combine this with their
// own "current" check the way Scheduler.HasTasksFor does.
func (q *Queue) ContainsFor(scene *task.Scene) bool {
	for _, t := range q.pending {
		if t.SceneRef == scene {
			return true
		}
	}
	return false
}

// Snapshot returns a defensive copy of pending, optionally prepended with
// the currently running task, for UI display.
func (q *Queue) Snapshot(running bool, current task.Task) []task.Task {
	out := make([]task.Task, 0, len(q.pending)+1)
	if running && !current.Empty {
		out = append(out, current)
	}
	out = append(out, q.pending...)
	return out
}
