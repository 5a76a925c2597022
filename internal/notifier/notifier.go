// Package notifier delivers task-completion and queue-change events to
// interested observers (editor UI, log viewers) outside of the
// scheduler's own critical section.
package notifier

import (
	"sort"
	"sync"

	"github.com/gdextbuild/compilerd/internal/task"
)

// Event describes one change a subscriber may care about.
type Event struct {
	Scene     *task.Scene
	Task      task.Task
	Succeeded bool
	// Kind distinguishes a completed run from a queue-state change (a
	// task was enqueued, removed, or a scene was gated/ungated).
	Kind Kind
}

// Kind discriminates Event variants.
type Kind int

const (
	// TaskFinished reports that a task's subprocess has terminated.
	TaskFinished Kind = iota
	// QueueChanged reports that pending/gated state changed and a UI
	// should re-read the current snapshot.
	QueueChanged
)

// Func receives delivered events. It runs synchronously on the notifying
// goroutine and must not block; it is called with no scheduler lock held,
// so it may call back into the scheduler.
type Func func(Event)

// Notifier is a simple subscriber registry. It never holds a scheduler's
// own lock while invoking subscribers: callers must always call Notify
// after releasing any internal lock, so a subscriber that calls back into
// the scheduler cannot deadlock.
type Notifier struct {
	mu   sync.RWMutex
	subs map[int]Func
	next int
}

// New returns an empty Notifier.
func New() *Notifier {
	return &Notifier{subs: make(map[int]Func)}
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (n *Notifier) Subscribe(fn Func) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.subs[id] = fn
	return id
}

// Unsubscribe removes a previously registered subscriber. It is a no-op
// if id is unknown or already removed.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// Notify delivers ev to every current subscriber, synchronously, in
// ascending order of subscription token. The subscriber snapshot is taken
// under lock and released before any callback runs, so a subscriber may
// safely Subscribe or Unsubscribe from within its own callback.
func (n *Notifier) Notify(ev Event) {
	n.mu.RLock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Func, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len reports the current subscriber count, mainly for tests.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
