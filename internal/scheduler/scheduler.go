// Package scheduler implements the central Idle/Selecting/PreHook/
// Running/PostHook state machine: it drains the pending task queue
// against the gate set, runs hooks, launches the compiler/linker
// subprocess, and notifies observers, one task at a time.
package scheduler

import (
	"context"
	"strings"
	"sync"

	"github.com/gdextbuild/compilerd/internal/argbuilder"
	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/internal/gate"
	"github.com/gdextbuild/compilerd/internal/logger"
	"github.com/gdextbuild/compilerd/internal/notifier"
	"github.com/gdextbuild/compilerd/internal/queue"
	"github.com/gdextbuild/compilerd/internal/subprocess"
	"github.com/gdextbuild/compilerd/internal/task"
)

// SpawnFunc launches argv and streams its output back, matching
// (*subprocess.Runner).Start. Scheduler depends on this function type
// rather than the concrete Runner so tests can substitute a stub.
type SpawnFunc func(ctx context.Context, argv []string, dir string) (<-chan subprocess.Line, <-chan subprocess.Result)

// Scheduler owns the single mutex guarding pending/current/gated_scenes/
// running, and drives the state machine that turns queued tasks into
// finished ones.
type Scheduler struct {
	mu sync.Mutex

	queue    *queue.Queue
	gates    *gate.Set
	settings *config.GlobalSettings
	notify   *notifier.Notifier
	spawn    SpawnFunc

	current      task.Task
	running      bool
	lastFailed   bool
	lastMessages []string
}

// New creates a Scheduler that spawns compiler/linker processes via the
// default subprocess.Runner.
func New(settings *config.GlobalSettings) *Scheduler {
	runner := subprocess.New()
	return &Scheduler{
		queue:    queue.New(),
		gates:    gate.New(),
		settings: settings,
		notify:   notifier.New(),
		spawn:    runner.Start,
		current:  task.EmptyTask(),
	}
}

// WithSpawnFunc overrides how subprocesses are launched. Intended for
// tests; production callers should leave the default Runner in place.
func (s *Scheduler) WithSpawnFunc(fn SpawnFunc) *Scheduler {
	s.spawn = fn
	return s
}

// AddTask enqueues t (applying the dedup rule) and, if the scheduler is
// currently idle, starts draining the queue.
func (s *Scheduler) AddTask(ctx context.Context, t task.Task) {
	s.mu.Lock()
	s.queue.Enqueue(t)
	start := !s.running
	if start {
		s.running = true
	}
	s.mu.Unlock()

	s.notify.Notify(notifier.Event{Scene: t.SceneRef, Task: t, Kind: notifier.QueueChanged})
	if start {
		go s.selectNext(ctx)
	}
}

// EnableScene removes scene from the gate set and, if work is pending and
// the scheduler is idle, starts draining the queue.
func (s *Scheduler) EnableScene(ctx context.Context, scene *task.Scene) {
	s.mu.Lock()
	s.gates.Enable(scene)
	start := !s.running && s.queue.Len() > 0
	if start {
		s.running = true
	}
	s.mu.Unlock()

	s.notify.Notify(notifier.Event{Scene: scene, Kind: notifier.QueueChanged})
	if start {
		go s.selectNext(ctx)
	}
}

// DisableScene adds scene to the gate set, suspending scheduling of its
// tasks without discarding them.
func (s *Scheduler) DisableScene(scene *task.Scene) {
	s.mu.Lock()
	s.gates.Disable(scene)
	s.mu.Unlock()
	s.notify.Notify(notifier.Event{Scene: scene, Kind: notifier.QueueChanged})
}

// RemoveTasksFor erases every pending task for scene. A currently running
// task for that scene, if any, is left to finish.
func (s *Scheduler) RemoveTasksFor(scene *task.Scene) {
	s.mu.Lock()
	s.queue.RemoveFor(scene)
	s.mu.Unlock()
	s.notify.Notify(notifier.Event{Scene: scene, Kind: notifier.QueueChanged})
}

// HasTasksFor reports whether the running task or any pending task
// targets scene.
func (s *Scheduler) HasTasksFor(scene *task.Scene) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current.Empty && s.current.SceneRef == scene {
		return true
	}
	return s.queue.ContainsFor(scene)
}

// CurrentTasks returns a snapshot of pending tasks, with the running task
// (if any) prepended, for UI display.
func (s *Scheduler) CurrentTasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Snapshot(s.running, s.current)
}

// IsBusy reports whether the scheduler has work in flight.
func (s *Scheduler) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastFailed reports whether the most recently completed task failed.
func (s *Scheduler) LastFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailed
}

// LastMessages returns the concatenated stdout+stderr of the most recent
// run, one line per entry joined with newlines.
func (s *Scheduler) LastMessages() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lastMessages, "\n")
}

// Subscribe registers an observer for state-changed notifications.
func (s *Scheduler) Subscribe(fn notifier.Func) int {
	return s.notify.Subscribe(fn)
}

// Unsubscribe removes a previously registered observer.
func (s *Scheduler) Unsubscribe(id int) {
	s.notify.Unsubscribe(id)
}

// selectNext implements Selecting: it may iterate through several
// candidates in a row (gated, or rejected by their pre-hook) without
// recursing. Every iteration either lands on a task to run (and returns,
// having handed off to an async subprocess) or empties out and goes Idle.
func (s *Scheduler) selectNext(ctx context.Context) {
	for {
		s.mu.Lock()
		t, ok := s.queue.PopFirstEligible(s.gates)
		if !ok {
			if s.queue.Len() == 0 {
				logger.Info().Msg("no more tasks")
			} else {
				logger.Info().Msg("only gated tasks remain")
			}
			s.running = false
			s.mu.Unlock()
			s.notify.Notify(notifier.Event{Kind: notifier.QueueChanged})
			return
		}
		s.current = t
		s.mu.Unlock()
		s.notify.Notify(notifier.Event{Scene: t.SceneRef, Task: t, Kind: notifier.QueueChanged})

		if t.PreHook != nil {
			ok, requeue := t.PreHook(ctx, &t)
			if requeue {
				s.requeueAndClear(t)
				continue
			}
			if !ok {
				s.clearCurrent()
				s.notify.Notify(notifier.Event{Scene: t.SceneRef, Task: t, Kind: notifier.QueueChanged})
				continue
			}
		}

		s.startSubprocess(ctx, t)
		return
	}
}

func (s *Scheduler) requeueAndClear(t task.Task) {
	s.mu.Lock()
	s.queue.Enqueue(t)
	s.current = task.EmptyTask()
	s.mu.Unlock()
	s.notify.Notify(notifier.Event{Scene: t.SceneRef, Task: t, Kind: notifier.QueueChanged})
}

func (s *Scheduler) clearCurrent() {
	s.mu.Lock()
	s.current = task.EmptyTask()
	s.mu.Unlock()
}

// startSubprocess implements PreHook → Running: it builds the argument
// vector, launches the subprocess without waiting for it, and hands the
// rest of the lifecycle off to awaitTermination in a new goroutine.
func (s *Scheduler) startSubprocess(ctx context.Context, t task.Task) {
	argv := buildArgv(t, s.settings)
	dir := s.settings.OutputDir()
	lines, done := s.spawn(ctx, argv, dir)
	go s.awaitTermination(ctx, t, lines, done)
}

func buildArgv(t task.Task, gs *config.GlobalSettings) []string {
	bin := argbuilder.CompilerPath(gs.BaseDir(), gs.Platform())
	return append([]string{bin}, argbuilder.BuildArgs(t, gs)...)
}

// awaitTermination implements Running → PostHook: it drains all buffered
// output, records the terminal result, and runs the post-hook before
// looping back into Selecting.
func (s *Scheduler) awaitTermination(ctx context.Context, t task.Task, lines <-chan subprocess.Line, done <-chan subprocess.Result) {
	var messages []string
	for l := range lines {
		messages = append(messages, l.Text)
	}
	result := <-done
	if result.Err != nil {
		messages = append(messages, result.Err.Error())
	}

	s.mu.Lock()
	s.lastFailed = result.ExitCode != 0
	s.lastMessages = messages
	s.mu.Unlock()

	succeeded := result.ExitCode == 0
	if t.PostHook != nil {
		if requeue := t.PostHook(ctx, &t, succeeded); requeue {
			s.mu.Lock()
			s.queue.Enqueue(t)
			s.mu.Unlock()
		}
	}

	s.clearCurrent()
	s.notify.Notify(notifier.Event{Scene: t.SceneRef, Task: t, Succeeded: succeeded, Kind: notifier.TaskFinished})

	s.selectNext(ctx)
}
