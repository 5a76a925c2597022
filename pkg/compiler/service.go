// Package compiler is the public facade the embedding editor talks to:
// a single entry point over the queue, gate set, and scheduler that
// serializes every compile/link request onto one external-compiler
// invocation pipeline.
package compiler

import (
	"context"
	"fmt"

	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/internal/notifier"
	"github.com/gdextbuild/compilerd/internal/platform"
	"github.com/gdextbuild/compilerd/internal/scheduler"
	"github.com/gdextbuild/compilerd/internal/task"
)

// Scene re-exports task.Scene: callers outside internal/ only need the
// opaque handle type, never the scheduling internals it's compared by.
type Scene = task.Scene

// Task re-exports task.Task for the same reason.
type Task = task.Task

// Mode re-exports task.Mode.
type Mode = task.Mode

// Compile and Link re-export task.Compile/task.Link.
const (
	Compile = task.Compile
	Link    = task.Link
)

// Service is the process-wide compilation facade. Callers never touch
// the scheduler, queue, or gate set directly; every mutation goes through
// one of Service's methods, which keep the scheduler mutex and notifier
// ordering internal.
type Service struct {
	settings *config.GlobalSettings
	sched    *scheduler.Scheduler
}

// New constructs a Service for the given platform/profile. Callers must
// call SetBaseDir before scheduling any task. ArgumentBuilder reads an
// empty base dir as "toolchain not configured yet" and will simply
// produce paths rooted at "".
func New(plat platform.Platform, profile platform.Profile) *Service {
	settings := config.New(plat, profile)
	return &Service{
		settings: settings,
		sched:    scheduler.New(settings),
	}
}

// NewWithSettings constructs a Service around an already-configured
// GlobalSettings, e.g. one produced by config.BuildGlobalSettings from an
// on-disk settings file.
func NewWithSettings(settings *config.GlobalSettings) *Service {
	return &Service{settings: settings, sched: scheduler.New(settings)}
}

// withSpawnFunc overrides how the underlying scheduler launches
// subprocesses. Exported only to this package's tests (internal/faketoolchain
// stands in for the real g++/ld invocation); production callers configure
// the toolchain via SetBaseDir instead.
func (s *Service) withSpawnFunc(fn scheduler.SpawnFunc) *Service {
	s.sched = s.sched.WithSpawnFunc(fn)
	return s
}

// AddTask enqueues t (applying the dedup rule) and starts the scheduler
// if it was idle.
func (s *Service) AddTask(ctx context.Context, t Task) {
	s.sched.AddTask(ctx, t)
}

// EnableScene lifts scheduling suspension for scene and kicks the
// scheduler if work was waiting on it.
func (s *Service) EnableScene(ctx context.Context, scene *Scene) {
	s.sched.EnableScene(ctx, scene)
}

// DisableScene suspends scheduling of scene's tasks without discarding
// them.
func (s *Service) DisableScene(scene *Scene) {
	s.sched.DisableScene(scene)
}

// RemoveTasksFor erases every pending task targeting scene. A task for
// that scene already running is left to finish.
func (s *Service) RemoveTasksFor(scene *Scene) {
	s.sched.RemoveTasksFor(scene)
}

// HasTasksFor reports whether the running task or any pending task
// targets scene.
func (s *Service) HasTasksFor(scene *Scene) bool {
	return s.sched.HasTasksFor(scene)
}

// CurrentTasks returns a UI-ready snapshot, running task first.
func (s *Service) CurrentTasks() []Task {
	return s.sched.CurrentTasks()
}

// IsBusy reports whether the scheduler has work in flight.
func (s *Service) IsBusy() bool {
	return s.sched.IsBusy()
}

// LastFailed reports whether the most recently completed task failed.
func (s *Service) LastFailed() bool {
	return s.sched.LastFailed()
}

// LastMessages returns the concatenated stdout+stderr of the most recent
// run. Observers re-read it (with LastFailed) after each notification.
func (s *Service) LastMessages() string {
	return s.sched.LastMessages()
}

// SetBaseDir normalizes dir and rebuilds the standard include-dir table
// against it, dropping entries derived from the previous base.
func (s *Service) SetBaseDir(dir string) error {
	if err := s.settings.SetBaseDir(dir); err != nil {
		return fmt.Errorf("compiler: SetBaseDir: %w", err)
	}
	return nil
}

// SetOutputDir normalizes dir and creates it if absent.
func (s *Service) SetOutputDir(dir string) error {
	if err := s.settings.SetOutputDir(dir); err != nil {
		return fmt.Errorf("compiler: SetOutputDir: %w", err)
	}
	return nil
}

// AddHeaderDir resolves dir against base_dir and adds it to the
// header-dirs set idempotently.
func (s *Service) AddHeaderDir(dir string) {
	s.settings.AddHeaderDir(dir)
}

// SetEventsHeader overrides the force-included header path. It defaults
// to scripts/events.h under base_dir.
func (s *Service) SetEventsHeader(path string) {
	s.settings.SetEventsHeader(path)
}

// Subscribe registers an observer for "state changed" notifications.
// Delivery happens outside the scheduler mutex, so an observer may call
// back into the Service without deadlocking.
func (s *Service) Subscribe(fn notifier.Func) int {
	return s.sched.Subscribe(fn)
}

// Unsubscribe removes a previously registered observer.
func (s *Service) Unsubscribe(id int) {
	s.sched.Unsubscribe(id)
}

// BaseDir, OutputDir, Platform, Profile expose the current configuration
// for UI display and diagnostics.
func (s *Service) BaseDir() string            { return s.settings.BaseDir() }
func (s *Service) OutputDir() string          { return s.settings.OutputDir() }
func (s *Service) Platform() platform.Platform { return s.settings.Platform() }
func (s *Service) Profile() platform.Profile   { return s.settings.Profile() }
