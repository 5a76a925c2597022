// Package task defines the unit of work the scheduler operates on: a single
// compile or link request submitted by the editor, along with the caller
// hooks that may run immediately before and after it.
package task

import "context"

// Scene is an opaque handle for the owning scene entity. The scheduler never
// dereferences it; it exists only so tasks can be compared and gated by
// scene identity (pointer equality).
type Scene struct {
	// Name is a human-readable label used only for logging; it does not
	// participate in scene identity. Two distinct *Scene values with the
	// same Name are still different scenes.
	Name string
}

// Mode selects whether a Task compiles a translation unit or links objects
// into a shared library.
type Mode int

const (
	// Compile builds a single translation unit into an object file.
	Compile Mode = iota
	// Link combines object files and libraries into a shared library.
	Link
)

func (m Mode) String() string {
	switch m {
	case Compile:
		return "compile"
	case Link:
		return "link"
	default:
		return "unknown"
	}
}

// PreHookFunc runs immediately before argument construction. Returning
// ok=false skips the task silently, not as an error; the scheduler simply
// moves on to the next eligible task.
// Returning requeue=true appends the task to the tail of pending instead
// of running it now; ok is ignored when requeue is true.
type PreHookFunc func(ctx context.Context, t *Task) (ok bool, requeue bool)

// PostHookFunc runs immediately after subprocess termination. succeeded reports whether the task's subprocess exited
// zero. Returning requeue=true appends the task to the tail of pending.
type PostHookFunc func(ctx context.Context, t *Task, succeeded bool) (requeue bool)

// Task is one compile or link request submitted by the editor.
type Task struct {
	SceneRef *Scene
	UserName string
	Mode     Mode

	InputPath  string
	OutputPath string

	// ExtraObjectPaths, ExtraLibNames: Link mode only.
	ExtraObjectPaths []string
	ExtraLibNames    []string

	// ExtraHeaderDirs: Compile mode only.
	ExtraHeaderDirs []string

	Optimize   bool
	ForRuntime bool

	PreHook  PreHookFunc
	PostHook PostHookFunc

	// Empty marks the sentinel "no current task" value. Empty tasks are
	// never executed.
	Empty bool
}

// EmptyTask returns the sentinel empty task.
func EmptyTask() Task {
	return Task{Empty: true}
}

// IsSameAs is the deduplication equivalence predicate: two
// tasks are equivalent iff they would produce identical argument vectors
// and outputs. Hooks and UserName are deliberately excluded; they don't
// affect what gets built.
func (t Task) IsSameAs(o Task) bool {
	if t.Empty || o.Empty {
		return t.Empty == o.Empty
	}
	if t.SceneRef != o.SceneRef ||
		t.Mode != o.Mode ||
		t.InputPath != o.InputPath ||
		t.OutputPath != o.OutputPath ||
		t.Optimize != o.Optimize ||
		t.ForRuntime != o.ForRuntime {
		return false
	}
	return stringSliceEqual(t.ExtraObjectPaths, o.ExtraObjectPaths) &&
		stringSliceEqual(t.ExtraLibNames, o.ExtraLibNames) &&
		stringSliceEqual(t.ExtraHeaderDirs, o.ExtraHeaderDirs)
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
