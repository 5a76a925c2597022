package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func noopPreHook(context.Context, *Task) (bool, bool) { return true, false }
func noopPostHook(context.Context, *Task, bool) bool  { return false }

func TestIsSameAsIgnoresHooksAndUserName(t *testing.T) {
	scene := &Scene{Name: "Level1"}
	a := Task{
		SceneRef:   scene,
		UserName:   "a.cpp (alice)",
		Mode:       Compile,
		InputPath:  "a.cpp",
		OutputPath: "a.o",
		PreHook:    noopPreHook,
	}
	b := a
	b.UserName = "a.cpp (bob)"
	b.PostHook = noopPostHook

	assert.True(t, a.IsSameAs(b), "tasks differing only in UserName/hooks should be equivalent")
}

func TestIsSameAsComparesSceneIdentity(t *testing.T) {
	sceneA := &Scene{Name: "Level1"}
	sceneB := &Scene{Name: "Level1"} // same name, different identity

	a := Task{SceneRef: sceneA, InputPath: "a.cpp", OutputPath: "a.o"}
	b := Task{SceneRef: sceneB, InputPath: "a.cpp", OutputPath: "a.o"}

	assert.False(t, a.IsSameAs(b), "tasks with distinct scene identities must not be equivalent")
}

func TestIsSameAsComparesOrderedSlices(t *testing.T) {
	scene := &Scene{Name: "Level1"}
	a := Task{SceneRef: scene, Mode: Link, ExtraObjectPaths: []string{"x.o", "y.o"}}
	b := Task{SceneRef: scene, Mode: Link, ExtraObjectPaths: []string{"y.o", "x.o"}}

	assert.False(t, a.IsSameAs(b), "differently-ordered extra object paths produce different argv and must not be equivalent")
}

func TestEmptyTaskIsOnlySameAsEmpty(t *testing.T) {
	empty := EmptyTask()
	real := Task{SceneRef: &Scene{}, InputPath: "a.cpp"}

	assert.True(t, empty.IsSameAs(EmptyTask()), "two empty tasks should be equivalent")
	assert.False(t, empty.IsSameAs(real), "an empty task should never be equivalent to a real one")
	assert.False(t, real.IsSameAs(empty), "a real task should never be equivalent to an empty one")
}
