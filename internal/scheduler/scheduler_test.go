package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/internal/notifier"
	"github.com/gdextbuild/compilerd/internal/platform"
	"github.com/gdextbuild/compilerd/internal/subprocess"
	"github.com/gdextbuild/compilerd/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T) *config.GlobalSettings {
	t.Helper()
	gs := config.New(platform.Linux, platform.Release)
	require.NoError(t, gs.SetBaseDir("/opt/gd/"))
	require.NoError(t, gs.SetOutputDir(t.TempDir()))
	return gs
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// instantSpawn returns a SpawnFunc that completes immediately, emitting
// lines and exitCode, and counts how many times it was invoked.
func instantSpawn(lines []string, exitCode int, calls *int32Counter) SpawnFunc {
	return func(ctx context.Context, argv []string, dir string) (<-chan subprocess.Line, <-chan subprocess.Result) {
		calls.inc(argv)
		lch := make(chan subprocess.Line, len(lines))
		for _, l := range lines {
			lch <- subprocess.Line{Stream: subprocess.Stdout, Text: l}
		}
		close(lch)
		dch := make(chan subprocess.Result, 1)
		dch <- subprocess.Result{RunID: "test", ExitCode: exitCode}
		close(dch)
		return lch, dch
	}
}

// int32Counter records invocation count and the argv of each call.
type int32Counter struct {
	mu    sync.Mutex
	n     int
	argvs [][]string
}

func (c *int32Counter) inc(argv []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.argvs = append(c.argvs, argv)
}

func (c *int32Counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *int32Counter) anyContains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, argv := range c.argvs {
		for _, a := range argv {
			if strings.Contains(a, substr) {
				return true
			}
		}
	}
	return false
}

func TestSimpleCompileSucceeds(t *testing.T) {
	gs := newTestSettings(t)
	var calls int32Counter

	s := New(gs).WithSpawnFunc(instantSpawn([]string{"ok"}, 0, &calls))
	s.Subscribe(func(notifier.Event) {})

	scene := &task.Scene{Name: "S1"}
	s.AddTask(context.Background(), task.Task{SceneRef: scene, Mode: task.Compile, InputPath: "a.cpp", OutputPath: "a.o"})

	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })
	assert.False(t, s.LastFailed(), "expected success")
	assert.Contains(t, s.LastMessages(), "ok")
}

// A duplicate of the currently-running task is deferred to pending and
// runs once the first attempt finishes.
func TestDedupWhileRunning(t *testing.T) {
	gs := newTestSettings(t)
	release := make(chan struct{})
	var starts int32Counter

	blocking := func(ctx context.Context, argv []string, dir string) (<-chan subprocess.Line, <-chan subprocess.Result) {
		starts.inc(argv)
		lch := make(chan subprocess.Line)
		dch := make(chan subprocess.Result, 1)
		go func() {
			close(lch)
			<-release
			dch <- subprocess.Result{ExitCode: 0}
			close(dch)
		}()
		return lch, dch
	}

	s := New(gs).WithSpawnFunc(blocking)
	scene := &task.Scene{Name: "S1"}
	tk := task.Task{SceneRef: scene, Mode: task.Compile, InputPath: "a.cpp", OutputPath: "a.o"}

	s.AddTask(context.Background(), tk)
	waitUntil(t, time.Second, func() bool { return starts.count() == 1 })

	s.AddTask(context.Background(), tk)
	waitUntil(t, time.Second, func() bool { return len(s.CurrentTasks()) == 2 })

	close(release)
	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })

	assert.Equal(t, 2, starts.count(), "expected exactly 2 subprocess spawns")
}

// Gating preserves work: only the ungated scene's task runs until the
// gate is lifted.
func TestGatingPreservesWork(t *testing.T) {
	gs := newTestSettings(t)
	var calls int32Counter
	s := New(gs).WithSpawnFunc(instantSpawn([]string{"ok"}, 0, &calls))

	s1 := &task.Scene{Name: "S1"}
	s2 := &task.Scene{Name: "S2"}

	s.DisableScene(s1)
	s.AddTask(context.Background(), task.Task{SceneRef: s1, Mode: task.Compile, InputPath: "s1.cpp", OutputPath: "/out/s1.o"})
	s.AddTask(context.Background(), task.Task{SceneRef: s2, Mode: task.Compile, InputPath: "s2.cpp", OutputPath: "/out/s2.o"})

	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })

	assert.False(t, calls.anyContains("/out/s1.o"), "gated scene's task should not have run yet")
	assert.True(t, calls.anyContains("/out/s2.o"), "ungated scene's task should have run")
	assert.True(t, s.HasTasksFor(s1), "gated task should still be pending")

	s.EnableScene(context.Background(), s1)
	waitUntil(t, time.Second, func() bool { return calls.anyContains("/out/s1.o") })
	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })
}

// A pre-hook requeue defers the subprocess spawn until a second attempt.
func TestPreHookRequeue(t *testing.T) {
	gs := newTestSettings(t)
	var calls int32Counter
	s := New(gs).WithSpawnFunc(instantSpawn([]string{"ok"}, 0, &calls))

	var attempts int
	var mu sync.Mutex
	preHook := func(ctx context.Context, t *task.Task) (bool, bool) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return false, true
		}
		return true, false
	}

	scene := &task.Scene{Name: "S1"}
	s.AddTask(context.Background(), task.Task{SceneRef: scene, Mode: task.Compile, InputPath: "a.cpp", OutputPath: "a.o", PreHook: preHook})

	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })

	assert.Equal(t, 1, calls.count(), "expected exactly one subprocess spawn")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts, "expected the pre-hook to run twice")
}

// A pre-hook that rejects the last eligible task must end the run with
// the scheduler idle and no subprocess spawned.
func TestPreHookRejectionOnLastTaskGoesIdle(t *testing.T) {
	gs := newTestSettings(t)
	var calls int32Counter
	s := New(gs).WithSpawnFunc(instantSpawn(nil, 0, &calls))

	rejecting := func(ctx context.Context, t *task.Task) (bool, bool) { return false, false }

	scene := &task.Scene{Name: "S1"}
	s.AddTask(context.Background(), task.Task{SceneRef: scene, Mode: task.Compile, InputPath: "a.cpp", OutputPath: "a.o", PreHook: rejecting})

	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })
	assert.Equal(t, 0, calls.count(), "a rejected task must not spawn a subprocess")
	assert.Empty(t, s.CurrentTasks(), "nothing should remain pending")
}

// Concurrent AddTask traffic must still serialize onto one subprocess at
// a time.
func TestConcurrentAddTasksSerializeSubprocesses(t *testing.T) {
	gs := newTestSettings(t)

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	serializing := func(ctx context.Context, argv []string, dir string) (<-chan subprocess.Line, <-chan subprocess.Result) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		lch := make(chan subprocess.Line)
		dch := make(chan subprocess.Result, 1)
		go func() {
			close(lch)
			time.Sleep(time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			dch <- subprocess.Result{ExitCode: 0}
			close(dch)
		}()
		return lch, dch
	}

	s := New(gs).WithSpawnFunc(serializing)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Distinct scene identities keep the dedup rule out of the way.
			scene := &task.Scene{Name: "S"}
			s.AddTask(context.Background(), task.Task{
				SceneRef:   scene,
				Mode:       task.Compile,
				InputPath:  "a.cpp",
				OutputPath: "a.o",
			})
		}()
	}
	wg.Wait()

	waitUntil(t, 5*time.Second, func() bool { return !s.IsBusy() })
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxInFlight, 1, "at most one subprocess may run at a time")
}

// A non-zero exit propagates as a failure and still runs the post-hook.
func TestCompilerFailurePropagates(t *testing.T) {
	gs := newTestSettings(t)
	var calls int32Counter
	s := New(gs).WithSpawnFunc(instantSpawn([]string{"err.cpp:1: error"}, 1, &calls))

	var postHookSucceeded bool
	var postHookCalled bool
	var mu sync.Mutex
	postHook := func(ctx context.Context, t *task.Task, succeeded bool) bool {
		mu.Lock()
		defer mu.Unlock()
		postHookCalled = true
		postHookSucceeded = succeeded
		return false
	}

	scene := &task.Scene{Name: "S1"}
	s.AddTask(context.Background(), task.Task{SceneRef: scene, Mode: task.Compile, InputPath: "a.cpp", OutputPath: "a.o", PostHook: postHook})

	waitUntil(t, time.Second, func() bool { return !s.IsBusy() })

	assert.True(t, s.LastFailed())
	assert.Contains(t, s.LastMessages(), "err.cpp:1: error")
	mu.Lock()
	defer mu.Unlock()
	require.True(t, postHookCalled, "expected the post-hook to run")
	assert.False(t, postHookSucceeded, "expected the post-hook to see succeeded=false")
}
