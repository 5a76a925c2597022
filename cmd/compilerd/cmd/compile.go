package cmd

import (
	"fmt"

	"github.com/gdextbuild/compilerd/internal/notifier"
	"github.com/gdextbuild/compilerd/internal/task"
	"github.com/spf13/cobra"
)

var (
	compileInput      string
	compileOutput     string
	compileSceneName  string
	compileOptimize   bool
	compileForRuntime bool
	compileHeaderDirs []string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Submit one compile task and wait for it to finish",
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVar(&compileInput, "input", "", "source file to compile (required)")
	compileCmd.Flags().StringVar(&compileOutput, "output", "", "object file to produce (required)")
	compileCmd.Flags().StringVar(&compileSceneName, "scene", "cli", "scene label for this task")
	compileCmd.Flags().BoolVar(&compileOptimize, "optimize", false, "pass -O1")
	compileCmd.Flags().BoolVar(&compileForRuntime, "for-runtime", false, "select runtime search paths/macros instead of IDE ones")
	compileCmd.Flags().StringArrayVar(&compileHeaderDirs, "header-dir", nil, "extra include directory (repeatable)")
	_ = compileCmd.MarkFlagRequired("input")
	_ = compileCmd.MarkFlagRequired("output")
}

func runCompile(cmd *cobra.Command, args []string) error {
	svc, err := loadService()
	if err != nil {
		return err
	}

	scene := &task.Scene{Name: compileSceneName}
	done := waitForTaskFinished(svc, scene)

	svc.AddTask(cmd.Context(), task.Task{
		SceneRef:        scene,
		UserName:        compileInput,
		Mode:            task.Compile,
		InputPath:       compileInput,
		OutputPath:      compileOutput,
		ExtraHeaderDirs: compileHeaderDirs,
		Optimize:        compileOptimize,
		ForRuntime:      compileForRuntime,
	})

	<-done
	return reportResult(svc)
}

// waitForTaskFinished subscribes to svc and returns a channel that's
// closed the first time a TaskFinished event for scene is delivered. It
// also unsubscribes itself once that happens.
func waitForTaskFinished(svc interface {
	Subscribe(notifier.Func) int
	Unsubscribe(int)
}, scene *task.Scene) <-chan struct{} {
	done := make(chan struct{})
	var id int
	id = svc.Subscribe(func(ev notifier.Event) {
		if ev.Kind == notifier.TaskFinished && ev.Scene == scene {
			svc.Unsubscribe(id)
			close(done)
		}
	})
	return done
}

func reportResult(svc interface {
	LastFailed() bool
	LastMessages() string
}) error {
	if msgs := svc.LastMessages(); msgs != "" {
		fmt.Println(msgs)
	}
	if svc.LastFailed() {
		return fmt.Errorf("task failed")
	}
	fmt.Println(colorize("done", "\033[32m"))
	return nil
}

// colorize wraps s in the ANSI escape code when stdout is a terminal.
func colorize(s, code string) string {
	if !colorOutput {
		return s
	}
	return code + s + "\033[0m"
}
