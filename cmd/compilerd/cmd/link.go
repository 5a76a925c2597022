package cmd

import (
	"github.com/gdextbuild/compilerd/internal/task"
	"github.com/spf13/cobra"
)

var (
	linkInput       string
	linkOutput      string
	linkSceneName   string
	linkForRuntime  bool
	linkExtraObject []string
	linkExtraLibs   []string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Submit one link task and wait for it to finish",
	RunE:  runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.Flags().StringVar(&linkInput, "input", "", "primary object file (required)")
	linkCmd.Flags().StringVar(&linkOutput, "output", "", "shared library to produce (required)")
	linkCmd.Flags().StringVar(&linkSceneName, "scene", "cli", "scene label for this task")
	linkCmd.Flags().BoolVar(&linkForRuntime, "for-runtime", false, "select runtime library search paths instead of IDE ones")
	linkCmd.Flags().StringArrayVar(&linkExtraObject, "object", nil, "additional object file to link (repeatable)")
	linkCmd.Flags().StringArrayVar(&linkExtraLibs, "lib", nil, "additional library short-name to link (repeatable)")
	_ = linkCmd.MarkFlagRequired("input")
	_ = linkCmd.MarkFlagRequired("output")
}

func runLink(cmd *cobra.Command, args []string) error {
	svc, err := loadService()
	if err != nil {
		return err
	}

	scene := &task.Scene{Name: linkSceneName}
	done := waitForTaskFinished(svc, scene)

	svc.AddTask(cmd.Context(), task.Task{
		SceneRef:         scene,
		UserName:         linkInput,
		Mode:             task.Link,
		InputPath:        linkInput,
		OutputPath:       linkOutput,
		ExtraObjectPaths: linkExtraObject,
		ExtraLibNames:    linkExtraLibs,
		ForRuntime:       linkForRuntime,
	})

	<-done
	return reportResult(svc)
}
