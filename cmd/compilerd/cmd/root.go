package cmd

import (
	"fmt"
	"os"

	"github.com/gdextbuild/compilerd/internal/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"

	debug        bool
	settingsPath string
	logsDir      string

	platformOverride platformValue
	profileOverride  profileValue

	// colorOutput: plain text when stdout isn't a terminal (piped into
	// a log file, CI), color otherwise. Only affects how this CLI prints
	// its own output.
	colorOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "compilerd",
	Short: "Serialized C++ compile/link task scheduler",
	Long: `compilerd drives the compile/link task scheduler the embedding
editor otherwise talks to as a library (pkg/compiler).

Quick start:
  compilerd init                                   # write a default settings file
  compilerd compile --input a.cpp --output a.o     # run one compile task
  compilerd link --input a.o --output a.so         # run one link task
  compilerd status                                 # print the resolved configuration`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		colorOutput = term.IsTerminal(int(os.Stdout.Fd()))

		if debug {
			if err := logger.NewLogger(&logger.Options{
				LogsDir:    logsDir,
				FileConfig: &logger.LoggingConfig{},
			}); err != nil {
				fmt.Fprintf(os.Stderr, "compilerd: logger init failed: %v\n", err)
				logger.Init()
			}
		} else {
			logger.Init()
		}
	},
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	home, _ := os.UserHomeDir()
	defaultSettings := "compilerd.yaml"
	defaultLogsDir := ".compilerd/logs"
	if home != "" {
		defaultLogsDir = home + "/.compilerd/logs"
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable file-backed debug logging")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", defaultSettings, "path to the compilerd settings YAML file")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", defaultLogsDir, "directory for debug log files (with --debug)")
	registerOverrideFlags(rootCmd.PersistentFlags())

	rootCmd.SetVersionTemplate(fmt.Sprintf("compilerd %s (commit: %s)\n", Version, Commit))
}
