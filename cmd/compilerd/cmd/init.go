package cmd

import (
	"fmt"
	"os"

	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/internal/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

// defaultSettings is marshaled to YAML at init time rather than kept as a
// literal string, so the written file always matches config.File's current
// shape.
var defaultSettings = config.File{
	Platform:        "linux",
	Profile:         "dev",
	ExtraHeaderDirs: []string{},
	Logging: logger.LoggingConfig{
		MaxSizeMB:  50,
		MaxAgeDays: 7,
		MaxBackups: 3,
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	Long: `Creates a compilerd.yaml settings file at --settings (default ./compilerd.yaml)
with empty base_dir/output_dir placeholders for the caller to fill in.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing settings file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(settingsPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", settingsPath)
	}

	out, err := yaml.Marshal(defaultSettings)
	if err != nil {
		return fmt.Errorf("marshaling default settings: %w", err)
	}
	if err := os.WriteFile(settingsPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", settingsPath, err)
	}

	fmt.Printf("wrote %s\n", settingsPath)
	return nil
}
