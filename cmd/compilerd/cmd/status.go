package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the resolved configuration from the settings file",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := loadService()
	if err != nil {
		return err
	}

	fmt.Printf("platform:    %s\n", svc.Platform())
	fmt.Printf("profile:     %s\n", svc.Profile())
	fmt.Printf("base_dir:    %s\n", svc.BaseDir())
	fmt.Printf("output_dir:  %s\n", svc.OutputDir())
	fmt.Printf("busy:        %t\n", svc.IsBusy())
	return nil
}
