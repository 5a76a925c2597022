package cmd

import (
	"fmt"

	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/pkg/compiler"
)

// loadService reads the settings file at --settings and constructs a
// Service around it, the way the embedding editor would on startup.
func loadService() (*compiler.Service, error) {
	file, err := config.NewLoader(settingsPath).Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if platformOverride.set {
		file.Platform = platformOverride.String()
	}
	if profileOverride.set {
		file.Profile = profileOverride.String()
	}
	settings, err := config.BuildGlobalSettings(file)
	if err != nil {
		return nil, fmt.Errorf("building settings: %w", err)
	}
	return compiler.NewWithSettings(settings), nil
}
