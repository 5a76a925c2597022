package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderBuildsGlobalSettings(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, FileName)
	contents := "platform: linux\n" +
		"profile: debug\n" +
		"base_dir: " + dir + "/base\n" +
		"output_dir: " + dir + "/out\n" +
		"extra_header_dirs:\n  - vendor/include\n"
	require.NoError(t, os.WriteFile(settingsPath, []byte(contents), 0o644))

	f, err := NewLoader(settingsPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "linux", f.Platform)
	assert.Equal(t, "debug", f.Profile)

	gs, err := BuildGlobalSettings(f)
	require.NoError(t, err)
	assert.NotEmpty(t, gs.BaseDir(), "expected a base dir to be set")
	assert.Contains(t, gs.HeaderDirs(), "-I"+gs.BaseDir()+"vendor/include")
}

func TestLoaderMissingFileErrors(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	assert.Error(t, err, "expected an error for a missing settings file")
}
