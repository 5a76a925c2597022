package config

import (
	"fmt"
	"strings"

	"github.com/gdextbuild/compilerd/internal/logger"
	"github.com/gdextbuild/compilerd/internal/platform"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// FileName is the default on-disk settings file name.
const FileName = "compilerd.yaml"

// File is the on-disk shape of the settings file, decoded via viper. It
// layers onto GlobalSettings the way a typical viper-backed config loader
// layers its YAML file onto a typed Config struct.
type File struct {
	Platform        string               `mapstructure:"platform" yaml:"platform"`
	Profile         string               `mapstructure:"profile" yaml:"profile"`
	BaseDir         string               `mapstructure:"base_dir" yaml:"base_dir"`
	OutputDir       string               `mapstructure:"output_dir" yaml:"output_dir"`
	EventsHeader    string               `mapstructure:"events_header" yaml:"events_header,omitempty"`
	ExtraHeaderDirs []string             `mapstructure:"extra_header_dirs" yaml:"extra_header_dirs"`
	Logging         logger.LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Loader reads a settings file from disk via viper and produces both the
// raw File and a ready-to-use GlobalSettings.
type Loader struct {
	path  string
	viper *viper.Viper
}

// NewLoader creates a Loader for the settings file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, viper: viper.New()}
}

// Load reads and parses the settings file, applying CPPBUILD_-prefixed
// environment variable overrides.
func (l *Loader) Load() (*File, error) {
	l.viper.SetConfigFile(l.path)
	l.viper.SetConfigType("yaml")
	l.viper.SetEnvPrefix("CPPBUILD")
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()

	l.viper.SetDefault("platform", "linux")
	l.viper.SetDefault("profile", "dev")

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings file %q: %w", l.path, err)
	}

	var f File
	if err := l.viper.Unmarshal(&f, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("parsing settings file %q: %w", l.path, err)
	}
	return &f, nil
}

// ParsePlatform converts a settings-file platform string to platform.Platform.
func ParsePlatform(s string) (platform.Platform, error) {
	switch strings.ToLower(s) {
	case "windows":
		return platform.Windows, nil
	case "linux", "":
		return platform.Linux, nil
	case "mac", "darwin":
		return platform.Mac, nil
	default:
		return 0, fmt.Errorf("unknown platform %q", s)
	}
}

// ParseProfile converts a settings-file profile string to platform.Profile.
func ParseProfile(s string) (platform.Profile, error) {
	switch strings.ToLower(s) {
	case "release":
		return platform.Release, nil
	case "dev", "":
		return platform.Dev, nil
	case "debug":
		return platform.Debug, nil
	default:
		return 0, fmt.Errorf("unknown profile %q", s)
	}
}

// BuildGlobalSettings turns a loaded File into a ready GlobalSettings,
// applying base dir, output dir, events header override, and any extra
// header dirs in order.
func BuildGlobalSettings(f *File) (*GlobalSettings, error) {
	plat, err := ParsePlatform(f.Platform)
	if err != nil {
		return nil, err
	}
	profile, err := ParseProfile(f.Profile)
	if err != nil {
		return nil, err
	}

	gs := New(plat, profile)
	if f.BaseDir != "" {
		if err := gs.SetBaseDir(f.BaseDir); err != nil {
			return nil, err
		}
	}
	if f.OutputDir != "" {
		if err := gs.SetOutputDir(f.OutputDir); err != nil {
			return nil, err
		}
	}
	if f.EventsHeader != "" {
		gs.SetEventsHeader(f.EventsHeader)
	}
	for _, d := range f.ExtraHeaderDirs {
		gs.AddHeaderDir(d)
	}
	return gs, nil
}
