package cmd

import (
	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/internal/platform"
	"github.com/spf13/pflag"
)

// platformValue and profileValue implement pflag.Value directly so the
// parse error surfaces at flag-parse time instead of deep in loadService.
// An unset override flag leaves the settings file's value untouched.
type platformValue struct {
	set   bool
	value platform.Platform
}

func (p *platformValue) String() string {
	if !p.set {
		return ""
	}
	return p.value.String()
}

func (p *platformValue) Set(s string) error {
	v, err := config.ParsePlatform(s)
	if err != nil {
		return err
	}
	p.value, p.set = v, true
	return nil
}

func (p *platformValue) Type() string { return "platform" }

type profileValue struct {
	set   bool
	value platform.Profile
}

func (p *profileValue) String() string {
	if !p.set {
		return ""
	}
	return p.value.String()
}

func (p *profileValue) Set(s string) error {
	v, err := config.ParseProfile(s)
	if err != nil {
		return err
	}
	p.value, p.set = v, true
	return nil
}

func (p *profileValue) Type() string { return "profile" }

// registerOverrideFlags wires the platform/profile override flags onto flags.
func registerOverrideFlags(flags *pflag.FlagSet) {
	flags.Var(&platformOverride, "platform", "override the settings file's platform (windows, linux, mac)")
	flags.Var(&profileOverride, "profile", "override the settings file's profile (release, dev, debug)")
}
