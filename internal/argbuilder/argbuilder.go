// Package argbuilder implements ArgumentBuilder: a pure
// function from a Task and the current GlobalSettings to the ordered
// compiler/linker argument vector. Ordering here is linker- and
// compiler-sensitive and must not be reordered.
package argbuilder

import (
	"fmt"

	"github.com/gdextbuild/compilerd/internal/config"
	"github.com/gdextbuild/compilerd/internal/platform"
	"github.com/gdextbuild/compilerd/internal/task"
)

// sfmlComponents are the SFML modules every link task needs, in the fixed
// order the original linker invocation used.
var sfmlComponents = []string{"audio", "network", "graphics", "window", "system"}

// apiMacroNames are the three GDevelop API export macros that must be
// defined on every compile task.
var apiMacroNames = []string{"GD_CORE_API", "GD_API", "GD_EXTENSION_API"}

// toolchainBinDir is the fixed MinGW32 bin directory the bundled toolchain
// lives under, regardless of host platform.
const toolchainBinDir = "CppPlatform/MinGW32/bin"

// CompilerPath resolves the g++ binary path for the given platform:
// "<base>/CppPlatform/MinGW32/bin/g++.exe" on Windows, the analogous
// unsuffixed binary elsewhere.
func CompilerPath(base string, p platform.Platform) string {
	if p == platform.Windows {
		return base + toolchainBinDir + "/g++.exe"
	}
	return base + toolchainBinDir + "/g++"
}

// BuildArgs computes the ordered argument vector for t given the current
// global settings. It is a pure function of its inputs: it never mutates
// gs and never touches the filesystem.
func BuildArgs(t task.Task, gs *config.GlobalSettings) []string {
	base := gs.BaseDir()
	var args []string

	// Common prefix (both modes).
	args = append(args, "-o", t.OutputPath)
	args = append(args, "-w")
	args = append(args, "-B"+base+toolchainBinDir)
	if t.Optimize {
		args = append(args, "-O1")
	}

	if t.Mode == task.Compile {
		args = append(args, buildCompileArgs(t, gs, base)...)
	} else {
		args = append(args, buildLinkArgs(t, gs, base)...)
	}
	return args
}

func buildCompileArgs(t task.Task, gs *config.GlobalSettings, base string) []string {
	var args []string

	args = append(args, "-include", gs.EventsHeader())
	args = append(args, "-c", t.InputPath)

	args = append(args, gs.HeaderDirs()...)

	args = append(args, "-nostdinc++")
	for _, d := range t.ExtraHeaderDirs {
		args = append(args, "-I"+d)
	}

	if !t.ForRuntime {
		args = append(args, "-DGD_IDE_ONLY")
	}

	args = append(args, apiMacros(gs.Platform())...)
	args = append(args, profileDefines(gs.Profile())...)

	return args
}

func buildLinkArgs(t task.Task, gs *config.GlobalSettings, base string) []string {
	var args []string

	args = append(args, "-shared")
	args = append(args, t.InputPath)
	args = append(args, t.ExtraObjectPaths...)

	if gs.Platform() == platform.Windows {
		args = append(args, "-L"+base+"CppPlatform/MinGW32/lib/")
	}
	if !t.ForRuntime {
		args = append(args, "-L"+base)
		args = append(args, "-L"+base+"CppPlatform/Extensions/")
	} else {
		args = append(args, "-L"+base+"Runtime/")
		args = append(args, "-L"+base+"CppPlatform/Extensions/Runtime/")
	}

	args = append(args, "-lgdl", "-lstdc++")
	if !t.ForRuntime {
		args = append(args, "-lGDCore")
	}

	suffix := ""
	if gs.Profile() == platform.Debug {
		suffix = "-d"
	}
	for _, comp := range sfmlComponents {
		args = append(args, fmt.Sprintf("-lsfml-%s%s", comp, suffix))
	}

	for _, l := range t.ExtraLibNames {
		args = append(args, "-l"+l)
	}

	return args
}

// apiMacros returns the platform-conditioned import/export macros for
// GD_CORE_API/GD_API/GD_EXTENSION_API.
func apiMacros(p platform.Platform) []string {
	value := ""
	if p == platform.Windows {
		value = "__declspec(dllimport)"
	}
	out := make([]string, 0, len(apiMacroNames))
	for _, name := range apiMacroNames {
		out = append(out, fmt.Sprintf("-D%s=%s", name, value))
	}
	return out
}

// profileDefines returns the build-profile macros. Release and Dev both
// disable asserts and define NDEBUG; Debug defines DEBUG only.
func profileDefines(p platform.Profile) []string {
	switch p {
	case platform.Debug:
		return []string{"-DDEBUG"}
	default: // Release, Dev
		return []string{"-DNDEBUG", "-DBOOST_DISABLE_ASSERTS"}
	}
}
