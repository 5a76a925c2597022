// Package config implements GlobalSettings: the base/output
// directories and include-directory set shared by every ArgumentBuilder
// invocation, plus the on-disk settings loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gdextbuild/compilerd/internal/logger"
	"github.com/gdextbuild/compilerd/internal/platform"
	"github.com/gofrs/flock"
)

// defaultEventsHeaderRel is the force-included header every Compile task gets.
// It must be settable and defaults to a path under base_dir rather than an
// absolute path baked in at build time.
const defaultEventsHeaderRel = "scripts/events.h"

// GlobalSettings holds the directories and include-path set ArgumentBuilder
// reads from. It is safe for concurrent use; callers should still avoid
// reconfiguring while a task is running, but reads and writes here never
// race each other or corrupt state.
type GlobalSettings struct {
	mu sync.RWMutex

	platform platform.Platform
	profile  platform.Profile

	baseDir      string
	outputDir    string
	eventsHeader string
	headerDirs   *headerSet

	// fileLock serializes SetBaseDir/SetOutputDir against a concurrent
	// external process (e.g. another editor instance) rewriting the same
	// on-disk settings file; it is nil, and locking a no-op, unless
	// WithFileLock was called.
	fileLock *flock.Flock
}

// New creates GlobalSettings for the given platform/profile with empty
// base/output directories. Callers must call SetBaseDir before scheduling
// any task.
func New(plat platform.Platform, profile platform.Profile) *GlobalSettings {
	return &GlobalSettings{
		platform:   plat,
		profile:    profile,
		headerDirs: newHeaderSet(),
	}
}

// WithFileLock attaches an advisory lock file used to serialize SetBaseDir
// and SetOutputDir against external mutators of the same settings file.
func (g *GlobalSettings) WithFileLock(lockPath string) *GlobalSettings {
	g.fileLock = flock.New(lockPath)
	return g
}

func normalizeDir(dir string) string {
	if dir == "" {
		return dir
	}
	dir = filepath.ToSlash(dir)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}

func (g *GlobalSettings) withLock(fn func() error) error {
	if g.fileLock == nil {
		return fn()
	}
	if err := g.fileLock.Lock(); err != nil {
		return fmt.Errorf("acquiring settings lock: %w", err)
	}
	defer g.fileLock.Unlock()
	return fn()
}

// SetBaseDir normalizes dir and rebuilds the fixed set of standard include
// directories relative to the new base, removing the entries derived from
// the previous base so the header-dirs set never accumulates stale paths.
// Also refreshes EventsHeader if it was still pointing at the default
// location under the old base.
func (g *GlobalSettings) SetBaseDir(dir string) error {
	return g.withLock(func() error {
		g.mu.Lock()
		defer g.mu.Unlock()

		oldBase := g.baseDir
		newBase := normalizeDir(dir)

		wasDefaultEventsHeader := g.eventsHeader == "" || (oldBase != "" && g.eventsHeader == oldBase+defaultEventsHeaderRel)

		for _, rel := range standardHeaderDirs(g.platform) {
			if oldBase != "" {
				g.headerDirs.Remove(includeFlag(oldBase + rel))
			}
			g.headerDirs.Add(includeFlag(newBase + rel))
		}

		g.baseDir = newBase
		if wasDefaultEventsHeader {
			g.eventsHeader = newBase + defaultEventsHeaderRel
		}

		logger.Info().Str("base_dir", newBase).Msg("base directory updated")
		return nil
	})
}

// SetOutputDir normalizes dir and creates it if absent.
func (g *GlobalSettings) SetOutputDir(dir string) error {
	return g.withLock(func() error {
		g.mu.Lock()
		normalized := normalizeDir(dir)
		g.outputDir = normalized
		g.mu.Unlock()

		if err := os.MkdirAll(normalized, 0o755); err != nil {
			return fmt.Errorf("creating output directory %q: %w", normalized, err)
		}
		return nil
	})
}

// AddHeaderDir resolves dir to an absolute path against base_dir and
// inserts it into the header-dirs set idempotently.
func (g *GlobalSettings) AddHeaderDir(dir string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	abs := dir
	if !filepath.IsAbs(dir) {
		abs = filepath.ToSlash(filepath.Join(g.baseDir, dir))
	}
	g.headerDirs.Add(includeFlag(abs))
}

// SetEventsHeader overrides the force-included header path.
func (g *GlobalSettings) SetEventsHeader(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eventsHeader = path
}

func (g *GlobalSettings) BaseDir() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.baseDir
}

func (g *GlobalSettings) OutputDir() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.outputDir
}

func (g *GlobalSettings) EventsHeader() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.eventsHeader
}

// HeaderDirs returns a defensive copy of the header-dirs set in insertion
// order, each entry already prefixed with the include flag.
func (g *GlobalSettings) HeaderDirs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.headerDirs.Slice()
}

func (g *GlobalSettings) Platform() platform.Platform { return g.platform }
func (g *GlobalSettings) Profile() platform.Profile   { return g.profile }

func includeFlag(path string) string {
	return "-I" + path
}

// standardHeaderDirs returns the fixed, platform-specific include
// directories (relative to base_dir) that SetBaseDir keeps in sync.
func standardHeaderDirs(p platform.Platform) []string {
	common := []string{
		"CppPlatform/include/GDL",
		"CppPlatform/include/Core",
		"CppPlatform/include/boost",
		"CppPlatform/include/SFML/include",
		"CppPlatform/include/wxwidgets/include",
		"CppPlatform/include/wxwidgets/lib/gcc_dll/msw",
		"CppPlatform/Extensions/include",
	}

	var platformSpecific []string
	switch p {
	case platform.Windows:
		platformSpecific = []string{
			"CppPlatform/MinGW32/include",
			"CppPlatform/MinGW32/lib/gcc/mingw32/4.5.2/include/c++",
			"CppPlatform/MinGW32/lib/gcc/mingw32/4.5.2/include/c++/mingw32",
		}
	case platform.Linux:
		platformSpecific = []string{
			"CppPlatform/include/linux/usr/include/i386-linux-gnu/",
			"CppPlatform/include/linux/usr/include",
			"CppPlatform/include/linux/usr/include/c++/4.6/",
			"CppPlatform/include/linux/usr/include/c++/4.6/i686-linux-gnu",
			"CppPlatform/include/linux/usr/include/c++/4.6/backward",
		}
	case platform.Mac:
		platformSpecific = nil
	}

	return append(append([]string{}, platformSpecific...), common...)
}
