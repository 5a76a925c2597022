package compiler

import (
	"fmt"
	"sync"

	"github.com/gdextbuild/compilerd/internal/config"
)

// Init/Default/Shutdown are a thin compatibility accessor for callers
// (the editor's main loop) that want one process-wide instance rather
// than plumbing a Service reference everywhere. New callers should
// prefer an explicit *Service handle threaded through construction.

var (
	defaultMu  sync.Mutex
	defaultSvc *Service
)

// Init creates the process-wide default Service from an on-disk settings
// file, replacing any previously initialized instance. Callers that want
// an explicit handle instead should use New/NewWithSettings directly and
// ignore this accessor entirely.
func Init(settingsPath string) (*Service, error) {
	loader := config.NewLoader(settingsPath)
	file, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("compiler: loading settings: %w", err)
	}
	settings, err := config.BuildGlobalSettings(file)
	if err != nil {
		return nil, fmt.Errorf("compiler: building settings: %w", err)
	}

	svc := NewWithSettings(settings)

	defaultMu.Lock()
	defaultSvc = svc
	defaultMu.Unlock()
	return svc, nil
}

// Default returns the process-wide Service created by Init, or nil if
// Init has not been called. Most callers should prefer holding the
// *Service returned by Init/New directly.
func Default() *Service {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSvc
}

// Shutdown clears the process-wide default instance. It does not abort
// any task the default Service's scheduler has in flight; there is no
// cooperative cancellation of a running compiler process.
func Shutdown() {
	defaultMu.Lock()
	defaultSvc = nil
	defaultMu.Unlock()
}
