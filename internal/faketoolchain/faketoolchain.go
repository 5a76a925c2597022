// Package faketoolchain stands in for the real g++/ld invocation in
// service tests. It implements scheduler.SpawnFunc without
// ever touching os/exec.
package faketoolchain

import (
	"context"
	"strings"
	"sync"

	"github.com/gdextbuild/compilerd/internal/subprocess"
)

// Rule describes one canned response: the first Rule whose Match
// function returns true for a given argv is used to answer that call.
type Rule struct {
	// Match selects this rule for a given invocation. A nil Match always
	// matches, making the rule a catch-all default.
	Match func(argv []string) bool
	// Lines are emitted on the stdout stream, in order.
	Lines []string
	// ExitCode is reported on the Result once Lines have been delivered.
	ExitCode int
	// Block, if set, holds the response until the channel is closed or
	// receives a value, simulating a long-running compile for dedup/
	// cancellation-adjacent tests.
	Block <-chan struct{}
}

// Stub is a table-driven, goroutine-safe fake SubprocessRunner. Multiple
// goroutines may call Spawn concurrently; Calls is safe to read from any
// goroutine once the caller has synchronized with the relevant Spawn.
type Stub struct {
	mu    sync.Mutex
	rules []Rule
	calls [][]string
}

// New returns a Stub that matches argv against rules in order, falling
// back to ExitCode 0 with no output if nothing matches.
func New(rules ...Rule) *Stub {
	return &Stub{rules: rules}
}

// Spawn implements scheduler.SpawnFunc.
func (s *Stub) Spawn(ctx context.Context, argv []string, dir string) (<-chan subprocess.Line, <-chan subprocess.Result) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), argv...))
	rule := s.match(argv)
	s.mu.Unlock()

	lines := make(chan subprocess.Line, len(rule.Lines))
	for _, l := range rule.Lines {
		lines <- subprocess.Line{Stream: subprocess.Stdout, Text: l}
	}
	close(lines)

	done := make(chan subprocess.Result, 1)
	go func() {
		if rule.Block != nil {
			<-rule.Block
		}
		done <- subprocess.Result{RunID: "fake", ExitCode: rule.ExitCode}
		close(done)
	}()
	return lines, done
}

func (s *Stub) match(argv []string) Rule {
	for _, r := range s.rules {
		if r.Match == nil || r.Match(argv) {
			return r
		}
	}
	return Rule{ExitCode: 0}
}

// Calls returns a defensive copy of every argv Spawn has been invoked
// with, in call order.
func (s *Stub) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount reports how many times Spawn has been invoked.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// AnyCallContains reports whether any recorded argv contains an argument
// with substr as a substring. Handy for asserting which output path a
// spawned invocation targeted without hard-coding full argv equality.
func (s *Stub) AnyCallContains(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, argv := range s.calls {
		for _, a := range argv {
			if strings.Contains(a, substr) {
				return true
			}
		}
	}
	return false
}

// MatchOutput returns a Rule that matches any invocation whose output
// path (the argument immediately following "-o") equals path.
func MatchOutput(path string, lines []string, exitCode int) Rule {
	return Rule{
		Match: func(argv []string) bool {
			for i, a := range argv {
				if a == "-o" && i+1 < len(argv) {
					return argv[i+1] == path
				}
			}
			return false
		},
		Lines:    lines,
		ExitCode: exitCode,
	}
}
