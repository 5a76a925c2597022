// Package subprocess launches a compiler or linker invocation without
// blocking the caller, streaming its stdout/stderr line by line and
// delivering a single terminal Result once the process exits.
package subprocess

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/gdextbuild/compilerd/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stream identifies which pipe a Line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one line of output from the running process.
type Line struct {
	Stream Stream
	Text   string
}

// Result is delivered exactly once on the Done channel when the process
// terminates, including when it never started at all.
type Result struct {
	RunID    string
	ExitCode int
	// Err is set when the process could not be spawned or waited on (then
	// ExitCode is synthetic, -1), or when reading its output failed (then
	// ExitCode is the process's own exit code).
	Err error
}

// Runner launches argv as a child process.
type Runner struct{}

// New returns a Runner.
func New() *Runner {
	return &Runner{}
}

// Start launches argv[0] with argv[1:] as arguments in dir and returns
// immediately. The returned lines channel is closed once both stdout and
// stderr have reached EOF; the returned done channel receives exactly one
// Result afterward and is then closed. Cancelling ctx signals the process
// (see exec.CommandContext); callers still must drain lines and done to
// avoid leaking the goroutine.
//
// Draining each pipe with a line-oriented bufio.Scanner, rather than
// polling for a newline before reading, means a process whose final
// line lacks a trailing newline still terminates promptly instead of
// spinning until one appears.
func (r *Runner) Start(ctx context.Context, argv []string, dir string) (<-chan Line, <-chan Result) {
	runID := uuid.NewString()
	lines := make(chan Line, 64)
	done := make(chan Result, 1)

	if len(argv) == 0 {
		close(lines)
		done <- Result{RunID: runID, ExitCode: -1, Err: errors.New("subprocess: empty argument vector")}
		close(done)
		return lines, done
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		close(lines)
		done <- Result{RunID: runID, ExitCode: -1, Err: fmt.Errorf("subprocess: stdout pipe: %w", err)}
		close(done)
		return lines, done
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		close(lines)
		done <- Result{RunID: runID, ExitCode: -1, Err: fmt.Errorf("subprocess: stderr pipe: %w", err)}
		close(done)
		return lines, done
	}

	logger.Debug().Str("run_id", runID).Str("argv0", argv[0]).Int("argc", len(argv)).Msg("starting subprocess")

	if err := cmd.Start(); err != nil {
		close(lines)
		done <- Result{RunID: runID, ExitCode: -1, Err: fmt.Errorf("subprocess: spawn failed: %w", err)}
		close(done)
		return lines, done
	}

	go r.drainAndWait(cmd, runID, stdout, stderr, lines, done)

	return lines, done
}

func (r *Runner) drainAndWait(cmd *exec.Cmd, runID string, stdout, stderr io.Reader, lines chan<- Line, done chan<- Result) {
	defer close(done)

	var eg errgroup.Group
	eg.Go(func() error { return drainPipe(stdout, Stdout, runID, lines) })
	eg.Go(func() error { return drainPipe(stderr, Stderr, runID, lines) })
	drainErr := eg.Wait()
	close(lines)

	waitErr := cmd.Wait()

	result := Result{RunID: runID}
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		result.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		result.Err = fmt.Errorf("subprocess: wait failed: %w", waitErr)
	}
	if drainErr != nil && result.Err == nil {
		result.Err = fmt.Errorf("subprocess: reading output: %w", drainErr)
	}

	logger.Debug().Str("run_id", runID).Int("exit_code", result.ExitCode).Msg("subprocess finished")
	done <- result
}

func drainPipe(r io.Reader, stream Stream, runID string, lines chan<- Line) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		text := scanner.Text()
		lines <- Line{Stream: stream, Text: text}
		logger.Debug().Str("run_id", runID).Str("stream", stream.String()).Msg(text)
	}
	return scanner.Err()
}
