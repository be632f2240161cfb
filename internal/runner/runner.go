package runner

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

// Command describes one external process invocation.
type Command struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Name is the executable, resolved through PATH.
	Name string

	// Args are passed to the executable as-is; no shell is involved.
	Args []string

	// Env is appended to the inherited environment.
	Env []string

	// Stream, when set, receives a copy of stdout and stderr as the process
	// writes them. Output is still captured in the Result.
	Stream io.Writer
}

// String renders the command line for logs and fake lookups.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds what a finished process produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CommandRunner defines an interface for executing commands. Every git and
// build tool invocation in gitcheckpoint goes through it.
type CommandRunner interface {
	// Run executes the command and blocks until it exits or ctx is done.
	// A non-zero exit returns the captured Result together with a
	// *errors.CommandError.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner is the default implementation of CommandRunner
// that delegates to the os/exec package
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.Run
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, c.Stream)
		cmd.Stderr = io.MultiWriter(&stderr, c.Stream)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	// A killed process reports -1; surface the context error so callers can
	// tell a timeout from an ordinary failure. A program that never started
	// also reports -1 and keeps exec.ErrNotFound in the chain.
	cause := errors.Errorf("%w: %w", errors.ErrCommandFailed, err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		cause = errors.Join(errors.ErrCommandFailed, ctxErr)
	}

	return res, &errors.CommandError{
		Name:     c.Name,
		Args:     c.Args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      cause,
	}
}
