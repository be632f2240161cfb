package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

// Response is a scripted outcome for FakeRunner.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Err overrides the error returned; ExitCode is then ignored.
	Err error

	// WaitForContext makes the call block until ctx is done, simulating a
	// hung tool.
	WaitForContext bool

	// Do runs before the response is returned, e.g. to touch files a real
	// command would have written.
	Do func(Command)
}

// FakeRunner is a scripted CommandRunner for tests. Responses are keyed by
// the command line with any leading "-C <dir>" removed, so tests can write
// "git tag -l *auto" regardless of repository path. Several responses for
// the same key are consumed in order; the last one repeats.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []Command

	// Strict makes unscripted commands fail instead of succeeding silently.
	Strict bool
}

// NewFakeRunner creates an empty FakeRunner
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]Response)}
}

// On scripts a response for a command line and returns the runner for chaining.
func (f *FakeRunner) On(cmdline string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = append(f.responses[cmdline], resp)
	return f
}

// Run implements CommandRunner.Run
func (f *FakeRunner) Run(ctx context.Context, c Command) (Result, error) {
	key := Key(c)

	f.mu.Lock()
	f.calls = append(f.calls, c)
	queue, ok := f.responses[key]
	var resp Response
	if ok && len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[key] = queue[1:]
		}
	}
	strict := f.Strict
	f.mu.Unlock()

	if !ok && strict {
		return Result{ExitCode: 127}, &errors.CommandError{
			Name:     c.Name,
			Args:     c.Args,
			ExitCode: 127,
			Err:      errors.Wrap(errors.ErrCommandFailed, fmt.Sprintf("unscripted command %q", key)),
		}
	}

	if resp.Do != nil {
		resp.Do(c)
	}

	if resp.WaitForContext {
		<-ctx.Done()
		return Result{ExitCode: -1}, &errors.CommandError{
			Name:     c.Name,
			Args:     c.Args,
			ExitCode: -1,
			Err:      errors.Join(errors.ErrCommandFailed, ctx.Err()),
		}
	}

	res := Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if c.Stream != nil {
		_, _ = fmt.Fprint(c.Stream, resp.Stdout, resp.Stderr)
	}

	if resp.Err != nil {
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, &errors.CommandError{
			Name:     c.Name,
			Args:     c.Args,
			ExitCode: resp.ExitCode,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
			Err:      errors.Wrap(errors.ErrCommandFailed, fmt.Sprintf("exit status %d", resp.ExitCode)),
		}
	}
	return res, nil
}

// Calls returns the command lines run so far, keyed the same way as On.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = Key(c)
	}
	return out
}

// Commands returns the raw commands run so far.
func (f *FakeRunner) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Called reports whether a command line with the given prefix was run.
func (f *FakeRunner) Called(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// Key renders a command for lookup, dropping a leading "-C <dir>" pair.
func Key(c Command) string {
	args := c.Args
	if len(args) >= 2 && args[0] == "-C" {
		args = args[2:]
	}
	return Command{Name: c.Name, Args: args}.String()
}
