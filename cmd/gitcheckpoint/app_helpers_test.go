package main

import (
	"bytes"
	"context"
	"encoding/json"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitcheckpoint/internal/config"
	"github.com/bashhack/gitcheckpoint/internal/logger"
	"github.com/bashhack/gitcheckpoint/internal/prompt"
	"github.com/bashhack/gitcheckpoint/internal/report"
	"github.com/bashhack/gitcheckpoint/internal/runner"
)

// toolRunner sends git to the real binary and every other tool to a
// scripted FakeRunner.
type toolRunner struct {
	git   runner.CommandRunner
	tools *runner.FakeRunner
}

func (r toolRunner) Run(ctx context.Context, c runner.Command) (runner.Result, error) {
	if c.Name == "git" {
		return r.git.Run(ctx, c)
	}
	return r.tools.Run(ctx, c)
}

type harness struct {
	repo    string
	tools   *runner.FakeRunner
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	signals []int
	opts    AppOptions
}

// newHarness isolates config lookup and log files from the real home
// directory.
func newHarness(t *testing.T, repo string) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	h := &harness{
		repo:   repo,
		tools:  runner.NewFakeRunner(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.opts = AppOptions{
		VersionInfo: config.VersionInfo{Version: "1.2.3", Commit: "abc1234", Date: "2026-01-02"},
		Runner:      toolRunner{git: runner.NewExecRunner(), tools: h.tools},
		Interactor:  prompt.NewAssumeYesInteractor(),
		Stdout:      h.stdout,
		Stderr:      h.stderr,
		Executable:  func() (string, error) { return "/usr/local/bin/gitcheckpoint", nil },
		Signal: func(pid int, _ syscall.Signal) error {
			h.signals = append(h.signals, pid)
			return nil
		},
		Now: func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) },
	}
	return h
}

// run executes one command line against a fresh App.
func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	return h.runContext(t, context.Background(), args...)
}

func (h *harness) runContext(t *testing.T, ctx context.Context, args ...string) int {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	opts := h.opts
	opts.Logger = logger.NewWithOutput(false, "", true, h.stdout, h.stderr)
	app := NewApp(opts)

	if h.repo != "" {
		args = append(args, "--repo", h.repo)
	}
	code := Execute(ctx, app, args)
	require.NoError(t, app.Close())
	return code
}

// result decodes the result block printed by the last run.
func (h *harness) result(t *testing.T) map[string]any {
	t.Helper()
	body, ok := report.Extract(h.stdout.String())
	require.True(t, ok, "no result block in output:\n%s", h.stdout.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

// data returns the result block's data object.
func (h *harness) data(t *testing.T) map[string]any {
	t.Helper()
	d, ok := h.result(t)["data"].(map[string]any)
	require.True(t, ok, "result has no data object")
	return d
}
