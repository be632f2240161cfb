package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/lock"
	"github.com/bashhack/gitcheckpoint/internal/monitor"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

type monitorFlags struct {
	start   bool
	stop    bool
	analyze bool
}

// monitorSession summarizes a foreground monitor run.
type monitorSession struct {
	Repo       string    `json:"repo" yaml:"repo"`
	PID        int       `json:"pid" yaml:"pid"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	StoppedAt  time.Time `json:"stopped_at" yaml:"stopped_at"`
	Uptime     string    `json:"uptime" yaml:"uptime"`
	LastReport string    `json:"last_report,omitempty" yaml:"last_report,omitempty"`
}

func newMonitorCommand(app *App) *cobra.Command {
	var flags monitorFlags

	cmd := &cobra.Command{
		Use:   "monitor (--start | --stop | --analyze)",
		Short: "Watch the repository and suggest checkpoints or rollbacks",
		Long: `--start runs the monitor in the foreground until interrupted. It analyzes
the latest commit on a fixed interval and whenever the HEAD reflog changes,
suggests a checkpoint after significant changes and a rollback when the
quick validation fails. It never checkpoints or rolls back by itself.

--stop signals the monitor running for this repository.
--analyze runs a single cycle; the post-commit hook calls it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case flags.start:
				return app.runMonitorStart(cmd.Context())
			case flags.stop:
				return app.runMonitorStop()
			default:
				return app.runMonitorAnalyze(cmd.Context())
			}
		},
	}

	cmd.Flags().BoolVar(&flags.start, "start", false, "Run the monitor until interrupted")
	cmd.Flags().BoolVar(&flags.stop, "stop", false, "Stop the running monitor")
	cmd.Flags().BoolVar(&flags.analyze, "analyze", false, "Run one analysis cycle and exit")
	cmd.MarkFlagsMutuallyExclusive("start", "stop", "analyze")
	cmd.MarkFlagsOneRequired("start", "stop", "analyze")

	cmd.Flags().Duration("interval", monitor.DefaultInterval, "Time between analysis cycles")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9108)")
	cmd.Flags().Bool("watch", true, "Trigger a cycle when the HEAD reflog changes")
	cmd.Flags().Bool("hook", true, "Install the post-commit hook on start")
	return cmd
}

// newMonitor wires the monitor for the repository. The reflog watch and hook
// are only set up for long-running use.
func (a *App) newMonitor(ctx context.Context, longRunning bool) *monitor.Monitor {
	cfg := monitor.Config{
		Interval: a.Config.Monitor.Interval,
		Debounce: a.Config.Monitor.Debounce,
	}
	opts := []monitor.Option{monitor.WithRecorder(a.Metrics)}

	if longRunning {
		opts = append(opts, monitor.WithReportHandler(a.printReport))

		if a.Config.Monitor.Watch {
			if gitDir, err := a.Git.GitDir(ctx); err != nil {
				a.Logger.Warning("Reflog watch disabled: %v", err)
			} else {
				cfg.WatchDir = filepath.Join(gitDir, "logs")
			}
		}

		if a.Config.Monitor.InstallHook {
			hooksDir, err := a.Git.HooksDir(ctx)
			exe, exeErr := a.executable()
			switch {
			case err != nil:
				a.Logger.Warning("Could not locate hooks directory: %v", err)
			case exeErr != nil:
				a.Logger.Warning("Could not resolve executable path: %v", exeErr)
			default:
				cfg.Hook = &monitor.HookConfig{Dir: hooksDir, Executable: exe, RepoPath: a.Config.RepoPath}
			}
		}

		if addr := a.Config.Monitor.MetricsAddr; addr != "" {
			opts = append(opts, monitor.WithService(func(ctx context.Context) error {
				return a.Metrics.Serve(ctx, addr)
			}))
			a.Logger.InfoToUser("Serving metrics on %s/metrics", addr)
		}
	}

	return monitor.New(a.Analyzer(), a.Validator(), cfg, a.Logger, opts...)
}

func (a *App) runMonitorAnalyze(ctx context.Context) error {
	rep := a.newMonitor(ctx, false).Cycle(ctx)
	a.printReport(rep)

	r := report.Result{Command: "monitor", Action: rep.Outcome(), Data: rep}
	if ce, ok := rep.(monitor.CycleError); ok {
		return reportedFailure(exitFailure, a.finish(r, ce.Err))
	}
	r.Success = true
	return a.finish(r, nil)
}

func (a *App) runMonitorStart(ctx context.Context) error {
	r := report.Result{Command: "monitor"}

	locker, err := lock.New(a.Config.RepoPath)
	if err != nil {
		return a.finish(r, err)
	}
	if err := locker.Acquire(); err != nil {
		if errors.Is(err, errors.ErrAlreadyRunning) {
			a.Logger.InfoToUser("A monitor is already running for %s", a.Config.RepoPath)
			r.Success = true
			r.Action = "already_running"
			return a.finish(r, nil)
		}
		return a.finish(r, errors.Wrap(errors.ErrLockAcquisitionFailure, err.Error()))
	}
	defer func() {
		if err := locker.Release(); err != nil {
			a.Logger.Error("Failed to release lock during cleanup: %v", err)
		}
	}()

	m := a.newMonitor(ctx, true)
	session := monitorSession{Repo: a.Config.RepoPath, PID: os.Getpid(), StartedAt: a.now()}

	a.Logger.Success("Monitoring %s every %s", a.Config.RepoPath, a.Config.Monitor.Interval)
	a.Logger.StatusMessage("Stop with Ctrl+C or: gitcheckpoint monitor --stop --repo %s", a.Config.RepoPath)

	runErr := m.Run(ctx)

	session.StoppedAt = a.now()
	session.Uptime = strings.TrimSpace(humanize.RelTime(session.StartedAt, session.StoppedAt, "", ""))
	if last := m.LastReport(); last != nil {
		session.LastReport = last.Outcome()
	}
	a.Logger.InfoToUser("Monitor stopped after %s", session.Uptime)

	r.Action = "stopped"
	r.Data = session
	r.Success = runErr == nil
	return a.finish(r, runErr)
}

func (a *App) runMonitorStop() error {
	r := report.Result{Command: "monitor"}

	pid, err := lock.RunningOwner(a.Config.RepoPath)
	if errors.Is(err, errors.ErrNotRunning) {
		a.Logger.InfoToUser("No monitor is running for %s", a.Config.RepoPath)
		r.Success = true
		r.Action = "not_running"
		return a.finish(r, nil)
	}
	if err != nil {
		return a.finish(r, err)
	}

	if err := a.signal(pid, syscall.SIGTERM); err != nil {
		return a.finish(r, errors.Wrapf(err, "failed to signal monitor process %d", pid))
	}

	a.Logger.Success("Stop signal sent to monitor (PID %d)", pid)
	r.Success = true
	r.Action = "stop_requested"
	r.Data = map[string]int{"pid": pid}
	return a.finish(r, nil)
}

// printReport tells the user what a cycle concluded.
func (a *App) printReport(rep monitor.Report) {
	switch v := rep.(type) {
	case monitor.NoAction:
		a.Logger.InfoToUser("%s", v.Reason)
	case monitor.CheckpointSuggestion:
		a.Logger.StatusMessage("🎯 Checkpoint suggested: %s", v.Summary)
		for _, d := range v.Details {
			a.Logger.StatusMessage("   %s", d)
		}
		a.Logger.StatusMessage("💡 Run: %s", v.Command)
	case monitor.RollbackSuggestion:
		a.Logger.WarningToUser("%s", v.Reason)
		a.Logger.StatusMessage("💡 Run: %s", v.Command)
	case monitor.CycleError:
		a.Logger.Error("Monitor cycle failed: %v", v.Err)
	}
}
