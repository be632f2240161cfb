package main

import (
	"context"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/analyzer"
	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/checkpoint"
	"github.com/bashhack/gitcheckpoint/internal/config"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/git"
	"github.com/bashhack/gitcheckpoint/internal/logger"
	"github.com/bashhack/gitcheckpoint/internal/metrics"
	"github.com/bashhack/gitcheckpoint/internal/prompt"
	"github.com/bashhack/gitcheckpoint/internal/report"
	"github.com/bashhack/gitcheckpoint/internal/runner"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

// AppOptions contains app configuration and dependencies
type AppOptions struct {
	VersionInfo config.VersionInfo

	// Optional components
	Logger     logger.Logger
	Runner     runner.CommandRunner
	Interactor prompt.UserInteractor

	// I/O dependencies
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	Executable func() (string, error)
	Signal     func(pid int, sig syscall.Signal) error
	Now        func() time.Time
}

// App is the gitcheckpoint application. Commands share one App; the
// per-repository components are built by Initialize once the configuration
// is known.
type App struct {
	Config *config.Config
	Logger logger.Logger
	Runner runner.CommandRunner

	Git       *git.Client
	Changelog *changelog.Changelog
	Metrics   *metrics.Recorder

	// I/O streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	interactor  prompt.UserInteractor
	executable  func() (string, error)
	signal      func(pid int, sig syscall.Signal) error
	now         func() time.Time
	versionInfo config.VersionInfo
	configPath  string
	ownsLogger  bool
}

// NewDefaultApp creates an App with standard dependencies
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	return NewApp(AppOptions{
		VersionInfo: versionInfo,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	})
}

// NewApp creates an App with custom dependencies
func NewApp(opts AppOptions) *App {
	app := &App{
		Logger:      opts.Logger,
		Runner:      opts.Runner,
		Stdin:       opts.Stdin,
		Stdout:      opts.Stdout,
		Stderr:      opts.Stderr,
		interactor:  opts.Interactor,
		executable:  opts.Executable,
		signal:      opts.Signal,
		now:         opts.Now,
		versionInfo: opts.VersionInfo,
	}

	// Set defaults for nil dependencies
	if app.Stdin == nil {
		app.Stdin = os.Stdin
	}
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.Runner == nil {
		app.Runner = runner.NewExecRunner()
	}
	if app.executable == nil {
		app.executable = os.Executable
	}
	if app.signal == nil {
		app.signal = syscall.Kill
	}
	if app.now == nil {
		app.now = time.Now
	}
	if app.versionInfo == (config.VersionInfo{}) {
		app.versionInfo = config.DefaultVersionInfo
	}

	return app
}

// Initialize finalizes the configuration and sets up the components not
// provided during construction. The repository must be a git work tree.
func (a *App) Initialize(ctx context.Context) error {
	if a.Config == nil {
		a.Config = config.New()
	}
	a.Config.VersionInfo = a.versionInfo

	if err := a.Config.Finalize(); err != nil {
		if errors.Is(err, errors.ErrInvalidConfiguration) {
			return err
		}
		return errors.Wrap(errors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		stdout := a.Stdout
		if a.Config.Quiet {
			stdout = io.Discard
		}
		a.Logger = logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, !a.Config.Quiet, stdout, a.Stderr)
		a.ownsLogger = true
	}

	isRepo, err := git.IsRepository(ctx, a.Runner, a.Config.RepoPath)
	if err != nil {
		a.Logger.Warning("Failed to check if path is a git repository: %v", err)
		return errors.Wrap(errors.ErrGitOperationFailed, err.Error())
	}
	if !isRepo {
		return errors.NewConfigError("repo", a.Config.RepoPath, errors.ErrNotGitRepository)
	}
	a.Logger.Info("Git repository verified at %s", a.Config.RepoPath)

	if a.Git == nil {
		a.Git = git.New(a.Config.RepoPath, a.Runner).WithStream(a.streamOutput())
	}
	if a.Changelog == nil {
		a.Changelog = changelog.New(a.Config.Changelog)
	}
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}
	if a.interactor == nil {
		if a.Config.NonInteractive {
			a.interactor = prompt.NewAssumeYesInteractor()
		} else {
			a.interactor = &prompt.DefaultInteractor{Reader: a.Stdin, Logger: a.Logger}
		}
	}
	return nil
}

// streamOutput is where push and tool output is echoed while it runs.
func (a *App) streamOutput() io.Writer {
	if a.Config.Quiet {
		return nil
	}
	return a.Stderr
}

// Checkpoints builds the checkpoint service.
func (a *App) Checkpoints() *checkpoint.Service {
	return checkpoint.New(a.Git, a.Changelog, a.Config.CheckpointConfig(), a.Logger,
		checkpoint.WithClock(a.now),
		checkpoint.WithRecorder(a.Metrics),
	)
}

// Validator builds the validator for the repository.
func (a *App) Validator() *validate.Validator {
	opts := []validate.Option{validate.WithObserver(a.Metrics)}
	if w := a.streamOutput(); w != nil && a.Config.Debug {
		opts = append(opts, validate.WithStream(w))
	}
	return validate.New(a.Runner, a.Config.RepoPath, a.Config.ValidatorConfig(), a.Logger, opts...)
}

// Analyzer builds the change analyzer.
func (a *App) Analyzer() *analyzer.Analyzer {
	return analyzer.New(a.Git, a.Config.AnalyzerConfig(), a.Logger)
}

// Confirm asks the user a yes/no question.
func (a *App) Confirm(question string) bool {
	return a.interactor.PromptYesNo(question)
}

// Emit prints the structured result block for a command.
func (a *App) Emit(r report.Result) error {
	format := report.FormatJSON
	if a.Config != nil {
		format = a.Config.ReportFormat()
	}
	return report.Write(a.Stdout, format, r)
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = io.WriteString(a.Stdout, "gitcheckpoint "+a.versionInfo.Version+
		" ("+a.versionInfo.Commit+") built on "+a.versionInfo.Date+"\n")
}

// Close releases resources held by the App
func (a *App) Close() error {
	if a.Logger != nil && a.ownsLogger {
		if err := a.Logger.Close(); err != nil {
			return errors.Wrap(err, "failed to close logger")
		}
	}
	return nil
}
