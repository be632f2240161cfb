package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bashhack/gitcheckpoint/internal/config"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

// flagKeys maps command-line flags to configuration keys. A flag only
// overrides the config file and environment when it is set.
var flagKeys = map[string]string{
	"repo":            "repo",
	"debug":           "debug",
	"log-file":        "log_file",
	"quiet":           "quiet",
	"non-interactive": "non_interactive",
	"format":          "format",
	"push":            "checkpoint.push",
	"remote":          "checkpoint.remote",
	"timeout":         "validator.timeout",
	"interval":        "monitor.interval",
	"metrics-addr":    "monitor.metrics_addr",
	"watch":           "monitor.watch",
	"hook":            "monitor.install_hook",
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	root := newRootCommand(app)
	root.SetArgs(args)
	root.SetIn(app.Stdin)
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	if !alreadyReported(err) {
		_, _ = fmt.Fprintf(app.Stderr, "❌ Error: %v\n", err)
	}
	return exitCode(err)
}

func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "gitcheckpoint",
		Short: "Automatic git checkpoints and rollbacks for AI-assisted development",
		Long: `gitcheckpoint records known-good states of a repository as tagged commits
(v0.N-auto), rolls back to the latest one on demand or when the build breaks,
and can watch the repository to suggest when a checkpoint is due.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "Config file (default .gitcheckpoint.yaml in the repository, then $HOME)")
	pf.String("repo", "", "Path to the repository (default: current directory)")
	pf.String("format", string(report.FormatJSON), "Result block format: json, yaml or none")
	pf.Bool("debug", false, "Enable debug logging")
	pf.String("log-file", "", "Path to the debug log file (default: $XDG_DATA_HOME/gitcheckpoint/logs)")
	pf.BoolP("quiet", "q", false, "Only print errors and the result block")
	pf.Bool("non-interactive", false, "Never prompt; confirmations are assumed")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(errors.ErrInvalidFlag, err.Error())
	})

	root.AddCommand(
		newCheckpointCommand(app),
		newRollbackCommand(app),
		newMonitorCommand(app),
		newValidateCommand(app),
		newListCommand(app),
		newHookCommand(app),
		newVersionCommand(app),
	)
	return root
}

// setup loads the configuration for cmd and initializes the app. A failure
// is reported in the result block before it is returned.
func (a *App) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			bindErr = errors.Join(bindErr, loader.BindFlag(key, f))
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := loader.Load(a.configPath)
	if err != nil {
		_ = a.Emit(report.Result{Command: cmd.Name(), Error: err.Error()})
		return err
	}
	a.Config = cfg

	if err := a.Initialize(cmd.Context()); err != nil {
		_ = a.Emit(report.Result{Command: cmd.Name(), Error: err.Error()})
		return err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		a.Logger.Info("Using config file %s", used)
	}
	return nil
}

// finish prints the result block and passes err through.
func (a *App) finish(r report.Result, err error) error {
	if err != nil && r.Error == "" {
		r.Error = err.Error()
	}
	if emitErr := a.Emit(r); emitErr != nil {
		return errors.Join(err, emitErr)
	}
	return err
}

// userOut is where tables and other terminal-only output go.
func (a *App) userOut() io.Writer {
	if a.Config != nil && a.Config.Quiet {
		return io.Discard
	}
	return a.Stdout
}
