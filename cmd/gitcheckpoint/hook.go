package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/monitor"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

func newHookCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the post-commit hook that runs monitor --analyze",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install the post-commit hook",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.runHookInstall(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove the post-commit hook if gitcheckpoint installed it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.runHookUninstall(cmd.Context())
			},
		},
	)
	return cmd
}

func (a *App) runHookInstall(ctx context.Context) error {
	r := report.Result{Command: "hook install"}

	hooksDir, err := a.Git.HooksDir(ctx)
	if err != nil {
		return a.finish(r, err)
	}
	exe, err := a.executable()
	if err != nil {
		return a.finish(r, errors.Wrap(err, "failed to resolve executable path"))
	}

	path, err := monitor.InstallHook(hooksDir, exe, a.Config.RepoPath)
	r.Data = map[string]string{"path": path}
	if errors.Is(err, errors.ErrHookConflict) {
		a.Logger.WarningToUser("%s exists and is not managed by gitcheckpoint; leaving it alone", path)
		r.Action = "conflict"
		return reportedFailure(exitFailure, a.finish(r, err))
	}
	if err != nil {
		return a.finish(r, err)
	}

	a.Logger.Success("Git hook configured at %s", path)
	r.Success = true
	r.Action = "installed"
	return a.finish(r, nil)
}

func (a *App) runHookUninstall(ctx context.Context) error {
	r := report.Result{Command: "hook uninstall"}

	hooksDir, err := a.Git.HooksDir(ctx)
	if err != nil {
		return a.finish(r, err)
	}

	removed, err := monitor.UninstallHook(hooksDir)
	if err != nil {
		return a.finish(r, err)
	}

	r.Success = true
	if removed {
		a.Logger.Success("Removed the gitcheckpoint post-commit hook")
		r.Action = "removed"
	} else {
		a.Logger.InfoToUser("No gitcheckpoint post-commit hook to remove")
		r.Action = "absent"
	}
	return a.finish(r, nil)
}
