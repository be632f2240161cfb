package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/checkpoint"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

type rollbackFlags struct {
	validate bool
	force    bool
	yes      bool
}

func newRollbackCommand(app *App) *cobra.Command {
	var flags rollbackFlags

	cmd := &cobra.Command{
		Use:   "rollback [reason]",
		Short: "Reset to the latest checkpoint",
		Long: `Resets the current branch to the v0.N-auto tag with the highest N and
records the rollback in the changelog. Uncommitted changes to tracked files
are lost; --force deletes untracked files as well. The changelog is kept.

With --validate the full build runs first and the rollback only happens
when it fails.

Exit codes: 0 rolled back (or validation passed), 1 failure, 2 no
checkpoints to roll back to.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason := checkpoint.DefaultReason
			if len(args) == 1 {
				reason = args[0]
			}
			if flags.validate {
				return app.runValidateAndRollback(cmd.Context(), flags)
			}
			return app.runRollback(cmd.Context(), reason, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.validate, "validate", false, "Run the full build first and roll back only if it fails")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Also delete untracked files (the changelog is kept)")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *App) runRollback(ctx context.Context, reason string, flags rollbackFlags) error {
	svc := a.Checkpoints()
	r := report.Result{Command: "rollback"}

	tag, err := svc.Latest(ctx)
	if err != nil {
		return a.rollbackFailed(r, err)
	}

	a.Logger.StatusMessage("🔄 Rolling back to checkpoint: %s", tag)
	if !flags.yes && !a.Confirm(fmt.Sprintf("Roll back to %s? Uncommitted changes will be lost.", tag)) {
		a.Logger.InfoToUser("Rollback cancelled")
		r.Action = "cancelled"
		return reportedFailure(exitFailure, a.finish(r, errors.New("rollback cancelled")))
	}

	out, err := svc.Rollback(ctx, checkpoint.RollbackOptions{Reason: reason, Force: flags.force})
	r.Data = out
	if err != nil {
		return a.rollbackFailed(r, err)
	}
	return a.rollbackDone(r, out)
}

// runValidateAndRollback never prompts: rolling back is the point of the
// command and only happens when the build is broken.
func (a *App) runValidateAndRollback(ctx context.Context, flags rollbackFlags) error {
	a.Logger.StatusMessage("🔍 Validating current state...")

	out, err := a.Checkpoints().ValidateAndRollback(ctx, a.Validator(), flags.force)
	r := report.Result{Command: "rollback", Data: out}

	if out.Validation != nil {
		a.Logger.WarningToUser("%v. Initiating automatic rollback...", out.Validation.Err())
	}
	if err != nil {
		return a.rollbackFailed(r, err)
	}
	if out.ValidationPassed {
		a.Logger.Success("Current state is valid. No rollback needed.")
		r.Success = true
		r.Action = "validation_passed"
		return a.finish(r, nil)
	}
	return a.rollbackDone(r, out)
}

func (a *App) rollbackDone(r report.Result, out checkpoint.RollbackOutcome) error {
	a.Logger.Success("Rolled back to %s", out.Tag)
	a.Logger.StatusMessage("📝 Reason: %s", out.Reason)
	if !out.ChangelogUpdated {
		a.Logger.WarningToUser("Could not update %s", a.Changelog.Path())
	}

	r.Success = true
	r.Action = "rolled_back"
	r.Data = out
	return a.finish(r, nil)
}

func (a *App) rollbackFailed(r report.Result, err error) error {
	if errors.Is(err, errors.ErrNoCheckpoints) {
		a.Logger.Error("No auto checkpoints found to roll back to")
		r.Action = "no_checkpoints"
		return reportedFailure(exitNoCheckpoints, a.finish(r, err))
	}

	a.Logger.Error("Auto rollback error: %v", err)
	r.Action = "failed"
	return reportedFailure(exitFailure, a.finish(r, err))
}
