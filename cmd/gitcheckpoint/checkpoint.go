package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/checkpoint"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

func newCheckpointCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint [description]",
		Short: "Commit, tag and push the current work as the next checkpoint",
		Long: `Stages every change, commits it as "Auto-checkpoint: <description>",
tags the commit v0.N-auto, pushes the branch and the tag, and records the
checkpoint in the changelog. A clean work tree is skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := checkpoint.DefaultDescription
			if len(args) == 1 {
				description = args[0]
			}
			return app.runCheckpoint(cmd.Context(), description)
		},
	}

	cmd.Flags().Bool("push", true, "Push the branch and tag to the remote")
	cmd.Flags().String("remote", checkpoint.DefaultRemote, "Remote to push to")
	return cmd
}

func (a *App) runCheckpoint(ctx context.Context, description string) error {
	a.Logger.StatusMessage("🔄 Creating auto checkpoint: %s", description)

	out, err := a.Checkpoints().Create(ctx, description)
	r := report.Result{Command: "checkpoint", Data: out}
	if err != nil {
		a.Logger.Error("Error creating auto checkpoint: %v", err)
		r.Action = "failed"
		return reportedFailure(exitFailure, a.finish(r, err))
	}

	r.Success = true
	if out.Skipped {
		a.Logger.InfoToUser("No changes to checkpoint")
		r.Action = "skipped"
		return a.finish(r, nil)
	}

	a.Logger.Success("Auto checkpoint created successfully.")
	a.Logger.StatusMessage("📝 Tag: %s", out.Tag)
	a.Logger.StatusMessage("🔗 Commit: %s", out.Commit)
	if !out.Pushed {
		a.Logger.InfoToUser("Push disabled; the checkpoint exists locally only")
	}
	if !out.ChangelogUpdated {
		a.Logger.WarningToUser("Could not update %s", a.Changelog.Path())
	}
	a.Logger.StatusMessage("⏪ Roll back anytime with: gitcheckpoint rollback")

	r.Action = "created"
	return a.finish(r, nil)
}
