package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/report"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

func newValidateCommand(app *App) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Type-check and lint the project, or build it with --full",
		Long: `The quick path runs the type-check and then lint; lint warnings are
tolerated, lint errors fail. --full runs only the production build instead,
and any non-zero exit fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runValidate(cmd.Context(), full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Run the production build instead of type-check and lint")
	cmd.Flags().Duration("timeout", validate.DefaultTimeout, "Time limit for each validation step")
	return cmd
}

func (a *App) runValidate(ctx context.Context, full bool) error {
	v := a.Validator()

	var res validate.Result
	if full {
		a.Logger.StatusMessage("🔍 Full validation (production build)...")
		res = v.Full(ctx)
	} else {
		a.Logger.StatusMessage("🔍 Quick validation (type-check + lint)...")
		res = v.Quick(ctx)
	}

	r := report.Result{Command: "validate", Data: res}
	switch res := res.(type) {
	case validate.Passed:
		a.Logger.Success("Validation passed in %s", res.Duration.Round(time.Millisecond))
		r.Success = true
		r.Action = "passed"
		return a.finish(r, nil)
	case *validate.Failed:
		a.Logger.Error("Validation failed: %v", res.Err())
		if res.Output != "" {
			a.Logger.StatusMessage("Error details:\n%s", res.Output)
		}
		r.Action = "failed"
		return reportedFailure(exitFailure, a.finish(r, res.Err()))
	}
	return nil
}
