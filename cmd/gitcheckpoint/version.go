package main

import (
	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/report"
)

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Works outside a repository.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			app.ShowVersion()
			return app.Emit(report.Result{
				Command: "version",
				Success: true,
				Data:    app.versionInfo,
			})
		},
	}
}
