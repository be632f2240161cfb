package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/checkpoint"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

const shortCommitLen = 7

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List checkpoints and recorded rollbacks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runList(cmd.Context())
		},
	}
}

type listing struct {
	Checkpoints []checkpoint.Checkpoint `json:"checkpoints" yaml:"checkpoints"`
	Rollbacks   []changelog.Record      `json:"rollbacks" yaml:"rollbacks"`
}

func (a *App) runList(ctx context.Context) error {
	r := report.Result{Command: "list"}
	svc := a.Checkpoints()

	cps, err := svc.List(ctx)
	if err != nil {
		a.Logger.Error("Failed to list checkpoints: %v", err)
		return reportedFailure(exitFailure, a.finish(r, err))
	}

	// The changelog is documentation; a bad one only hides rollbacks.
	rollbacks, err := svc.Rollbacks()
	if err != nil {
		a.Logger.Warning("Could not read rollbacks from changelog: %v", err)
	}

	if len(cps) == 0 {
		a.Logger.InfoToUser("No checkpoints yet")
	} else {
		_, _ = fmt.Fprintln(a.userOut(), renderCheckpoints(cps, a.now()))
	}
	if len(rollbacks) > 0 {
		_, _ = fmt.Fprintln(a.userOut(), renderRollbacks(rollbacks))
	}

	r.Success = true
	r.Action = "listed"
	r.Data = listing{Checkpoints: cps, Rollbacks: rollbacks}
	return a.finish(r, nil)
}

// renderCheckpoints formats cps as a table with ages relative to now.
func renderCheckpoints(cps []checkpoint.Checkpoint, now time.Time) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Tag", "Commit", "Age", "Description"})

	for _, c := range cps {
		commit := c.Commit
		if len(commit) > shortCommitLen {
			commit = commit[:shortCommitLen]
		}
		age := ""
		if !c.Created.IsZero() {
			age = humanize.RelTime(c.Created, now, "ago", "from now")
		}
		tbl.AppendRow(table.Row{c.Tag, commit, age, c.Description})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(cps))})
	return tbl.Render()
}

// renderRollbacks formats the changelog's rollback records.
func renderRollbacks(records []changelog.Record) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("Rollbacks")
	tbl.AppendHeader(table.Row{"When", "Restored", "Reason"})
	for _, rec := range records {
		tbl.AppendRow(table.Row{rec.Timestamp, rec.Tag, rec.Reason})
	}
	return tbl.Render()
}
