package monitor

import (
	"github.com/bashhack/gitcheckpoint/internal/analyzer"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

// Report is the outcome of one cycle: NoAction, CheckpointSuggestion,
// RollbackSuggestion or CycleError.
type Report interface {
	// Outcome is the metrics label and structured-result action name.
	Outcome() string
	isReport()
}

// NoAction means the change was not significant or could not be analyzed.
type NoAction struct {
	Reason   string            `json:"reason" yaml:"reason"`
	Analysis analyzer.Analysis `json:"analysis" yaml:"analysis"`
}

// CheckpointSuggestion recommends recording a checkpoint. It is advisory;
// Command is what the user should run.
type CheckpointSuggestion struct {
	Summary  string            `json:"summary" yaml:"summary"`
	Command  string            `json:"command" yaml:"command"`
	Details  []string          `json:"details" yaml:"details"`
	Analysis analyzer.Analysis `json:"analysis" yaml:"analysis"`
}

// RollbackSuggestion recommends rolling back after validation failed.
type RollbackSuggestion struct {
	Reason  string           `json:"reason" yaml:"reason"`
	Command string           `json:"command" yaml:"command"`
	Failure *validate.Failed `json:"failure" yaml:"failure"`
}

// CycleError is a cycle that failed unexpectedly.
type CycleError struct {
	Err error `json:"-" yaml:"-"`
}

func (NoAction) Outcome() string             { return "no_action" }
func (CheckpointSuggestion) Outcome() string { return "suggest_checkpoint" }
func (RollbackSuggestion) Outcome() string   { return "suggest_rollback" }
func (CycleError) Outcome() string           { return "error" }

func (NoAction) isReport()             {}
func (CheckpointSuggestion) isReport() {}
func (RollbackSuggestion) isReport()   {}
func (CycleError) isReport()           {}

// Error implements the error interface.
func (e CycleError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the cycle failure.
func (e CycleError) Unwrap() error {
	return e.Err
}
