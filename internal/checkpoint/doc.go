// Package checkpoint creates checkpoint tags and rolls the work tree back to them.
//
// A checkpoint is a commit of every pending change, tagged "v0.<N>-auto"
// with N one more than the highest existing checkpoint, pushed to the
// remote and recorded in the changelog. Rollback checks out the checkpoint
// with the numerically highest N, so v0.10-auto wins over v0.9-auto.
//
// # Failure Semantics
//
// Create reports a clean work tree as a skipped Outcome, not an error. A
// failing git step returns *errors.CheckpointError naming the step; steps
// already taken are not undone. Rollback distinguishes errors.ErrNoCheckpoints
// from errors.ErrRollbackFailed. Changelog write failures in either
// operation are logged as warnings and never fail the git-level action.
package checkpoint
