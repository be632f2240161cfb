// Package monitor runs the checkpoint analysis loop.
//
// Each cycle moves through the states
//
//	Idle → Analyzing → (NoAction | Validating) → (SuggestCheckpoint | SuggestRollback | Error)
//
// and produces a Report. Suggestions are advisory: the monitor prints the
// command to run and never creates a checkpoint or rolls back on its own.
//
// Cycles are triggered by a fixed-interval ticker, by writes to the HEAD
// reflog (debounced), and by the post-commit hook, which runs
// `gitcheckpoint monitor --analyze` in a separate process. Within one
// process cycles never overlap. A failing or panicking cycle is logged,
// reported as CycleError, and the loop keeps going.
package monitor
