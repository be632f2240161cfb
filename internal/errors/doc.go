// Package errors provides error handling utilities for gitcheckpoint.
//
// It declares the sentinel errors used across the application together with
// typed errors that carry operational context: the git subcommand that failed,
// the checkpoint step that aborted, the validation stage that rejected the
// tree, or the lock file that could not be acquired.
//
// # Usage
//
// Wrapping with context:
//
//	if err != nil {
//	    return errors.Wrap(err, "failed to read changelog")
//	}
//
// Distinguishing failure kinds:
//
//	switch {
//	case errors.Is(err, errors.ErrNoCheckpoints):
//	    // nothing to roll back to
//	case errors.Is(err, errors.ErrRollbackFailed):
//	    // the reset to the checkpoint failed
//	}
//
// CheckpointError and ConfigError unwrap to both their sentinel and their
// cause, so errors.Is works against either.
//
// All types and functions in this package are safe for concurrent use.
package errors
