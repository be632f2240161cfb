// Package lock keeps one gitcheckpoint monitor per repository.
//
// The monitor takes an exclusive flock on a PID file before it starts its
// loop. A second `monitor --start` finds the flock held and reports
// errors.ErrAlreadyRunning; `monitor --stop` uses RunningOwner to find the
// PID to signal.
//
// The lock file path follows the pattern:
//
//	$TMPDIR/gitcheckpoint-<repo-hash>.lock
//
// Where <repo-hash> is the first 16 hex digits of the SHA-256 of the
// repository's absolute path.
//
// The kernel drops a flock when its holder exits, however it exits. A lock
// file nobody has locked is therefore stale no matter which process now has
// the PID it records: RunningOwner ignores it and Acquire reclaims it.
//
// A Locker is not safe for concurrent use by multiple goroutines.
package lock
