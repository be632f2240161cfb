// Package git wraps the git command-line tool for gitcheckpoint.
//
// Every operation is a separate `git -C <repo> ...` process run through a
// runner.CommandRunner, so tests can script git with runner.FakeRunner and
// integration tests can use the real binary against a temporary repository.
//
// # Core Components
//
// - Client: repository-scoped queries (diffs, tags, status) and mutations
// (stage, commit, tag, push, reset, clean)
// - IsRepository: checks whether a path is inside a work tree
//
// # Error Handling
//
// Failures are returned as *errors.GitError carrying the subcommand, its
// arguments and git's exit code. The chain always contains
// errors.ErrGitOperationFailed and the runner's *errors.CommandError text.
//
// # Implementation Notes
//
// The package uses the command-line Git executable rather than a Go Git library.
// This ensures compatibility with all Git features and repository configurations,
// including hooks, credential helpers and core.hooksPath.
package git
