// Package gitcheckpoint is a checkpoint and rollback safety net for
// AI-assisted development.
//
// gitcheckpoint records known-good states of a repository as annotated tags
// named v0.N-auto, keeps a human-readable changelog of every checkpoint and
// rollback, and can return the work tree to the latest checkpoint when the
// build breaks. A monitor watches the repository and suggests a checkpoint
// after significant changes, or a rollback when validation fails. It never
// acts on its own.
//
// # Quick Start
//
//	# Record the current work as the next checkpoint
//	gitcheckpoint checkpoint "Added login form"
//
//	# Go back to the latest checkpoint
//	gitcheckpoint rollback "Broke the build"
//
//	# Roll back only if the full build fails
//	gitcheckpoint rollback --validate
//
//	# Watch the repository and suggest checkpoints
//	gitcheckpoint monitor --start
//
// # Commands
//
//   - checkpoint [description]: stage, commit, tag, push and log
//   - rollback [reason]: reset the branch to the highest v0.N-auto tag
//   - monitor --start|--stop|--analyze: suggestion loop and its lifecycle
//   - validate [--full]: type-check and lint, or only the build with --full
//   - list: checkpoints with commit, age and description, then rollbacks
//   - hook install|uninstall: the post-commit hook that runs monitor --analyze
//   - version
//
// Every command ends its output with a result block between
// "--- GITCHECKPOINT_RESULT ---" and "--- END_GITCHECKPOINT_RESULT ---"
// (JSON by default, or YAML) so agents and scripts can read the outcome.
//
// # Configuration
//
// Settings are read from .gitcheckpoint.yaml in the repository or $HOME,
// then GITCHECKPOINT_* environment variables, then flags:
//
//	analyzer:
//	  min_files: 3
//	  min_lines: 50
//	  patterns: ["**/components/**/*.tsx", "**/lib/**/*.ts"]
//	validator:
//	  typecheck: ["npx", "tsc", "--noEmit"]
//	  timeout: 10m
//	checkpoint:
//	  push: true
//	  remote: origin
//	monitor:
//	  interval: 30s
//	  metrics_addr: ":9108"
//
// # Module Structure
//
//   - cmd/gitcheckpoint: command-line interface
//   - internal/analyzer: change significance
//   - internal/validate: type-check, lint and build runs
//   - internal/checkpoint: checkpoint creation, rollback and listing
//   - internal/changelog: the checkpoint changelog document
//   - internal/monitor: suggestion loop, reflog watch and post-commit hook
//   - internal/git, internal/runner: git and tool subprocesses
//   - internal/config, internal/logger, internal/errors: ambient support
//   - internal/lock: one monitor per repository
//   - internal/metrics, internal/report: Prometheus metrics and result blocks
//
// # Implementation Notes
//
// gitcheckpoint uses the command-line Git executable rather than a Go Git
// library so hooks, credentials and remotes behave exactly as they do for
// the user. Commands run through an abstracted runner that tests replace.
//
// Checkpoint steps are not transactional: if a later step fails, earlier
// steps (commit, tag) stay in place and the error names the failing step.
package gitcheckpoint
