package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors that can be used with errors.Is() for error type checking
var (
	// ErrNotGitRepository indicates the target path is not a git repository
	ErrNotGitRepository = errors.New("not a git repository")

	// ErrLockAcquisitionFailure indicates a lock file could not be acquired
	ErrLockAcquisitionFailure = errors.New("failed to acquire lock")

	// ErrAlreadyRunning indicates another monitor is running for this repo
	ErrAlreadyRunning = errors.New("another gitcheckpoint monitor is already running for this repository")

	// ErrNotRunning indicates no monitor process holds the repository lock
	ErrNotRunning = errors.New("no gitcheckpoint monitor is running for this repository")

	// ErrGitOperationFailed indicates a git command returned an error
	ErrGitOperationFailed = errors.New("git operation failed")

	// ErrCommandFailed indicates an external tool exited with a non-zero status
	ErrCommandFailed = errors.New("command failed")

	// ErrInvalidConfiguration indicates an invalid or conflicting user configuration
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidFlag indicates a command-line flag could not be parsed
	ErrInvalidFlag = errors.New("invalid flag")

	// ErrNoCheckpoints indicates no checkpoint tags exist to roll back to
	ErrNoCheckpoints = errors.New("no auto checkpoints found")

	// ErrCheckpointFailed indicates a checkpoint could not be fully created
	ErrCheckpointFailed = errors.New("checkpoint creation failed")

	// ErrRollbackFailed indicates the working tree could not be reset to a checkpoint
	ErrRollbackFailed = errors.New("rollback failed")

	// ErrValidationFailed indicates the type-check, lint or build step failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrHookConflict indicates a post-commit hook not owned by gitcheckpoint exists
	ErrHookConflict = errors.New("post-commit hook is not managed by gitcheckpoint")
)

// New creates a new error with the given message.
// This is a convenience function that wraps errors.New.
func New(message string) error {
	return errors.New(message)
}

// Errorf creates a new formatted error.
// This is a convenience function that wraps fmt.Errorf.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// CommandError represents a failed external process invocation.
// It records the program, its arguments, the exit code and whatever the
// process wrote before it failed.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s exited with code %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, s)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// GitError represents an error that occurred during a Git operation.
// It captures the command details, underlying error, and command output.
type GitError struct {
	Operation string
	Args      []string
	Err       error
	Output    string

	// ExitCode is git's exit status, or -1 when git never ran.
	ExitCode int
}

// Error implements the error interface with a detailed, user-friendly error message.
func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Operation)
	if e.Output != "" {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(e.Output))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *GitError) Unwrap() error {
	return e.Err
}

// NewGitError creates a new GitError with the given parameters.
func NewGitError(operation string, args []string, err error, output string) *GitError {
	return &GitError{
		Operation: operation,
		Args:      args,
		Err:       err,
		Output:    output,
		ExitCode:  -1,
	}
}

// CheckpointError reports which step of checkpoint creation failed.
// Steps that ran before the failing one are not undone.
type CheckpointError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns both the step cause and ErrCheckpointFailed.
func (e *CheckpointError) Unwrap() []error {
	return []error{ErrCheckpointFailed, e.Err}
}

// NewCheckpointError creates a CheckpointError for the given step.
func NewCheckpointError(step string, err error) *CheckpointError {
	return &CheckpointError{Step: step, Err: err}
}

// ValidationError describes a failed validation stage.
type ValidationError struct {
	Stage    string
	Output   string
	TimedOut bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s timed out", e.Stage)
	}
	return fmt.Sprintf("%s failed", e.Stage)
}

// Unwrap returns ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// LockError represents an error that occurred when interacting with file locks.
// It includes the lock file path, process ID if available, and underlying error.
type LockError struct {
	LockFile string
	PID      int
	Err      error
}

// Error implements the error interface with details about the lock file and process.
func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("lock error with file %s (PID: %d): %v", e.LockFile, e.PID, e.Err)
	}
	return fmt.Sprintf("lock error with file %s: %v", e.LockFile, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *LockError) Unwrap() error {
	return e.Err
}

// NewLockError creates a new LockError with the given parameters.
func NewLockError(lockFile string, pid int, err error) *LockError {
	return &LockError{
		LockFile: lockFile,
		PID:      pid,
		Err:      err,
	}
}

// ConfigError represents an error in the application configuration.
// It includes the parameter name, its value if available, and the underlying error.
type ConfigError struct {
	Parameter string
	Value     interface{}
	Err       error
}

// Error implements the error interface with details about the invalid configuration.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

// Unwrap returns the underlying error and ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfiguration, e.Err}
}

// NewConfigError creates a new ConfigError with the given parameters.
func NewConfigError(parameter string, value interface{}, err error) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Value:     value,
		Err:       err,
	}
}
