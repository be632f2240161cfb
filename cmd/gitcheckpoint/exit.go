package main

import (
	"fmt"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitNoCheckpoints = 2
)

// exitError carries a process exit code through cobra. reported is set when
// the command already told the user what went wrong.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// reportedFailure wraps err so main exits with code without printing err
// a second time.
func reportedFailure(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, errors.ErrNoCheckpoints) {
		return exitNoCheckpoints
	}
	return exitFailure
}

// alreadyReported tells whether the user has seen err.
func alreadyReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}
