// Package runner is the process boundary of gitcheckpoint.
//
// Git and the project's build and lint tools are always invoked as external
// processes through CommandRunner. ExecRunner does it for real; FakeRunner
// replays scripted output so orchestration logic can be tested without a
// repository or a JavaScript toolchain.
//
// Runs block until the process exits. Cancelling the context kills the
// process, and the returned *errors.CommandError then wraps the context
// error, which is how validation timeouts are detected.
package runner
