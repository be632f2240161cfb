// Package validate runs the project's type-check, lint and build tools.
//
// Quick is the fast path used inside the monitor loop: a type-check followed
// by lint, where lint warnings are tolerated and lint errors are fatal. Full
// runs the complete build and is used before rollback decisions.
//
// Results are tagged values. Passed means every stage succeeded; *Failed
// names the stage that stopped validation with the tool's captured output.
// Each tool run is bounded by Config.Timeout and a timeout is reported as a
// failure with TimedOut set.
package validate
