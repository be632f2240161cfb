// Package analyzer decides whether the latest commit is a significant change.
//
// A change is significant when enough relevant files changed (paths matching
// doublestar globs), when enough lines changed according to `git diff --stat`,
// or when the commit message contains a trigger keyword such as "refactor".
// Any one condition is sufficient.
//
// History queries that fail (no parent commit, not a repository) never
// surface as errors. Analyze returns a negative Analysis with Err set and
// logs a warning.
package analyzer
