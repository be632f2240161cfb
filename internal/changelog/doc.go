// Package changelog maintains docs/CHANGELOG_CHECKPOINTS.md.
//
// The document has a fixed header, a "## Checkpoints" section marker and,
// until the first entry, a sentinel placeholder line. The first checkpoint
// or rollback entry replaces the sentinel; every later entry is inserted
// directly under the marker, so the newest entry is always on top.
package changelog
