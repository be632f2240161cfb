package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 4, 15, 4, 5, 0, time.Local)

func newChangelog(t *testing.T) *Changelog {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "docs", "CHANGELOG_CHECKPOINTS.md"))
}

func read(t *testing.T, c *Changelog) string {
	t.Helper()
	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	return string(data)
}

func TestSnapshotAndRestore(t *testing.T) {
	t.Parallel()

	c := newChangelog(t)
	doc, err := c.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, doc, "a missing changelog has nothing to restore")
	require.NoError(t, c.Restore(doc))
	assert.NoFileExists(t, c.Path())

	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at, Description: "first", Commit: "c1"}))
	doc, err = c.Snapshot()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(c.Path(), []byte(header), 0o644))
	require.NoError(t, c.Restore(doc))
	assert.Equal(t, doc, read(t, c))
	assert.Contains(t, read(t, c), "## v0.1-auto")
}

func TestFormat(t *testing.T) {
	t.Parallel()

	got := FormatCheckpoint(CheckpointEntry{Tag: "v0.3-auto", Time: at, Description: "Split stores", Commit: "abc123"})
	want := "## v0.3-auto (3/4/2026, 3:04:05 PM)\n" +
		"- **Description**: Split stores\n" +
		"- **Commit Hash**: abc123\n" +
		"- **Rollback**: `git checkout v0.3-auto`\n\n"
	assert.Equal(t, want, got)

	got = FormatRollback(RollbackEntry{Tag: "v0.3-auto", Time: at, Reason: "Build validation failed"})
	want = "## ROLLBACK (3/4/2026, 3:04:05 PM)\n" +
		"- **Rolled back to**: v0.3-auto\n" +
		"- **Reason**: Build validation failed\n" +
		"- **Current state**: `git checkout v0.3-auto`\n\n"
	assert.Equal(t, want, got)
}

func TestFirstCheckpointReplacesSentinelOnce(t *testing.T) {
	t.Parallel()

	c := newChangelog(t)
	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at, Description: "first", Commit: "c1"}))

	doc := read(t, c)
	assert.NotContains(t, doc, Sentinel)
	assert.Equal(t, 1, strings.Count(doc, "## v0.1-auto"))

	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.2-auto", Time: at, Description: "second", Commit: "c2"}))
	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.3-auto", Time: at, Description: "third", Commit: "c3"}))

	doc = read(t, c)
	assert.NotContains(t, doc, Sentinel)

	markerAt := strings.Index(doc, Marker)
	i3 := strings.Index(doc, "## v0.3-auto")
	i2 := strings.Index(doc, "## v0.2-auto")
	i1 := strings.Index(doc, "## v0.1-auto")
	assert.True(t, markerAt < i3 && i3 < i2 && i2 < i1, "entries should be newest first under the marker:\n%s", doc)

	// Nothing but a blank line sits between the marker and the newest entry.
	assert.Equal(t, Marker+"\n\n## v0.3-auto", doc[markerAt:i3+len("## v0.3-auto")])
}

func TestRollbackGoesUnderMarker(t *testing.T) {
	t.Parallel()

	c := newChangelog(t)
	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at, Description: "first", Commit: "c1"}))
	require.NoError(t, c.AddRollback(RollbackEntry{Tag: "v0.1-auto", Time: at, Reason: "Manual rollback"}))

	doc := read(t, c)
	assert.Less(t, strings.Index(doc, "## ROLLBACK"), strings.Index(doc, "## v0.1-auto"))
}

func TestFirstRollbackReplacesSentinel(t *testing.T) {
	t.Parallel()

	earlier := at.Add(-time.Hour)
	c := newChangelog(t)
	require.NoError(t, c.AddRollback(RollbackEntry{Tag: "v0.4-auto", Time: earlier, Reason: "Manual rollback"}))
	doc := read(t, c)
	assert.NotContains(t, doc, Sentinel)
	assert.Equal(t, Marker+"\n\n## ROLLBACK", doc[strings.Index(doc, Marker):strings.Index(doc, "## ROLLBACK")+len("## ROLLBACK")])

	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.5-auto", Time: at, Description: "x", Commit: "c5"}))
	doc = read(t, c)
	assert.NotContains(t, doc, Sentinel)
	assert.Less(t, strings.Index(doc, "## v0.5-auto"), strings.Index(doc, "## ROLLBACK"),
		"the newer checkpoint must sit above the older rollback:\n%s", doc)

	records := Parse(doc)
	require.Len(t, records, 2)
	assert.Equal(t, KindCheckpoint, records[0].Kind)
	assert.Equal(t, KindRollback, records[1].Kind)
}

func TestMissingMarkerIsAppended(t *testing.T) {
	t.Parallel()

	c := newChangelog(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.Path()), 0o755))
	require.NoError(t, os.WriteFile(c.Path(), []byte("# Notes"), 0o644))

	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at, Description: "x", Commit: "c1"}))

	doc := read(t, c)
	assert.True(t, strings.HasPrefix(doc, "# Notes\n"))
	assert.Less(t, strings.Index(doc, Marker), strings.Index(doc, "## v0.1-auto"))
}

func TestEntriesRoundTrip(t *testing.T) {
	t.Parallel()

	c := newChangelog(t)
	records, err := c.Entries()
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at, Description: "first", Commit: "c1"}))
	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.2-auto", Time: at, Description: "second", Commit: "c2"}))
	require.NoError(t, c.AddRollback(RollbackEntry{Tag: "v0.1-auto", Time: at, Reason: "Build validation failed"}))

	records, err = c.Entries()
	require.NoError(t, err)

	ts := at.Format(TimestampLayout)
	want := []Record{
		{Kind: KindRollback, Tag: "v0.1-auto", Timestamp: ts, Reason: "Build validation failed"},
		{Kind: KindCheckpoint, Tag: "v0.2-auto", Timestamp: ts, Description: "second", Commit: "c2"},
		{Kind: KindCheckpoint, Tag: "v0.1-auto", Timestamp: ts, Description: "first", Commit: "c1"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFailureIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "docs")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	c := New(filepath.Join(blocker, "CHANGELOG_CHECKPOINTS.md"))
	assert.Error(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at}))
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	t.Parallel()

	c := newChangelog(t)
	require.NoError(t, c.AddCheckpoint(CheckpointEntry{Tag: "v0.1-auto", Time: at, Description: "x", Commit: "c"}))

	entries, err := os.ReadDir(filepath.Dir(c.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CHANGELOG_CHECKPOINTS.md", entries[0].Name())
}
