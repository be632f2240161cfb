package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

const (
	// DefaultPath is the changelog location relative to the repository root.
	DefaultPath = "docs/CHANGELOG_CHECKPOINTS.md"

	// Marker is the section header new entries are inserted after.
	Marker = "## Checkpoints"

	// Sentinel occupies the section until the first checkpoint replaces it.
	Sentinel = "*No checkpoints yet - system ready for first checkpoint*"

	// TimestampLayout renders local times the way the changelog has always
	// shown them (en-US locale style).
	TimestampLayout = "1/2/2006, 3:04:05 PM"
)

const header = `# Checkpoint Changelog

Automatic checkpoints created by gitcheckpoint after validated, significant
changes. Each entry can be restored with the listed command.

` + Marker + `

` + Sentinel + `
`

// CheckpointEntry is a checkpoint record.
type CheckpointEntry struct {
	Tag         string
	Time        time.Time
	Description string
	Commit      string
}

// RollbackEntry is a rollback record.
type RollbackEntry struct {
	Tag    string
	Time   time.Time
	Reason string
}

// Kind distinguishes parsed records.
type Kind string

const (
	KindCheckpoint Kind = "checkpoint"
	KindRollback   Kind = "rollback"
)

// Record is one entry read back from the document. Timestamp is kept as
// written since the layout carries no zone.
type Record struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	Tag         string `json:"tag" yaml:"tag"`
	Timestamp   string `json:"timestamp" yaml:"timestamp"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Commit      string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Changelog reads and writes the checkpoint changelog file. Writes are
// serialized within the process and replace the file atomically.
type Changelog struct {
	path string
	mu   sync.Mutex
}

// New returns a Changelog for the file at path.
func New(path string) *Changelog {
	return &Changelog{path: path}
}

// Path returns the changelog file location.
func (c *Changelog) Path() string {
	return c.path
}

// AddCheckpoint records a checkpoint.
func (c *Changelog) AddCheckpoint(e CheckpointEntry) error {
	return c.update(func(doc string) string {
		return addEntry(doc, FormatCheckpoint(e))
	})
}

// AddRollback records a rollback.
func (c *Changelog) AddRollback(e RollbackEntry) error {
	return c.update(func(doc string) string {
		return addEntry(doc, FormatRollback(e))
	})
}

// Snapshot returns the document as it is on disk, or "" when it does not
// exist yet.
func (c *Changelog) Snapshot() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read changelog %s", c.path)
	}
	return string(data), nil
}

// Restore puts back a document taken with Snapshot, undoing a reset that
// rewound the file. An empty doc leaves the file alone.
func (c *Changelog) Restore(doc string) error {
	if doc == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(doc)
}

// FormatCheckpoint renders a checkpoint entry followed by a blank line.
func FormatCheckpoint(e CheckpointEntry) string {
	return fmt.Sprintf("## %s (%s)\n- **Description**: %s\n- **Commit Hash**: %s\n- **Rollback**: `git checkout %s`\n\n",
		e.Tag, e.Time.Format(TimestampLayout), e.Description, e.Commit, e.Tag)
}

// FormatRollback renders a rollback entry followed by a blank line.
func FormatRollback(e RollbackEntry) string {
	return fmt.Sprintf("## ROLLBACK (%s)\n- **Rolled back to**: %s\n- **Reason**: %s\n- **Current state**: `git checkout %s`\n\n",
		e.Time.Format(TimestampLayout), e.Tag, e.Reason, e.Tag)
}

func (c *Changelog) update(edit func(string) string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return err
	}
	return c.write(edit(doc))
}

// load reads the document, creating it first when absent.
func (c *Changelog) load() (string, error) {
	data, err := os.ReadFile(c.path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to read changelog %s", c.path)
	}
	if err := c.write(header); err != nil {
		return "", err
	}
	return header, nil
}

// write replaces the file through a temp file in the same directory.
func (c *Changelog) write(content string) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create changelog directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".changelog-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary changelog")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write temporary changelog")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary changelog")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrap(err, "failed to set changelog permissions")
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return errors.Wrapf(err, "failed to replace changelog %s", c.path)
	}
	return nil
}

// addEntry replaces the sentinel with the first entry of either kind and
// puts every later one directly under the marker.
func addEntry(doc, entry string) string {
	if strings.Contains(doc, Sentinel) {
		return strings.Replace(doc, Sentinel, strings.TrimRight(entry, "\n"), 1)
	}
	return insertAfterMarker(doc, entry)
}

// insertAfterMarker places entry on the line after the marker, separated by
// a blank line. A document without the marker gets one appended.
func insertAfterMarker(doc, entry string) string {
	idx := markerIndex(doc)
	if idx < 0 {
		if !strings.HasSuffix(doc, "\n") && doc != "" {
			doc += "\n"
		}
		return doc + "\n" + Marker + "\n\n" + entry
	}

	lineEnd := strings.IndexByte(doc[idx:], '\n')
	if lineEnd < 0 {
		return doc + "\n\n" + entry
	}
	pos := idx + lineEnd + 1

	// Keep the blank line that follows the marker.
	if strings.HasPrefix(doc[pos:], "\n") {
		pos++
	}
	return doc[:pos] + entry + doc[pos:]
}

// markerIndex finds the marker as a whole line.
func markerIndex(doc string) int {
	offset := 0
	for _, line := range strings.SplitAfter(doc, "\n") {
		if strings.TrimRight(line, "\r\n") == Marker {
			return offset
		}
		offset += len(line)
	}
	return -1
}

var (
	checkpointHeading = regexp.MustCompile(`^## (v0\.\d+-auto) \((.*)\)$`)
	rollbackHeading   = regexp.MustCompile(`^## ROLLBACK \((.*)\)$`)
	fieldLine         = regexp.MustCompile("^- \\*\\*(.+?)\\*\\*: (.*)$")
)

// Entries parses the records in document order, newest first.
func (c *Changelog) Entries() ([]Record, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read changelog %s", c.path)
	}
	return Parse(string(data)), nil
}

// Parse extracts checkpoint and rollback records from document text.
func Parse(doc string) []Record {
	var records []Record
	var cur *Record

	flush := func() {
		if cur != nil {
			records = append(records, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, "\r")

		if m := checkpointHeading.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Record{Kind: KindCheckpoint, Tag: m[1], Timestamp: m[2]}
			continue
		}
		if m := rollbackHeading.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Record{Kind: KindRollback, Timestamp: m[1]}
			continue
		}
		if strings.HasPrefix(line, "#") {
			flush()
			continue
		}
		if cur == nil {
			continue
		}

		m := fieldLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch m[1] {
		case "Description":
			cur.Description = m[2]
		case "Commit Hash":
			cur.Commit = m[2]
		case "Rolled back to":
			cur.Tag = m[2]
		case "Reason":
			cur.Reason = m[2]
		}
	}
	flush()

	return records
}
