package git

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/runner"
)

// Client runs git subcommands against one repository. Every call is a
// separate `git -C <repo> ...` process executed through the injected runner.
type Client struct {
	repoPath string
	runner   runner.CommandRunner
	stream   io.Writer
}

// New creates a Client for the repository at repoPath.
func New(repoPath string, r runner.CommandRunner) *Client {
	return &Client{repoPath: repoPath, runner: r}
}

// WithStream returns a copy of the client whose network operations (push)
// echo git's progress output to w.
func (c *Client) WithStream(w io.Writer) *Client {
	cp := *c
	cp.stream = w
	return &cp
}

// RepoPath returns the repository path the client operates on.
func (c *Client) RepoPath() string {
	return c.repoPath
}

// Tag is a tag ref with the fields needed to list checkpoints.
type Tag struct {
	Name    string
	Commit  string
	Created time.Time
	Subject string
}

// IsRepository checks if the given path is inside a git work tree.
// Exit code 128 means "not a repository" and returns (false, nil); any other
// failure (git missing, permissions) is returned as an error.
func IsRepository(ctx context.Context, r runner.CommandRunner, path string) (bool, error) {
	_, err := r.Run(ctx, runner.Command{Name: "git", Args: []string{"-C", path, "rev-parse", "--is-inside-work-tree"}})
	if err == nil {
		return true, nil
	}

	var cmdErr *errors.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode == 128 {
		return false, nil
	}
	return false, err
}

// ListTags returns tag names matching a git glob pattern, one per line of
// `git tag -l`.
func (c *Client) ListTags(ctx context.Context, pattern string) ([]string, error) {
	out, err := c.output(ctx, "tag", "-l", pattern)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// TagDetails lists tags under refs/tags matching pattern with the commit
// they point at, their creation time and the tag subject.
func (c *Client) TagDetails(ctx context.Context, pattern string) ([]Tag, error) {
	out, err := c.output(ctx, "for-each-ref", "refs/tags/"+pattern,
		"--format=%(refname:short)%00%(objectname)%00%(*objectname)%00%(creatordate:unix)%00%(contents:subject)")
	if err != nil {
		return nil, err
	}

	var tags []Tag
	for _, line := range splitLines(out) {
		fields := strings.Split(line, "\x00")
		if len(fields) != 5 {
			continue
		}
		tag := Tag{Name: fields[0], Commit: fields[1], Subject: fields[4]}
		// Annotated tags peel to the commit; lightweight tags point at it directly.
		if fields[2] != "" {
			tag.Commit = fields[2]
		}
		if secs, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
			tag.Created = time.Unix(secs, 0)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// DiffNameOnly lists paths changed between two refs. An empty to compares
// against the working tree. Paths come back unquoted, non-ASCII included.
func (c *Client) DiffNameOnly(ctx context.Context, from, to string) ([]string, error) {
	out, err := c.output(ctx, diffArgs("--name-only", from, to, "-z")...)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p != "" && p != "\n" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// DiffStat returns the raw `git diff --stat` text between two refs.
func (c *Client) DiffStat(ctx context.Context, from, to string) (string, error) {
	return c.output(ctx, diffArgs("--stat", from, to)...)
}

// LastCommitMessage returns the full message of HEAD.
func (c *Client) LastCommitMessage(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "log", "-1", "--pretty=%B")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadCommit returns the full hash of HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	return c.RevParse(ctx, "HEAD")
}

// RevParse resolves a ref to a full object name.
func (c *Client) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := c.output(ctx, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsDirty reports whether the work tree has staged, unstaged or untracked changes.
func (c *Client) IsDirty(ctx context.Context) (bool, error) {
	out, err := c.output(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// StageAll stages every change in the work tree, deletions included.
func (c *Client) StageAll(ctx context.Context) error {
	return c.run(ctx, "add", "-A")
}

// Commit records the staged changes with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	return c.run(ctx, "commit", "-m", message)
}

// CreateAnnotatedTag creates an annotated tag on HEAD.
func (c *Client) CreateAnnotatedTag(ctx context.Context, name, message string) error {
	return c.run(ctx, "tag", "-a", name, "-m", message)
}

// PushCurrentBranch pushes the checked out branch to remote.
func (c *Client) PushCurrentBranch(ctx context.Context, remote string) error {
	return c.runStreamed(ctx, "push", remote, "HEAD")
}

// Push pushes a single ref to remote.
func (c *Client) Push(ctx context.Context, remote, ref string) error {
	return c.runStreamed(ctx, "push", remote, ref)
}

// ResetHard moves the checked out branch to ref and discards every change to
// tracked files. Untracked files are left in place.
func (c *Client) ResetHard(ctx context.Context, ref string) error {
	return c.run(ctx, "reset", "--hard", ref)
}

// Clean deletes untracked files and directories. Ignored files survive, and
// so does every path in keep (absolute or relative to the repository).
func (c *Client) Clean(ctx context.Context, keep ...string) error {
	args := []string{"clean", "-f", "-d"}
	for _, p := range keep {
		if filepath.IsAbs(p) {
			rel, err := filepath.Rel(c.repoPath, p)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			p = rel
		}
		args = append(args, "-e", "/"+filepath.ToSlash(p))
	}
	return c.run(ctx, args...)
}

// GitDir returns the absolute path of the repository's git directory.
func (c *Client) GitDir(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HooksDir returns the directory git reads hooks from, honouring core.hooksPath.
func (c *Client) HooksDir(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.repoPath, dir)
	}
	return dir, nil
}

func diffArgs(mode, from, to string, extra ...string) []string {
	args := append([]string{"diff", mode}, extra...)
	args = append(args, from)
	if to != "" {
		args = append(args, to)
	}
	return args
}

// run executes a git command in the repository directory with context.
func (c *Client) run(ctx context.Context, args ...string) error {
	_, err := c.exec(ctx, nil, args...)
	return err
}

// runStreamed executes a git command, echoing its output to the client's stream.
func (c *Client) runStreamed(ctx context.Context, args ...string) error {
	_, err := c.exec(ctx, c.stream, args...)
	return err
}

// output executes a git command and returns its stdout with context.
func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	return c.exec(ctx, nil, args...)
}

func (c *Client) exec(ctx context.Context, stream io.Writer, args ...string) (string, error) {
	allArgs := append([]string{"-C", c.repoPath}, args...)
	res, err := c.runner.Run(ctx, runner.Command{Name: "git", Args: allArgs, Stream: stream})
	if err != nil {
		gitErr := errors.NewGitError(args[0], args[1:],
			errors.Wrap(errors.ErrGitOperationFailed, err.Error()), "")
		gitErr.ExitCode = res.ExitCode
		return "", gitErr
	}
	return res.Stdout, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
