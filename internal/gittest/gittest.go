// Package gittest creates throwaway git repositories for tests that need a
// real git binary.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupRepo initialises a repository in a temp dir with one commit of
// initial.txt and returns its path.
func SetupRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	Git(t, dir, "init", "-q", "-b", "main")
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "commit.gpgsign", "false")
	Git(t, dir, "config", "tag.gpgsign", "false")

	WriteFile(t, dir, "initial.txt", "Initial content\n")
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-q", "-m", "Initial commit")

	return dir
}

// SetupRepoWithRemote is SetupRepo plus a bare "origin" remote that main
// already tracks. It returns the work tree and the bare remote paths.
func SetupRepoWithRemote(t *testing.T) (string, string) {
	t.Helper()

	repo := SetupRepo(t)
	remote := filepath.Join(t.TempDir(), "origin.git")
	Git(t, "", "init", "-q", "--bare", remote)
	Git(t, repo, "remote", "add", "origin", remote)
	Git(t, repo, "push", "-q", "-u", "origin", "main")

	return repo, remote
}

// Git runs git in dir (or with no -C when dir is empty) and returns
// trimmed stdout, failing the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.Command("git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// WriteFile writes content to a path relative to dir, creating parents.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// Commit writes the files, stages everything and commits with message.
func Commit(t *testing.T, dir, message string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
	Git(t, dir, "add", "-A")
	Git(t, dir, "commit", "-q", "-m", message)
}

// ReadFile returns the content of a path relative to dir.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}
