package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

// HookMarker identifies a post-commit hook written by gitcheckpoint.
const HookMarker = "# Managed by gitcheckpoint monitor"

// HookName is the git hook that triggers an analysis after each commit.
const HookName = "post-commit"

// HookScript renders the post-commit hook that runs one analysis cycle.
// The hook never fails the commit.
func HookScript(executable, repoPath string) string {
	return fmt.Sprintf("#!/bin/sh\n%s\n%s monitor --analyze --repo %s || true\n",
		HookMarker, shellQuote(executable), shellQuote(repoPath))
}

// InstallHook writes the post-commit hook into hooksDir. A hook we wrote
// earlier is replaced; any other existing hook is left untouched and
// errors.ErrHookConflict is returned.
func InstallHook(hooksDir, executable, repoPath string) (string, error) {
	path := filepath.Join(hooksDir, HookName)

	if data, err := os.ReadFile(path); err == nil {
		if !strings.Contains(string(data), HookMarker) {
			return path, errors.Wrapf(errors.ErrHookConflict, "%s", path)
		}
	} else if !os.IsNotExist(err) {
		return path, errors.Wrapf(err, "failed to read existing hook %s", path)
	}

	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return path, errors.Wrapf(err, "failed to create hooks directory %s", hooksDir)
	}
	if err := os.WriteFile(path, []byte(HookScript(executable, repoPath)), 0o755); err != nil {
		return path, errors.Wrapf(err, "failed to write hook %s", path)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o755); err != nil {
		return path, errors.Wrapf(err, "failed to make hook %s executable", path)
	}
	return path, nil
}

// UninstallHook removes the post-commit hook if gitcheckpoint wrote it.
// It reports whether a hook was removed.
func UninstallHook(hooksDir string) (bool, error) {
	path := filepath.Join(hooksDir, HookName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read hook %s", path)
	}
	if !strings.Contains(string(data), HookMarker) {
		return false, errors.Wrapf(errors.ErrHookConflict, "%s", path)
	}
	if err := os.Remove(path); err != nil {
		return false, errors.Wrapf(err, "failed to remove hook %s", path)
	}
	return true, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
