//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitcheckpoint/internal/gittest"
	"github.com/bashhack/gitcheckpoint/internal/report"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
)

func skipUnlessEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("GITCHECKPOINT_INTEGRATION_TESTS") != "1" {
		t.Skip("Skipping integration test. Set GITCHECKPOINT_INTEGRATION_TESTS=1 to run")
	}
}

// buildGitcheckpoint compiles the binary once per test run.
func buildGitcheckpoint(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		binPath = filepath.Join(os.TempDir(), "gitcheckpoint-integration", "gitcheckpoint")
		cmd := exec.Command("go", "build", "-o", binPath, "../../cmd/gitcheckpoint")
		out, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = err
			t.Logf("go build output:\n%s", out)
		}
	})
	require.NoError(t, buildErr, "failed to build gitcheckpoint")
	return binPath
}

// toolchain writes npx and npm stand-ins into a directory placed first on
// PATH. A stage listed in failing exits 1 with a compiler-style message.
func toolchain(t *testing.T, failing ...string) string {
	t.Helper()

	fail := map[string]bool{}
	for _, f := range failing {
		fail[f] = true
	}

	dir := t.TempDir()
	script := func(name string, failOn map[string]string) {
		var b strings.Builder
		b.WriteString("#!/bin/sh\n")
		for match, msg := range failOn {
			b.WriteString("case \"$*\" in *" + match + "*) echo '" + msg + "'; exit 1;; esac\n")
		}
		b.WriteString("exit 0\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o755))
	}

	npx := map[string]string{}
	if fail["typecheck"] {
		npx["tsc"] = "src/a.ts(1,1): error TS2304: Cannot find name"
	}
	npm := map[string]string{}
	if fail["lint"] {
		npm["lint"] = "✖ 2 problems (2 errors, 0 warnings)"
	}
	if fail["build"] {
		npm["build"] = "Module not found: Error: Can't resolve './missing'"
	}
	script("npx", npx)
	script("npm", npm)
	return dir
}

type cli struct {
	bin   string
	repo  string
	tools string
	home  string
}

func newCLI(t *testing.T, repo string, failing ...string) *cli {
	t.Helper()
	return &cli{
		bin:   buildGitcheckpoint(t),
		repo:  repo,
		tools: toolchain(t, failing...),
		home:  t.TempDir(),
	}
}

// run executes gitcheckpoint and returns the exit code and decoded result
// block.
func (c *cli) run(t *testing.T, args ...string) (int, map[string]any, string) {
	t.Helper()

	args = append(args, "--repo", c.repo, "--non-interactive")
	cmd := exec.Command(c.bin, args...)
	cmd.Env = append(os.Environ(),
		"PATH="+c.tools+string(os.PathListSeparator)+os.Getenv("PATH"),
		"HOME="+c.home,
		"XDG_DATA_HOME="+c.home,
		"NO_COLOR=1",
	)
	out, err := cmd.CombinedOutput()

	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}

	var res map[string]any
	if body, ok := report.Extract(string(out)); ok {
		require.NoError(t, json.Unmarshal([]byte(body), &res), string(out))
	}
	return code, res, string(out)
}

func data(t *testing.T, res map[string]any) map[string]any {
	t.Helper()
	d, ok := res["data"].(map[string]any)
	require.True(t, ok, "result has no data: %v", res)
	return d
}

func tags(t *testing.T, repo string) []string {
	t.Helper()
	out := gittest.Git(t, repo, "tag", "-l", "*auto")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
