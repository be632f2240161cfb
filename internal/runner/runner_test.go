package runner

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

func TestExecRunner(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cmd        Command
		wantErr    bool
		wantCode   int
		wantStdout string
		wantStderr string
		wantIs     error
	}{
		"success captures stdout": {
			cmd:        Command{Name: "sh", Args: []string{"-c", "echo hello"}},
			wantStdout: "hello\n",
		},
		"failure captures both streams": {
			cmd:        Command{Name: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}},
			wantErr:    true,
			wantCode:   3,
			wantStdout: "out\n",
			wantStderr: "err\n",
		},
		"env is appended": {
			cmd:        Command{Name: "sh", Args: []string{"-c", "printf %s \"$GC_TEST\""}, Env: []string{"GC_TEST=yes"}},
			wantStdout: "yes",
		},
		"missing executable": {
			cmd:      Command{Name: "gitcheckpoint-definitely-missing"},
			wantErr:  true,
			wantCode: -1,
			wantIs:   exec.ErrNotFound,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := NewExecRunner().Run(context.Background(), tc.cmd)
			assert.Equal(t, tc.wantCode, res.ExitCode)
			assert.Equal(t, tc.wantStdout, res.Stdout)
			assert.Equal(t, tc.wantStderr, res.Stderr)

			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrCommandFailed)

			var cmdErr *errors.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, tc.cmd.Name, cmdErr.Name)
			assert.Equal(t, tc.wantCode, cmdErr.ExitCode)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
		})
	}
}

func TestExecRunnerWorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res, err := NewExecRunner().Run(context.Background(), Command{Dir: dir, Name: "pwd"})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, dir)
}

func TestExecRunnerStream(t *testing.T) {
	t.Parallel()

	var stream bytes.Buffer
	res, err := NewExecRunner().Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "echo progress"},
		Stream: &stream,
	})
	require.NoError(t, err)
	assert.Equal(t, "progress\n", res.Stdout)
	assert.Equal(t, "progress\n", stream.String())
}

func TestExecRunnerTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewExecRunner().Run(ctx, Command{Name: "sleep", Args: []string{"5"}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, errors.ErrCommandFailed)
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "git", Command{Name: "git"}.String())
	assert.Equal(t, "git status --porcelain", Command{Name: "git", Args: []string{"status", "--porcelain"}}.String())
	assert.Equal(t, "git status --porcelain", Key(Command{Name: "git", Args: []string{"-C", "/repo", "status", "--porcelain"}}))
}
