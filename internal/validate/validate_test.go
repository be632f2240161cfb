package validate

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/runner"
)

const (
	tscCmd   = "npx tsc --noEmit"
	lintCmd  = "npm run lint -- --max-warnings 0"
	buildCmd = "npm run build"
)

type recordingObserver struct {
	mu     sync.Mutex
	stages []string
}

func (r *recordingObserver) ObserveValidation(stage string, _ time.Duration, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func TestLintHasErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		output string
		want   bool
	}{
		"warnings only summary": {
			output: "src/a.ts\n  1:1  warning  Unexpected any\n\n✖ 3 problems (0 errors, 3 warnings)\n",
			want:   false,
		},
		"errors in summary": {
			output: "src/a.ts\n  1:1  error  Missing semicolon\n\n✖ 2 problems (2 errors, 0 warnings)\n",
			want:   true,
		},
		"singular summary": {
			output: "✖ 1 problem (1 error, 0 warnings)",
			want:   true,
		},
		"max-warnings exceeded without errors": {
			output: "✖ 1 problem (0 errors, 1 warning)\nESLint found too many warnings (maximum: 0).",
			want:   false,
		},
		"no summary, error text": {
			output: "Error: Cannot find module 'eslint'",
			want:   true,
		},
		"next lint errors and warnings without summary": {
			output: "./src/components/A.tsx\n12:5  Error: 'x' is not defined.  no-undef\n14:1  Warning: Unexpected console statement.  no-console\n",
			want:   true,
		},
		"stylish error line without summary": {
			output: "src/a.ts\n  3:7  error  'y' is assigned a value but never used  no-unused-vars\n  4:1  warning  Unexpected any\n",
			want:   true,
		},
		"no summary, warning about a name containing error": {
			output: "./src/lib/api.ts\n8:3  Warning: 'errorCount' is assigned a value but never used.  no-unused-vars\n",
			want:   false,
		},
		"no summary, no keywords": {
			output: "exit status 1",
			want:   false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, LintHasErrors(tc.output))
		})
	}
}

func TestQuick(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		fake      *runner.FakeRunner
		ok        bool
		stage     Stage
		lintCalls bool
	}{
		"all pass": {
			fake:      runner.NewFakeRunner(),
			ok:        true,
			lintCalls: true,
		},
		"typecheck fails, lint skipped": {
			fake: runner.NewFakeRunner().
				On(tscCmd, runner.Response{ExitCode: 2, Stdout: "src/a.ts(3,1): error TS2304: Cannot find name 'x'."}),
			ok:    false,
			stage: StageTypecheck,
		},
		"lint warnings only": {
			fake: runner.NewFakeRunner().
				On(lintCmd, runner.Response{ExitCode: 1, Stdout: "✖ 3 problems (0 errors, 3 warnings)"}),
			ok:        true,
			lintCalls: true,
		},
		"lint errors": {
			fake: runner.NewFakeRunner().
				On(lintCmd, runner.Response{ExitCode: 1, Stdout: "✖ 2 problems (2 errors, 0 warnings)"}),
			ok:        false,
			stage:     StageLint,
			lintCalls: true,
		},
		"next lint errors without summary": {
			fake: runner.NewFakeRunner().
				On(lintCmd, runner.Response{ExitCode: 1, Stdout: "./src/A.tsx\n12:5  Error: 'x' is not defined.  no-undef\n14:1  Warning: Unexpected console statement.  no-console"}),
			ok:        false,
			stage:     StageLint,
			lintCalls: true,
		},
		"lint tool never started": {
			fake: runner.NewFakeRunner().
				On(lintCmd, runner.Response{Err: &errors.CommandError{
					Name:     "npm",
					ExitCode: -1,
					Err:      errors.Errorf("%w: %w", errors.ErrCommandFailed, exec.ErrNotFound),
				}}),
			ok:        false,
			stage:     StageLint,
			lintCalls: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v := New(tc.fake, "/repo", DefaultConfig(), nil)
			res := v.Quick(context.Background())

			assert.Equal(t, tc.ok, res.OK())
			assert.Equal(t, tc.lintCalls, tc.fake.Called(lintCmd))
			assert.False(t, tc.fake.Called(buildCmd))

			if !tc.ok {
				failed, ok := res.(*Failed)
				require.True(t, ok)
				assert.Equal(t, tc.stage, failed.Stage)
				assert.NotEmpty(t, failed.Output)
				assert.ErrorIs(t, failed.Err(), errors.ErrValidationFailed)
			}
		})
	}
}

func TestQuickFailsWhenLinterIsMissing(t *testing.T) {
	t.Parallel()

	config := Config{
		Typecheck: []string{"true"},
		Lint:      []string{"gitcheckpoint-missing-linter"},
		Build:     []string{"true"},
	}
	res := New(runner.NewExecRunner(), t.TempDir(), config, nil).Quick(context.Background())

	failed, ok := res.(*Failed)
	require.True(t, ok, "a linter that never ran must not pass validation")
	assert.Equal(t, StageLint, failed.Stage)
	assert.False(t, failed.TimedOut)
}

func TestCommandsRunInRepository(t *testing.T) {
	t.Parallel()

	fake := runner.NewFakeRunner()
	New(fake, "/repo", DefaultConfig(), nil).Quick(context.Background())

	cmds := fake.Commands()
	require.Len(t, cmds, 2)
	for _, c := range cmds {
		assert.Equal(t, "/repo", c.Dir)
	}
}

func TestFull(t *testing.T) {
	t.Parallel()

	fake := runner.NewFakeRunner()
	assert.True(t, New(fake, "/repo", DefaultConfig(), nil).Full(context.Background()).OK())
	assert.Equal(t, []string{buildCmd}, fake.Calls())

	fake = runner.NewFakeRunner().On(buildCmd, runner.Response{ExitCode: 1, Stderr: "Module not found"})
	res := New(fake, "/repo", DefaultConfig(), nil).Full(context.Background())

	failed, ok := res.(*Failed)
	require.True(t, ok)
	assert.Equal(t, StageBuild, failed.Stage)
	assert.Equal(t, "Module not found", failed.Output)
	assert.False(t, failed.TimedOut)
	assert.EqualError(t, failed.Err(), "build failed")
}

func TestTimeoutIsFailure(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond

	fake := runner.NewFakeRunner().On(buildCmd, runner.Response{WaitForContext: true})
	res := New(fake, "/repo", cfg, nil).Full(context.Background())

	failed, ok := res.(*Failed)
	require.True(t, ok)
	assert.True(t, failed.TimedOut)
	assert.Equal(t, StageBuild, failed.Stage)
	assert.EqualError(t, failed.Err(), "build timed out")
}

func TestObserverSeesEachStage(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	New(runner.NewFakeRunner(), "/repo", DefaultConfig(), nil, WithObserver(obs)).Quick(context.Background())

	assert.Equal(t, []string{"typecheck", "lint"}, obs.stages)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Build = nil
	assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfiguration)

	cfg = DefaultConfig()
	cfg.Timeout = 0
	assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfiguration)
}
