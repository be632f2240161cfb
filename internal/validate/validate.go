package validate

import (
	"context"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/logger"
	"github.com/bashhack/gitcheckpoint/internal/runner"
)

// Stage names a validation step.
type Stage string

const (
	StageTypecheck Stage = "typecheck"
	StageLint      Stage = "lint"
	StageBuild     Stage = "build"
)

// DefaultTimeout bounds each tool invocation.
const DefaultTimeout = 10 * time.Minute

// Config holds the tool command lines. Each is an argv list run without a shell.
type Config struct {
	Typecheck []string
	Lint      []string
	Build     []string
	Timeout   time.Duration
}

// DefaultConfig returns the TypeScript/npm toolchain defaults.
func DefaultConfig() Config {
	return Config{
		Typecheck: []string{"npx", "tsc", "--noEmit"},
		Lint:      []string{"npm", "run", "lint", "--", "--max-warnings", "0"},
		Build:     []string{"npm", "run", "build"},
		Timeout:   DefaultTimeout,
	}
}

// Validate checks every command is non-empty and the timeout is positive.
func (c Config) Validate() error {
	for name, argv := range map[string][]string{
		"validator.typecheck": c.Typecheck,
		"validator.lint":      c.Lint,
		"validator.build":     c.Build,
	} {
		if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
			return errors.NewConfigError(name, argv, errors.New("command must not be empty"))
		}
	}
	if c.Timeout <= 0 {
		return errors.NewConfigError("validator.timeout", c.Timeout, errors.New("must be positive"))
	}
	return nil
}

// Result is either Passed or *Failed.
type Result interface {
	OK() bool
	isResult()
}

// Passed is a successful validation.
type Passed struct {
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed is a validation that stopped at Stage.
type Failed struct {
	Stage    Stage         `json:"stage" yaml:"stage"`
	Output   string        `json:"output" yaml:"output"`
	TimedOut bool          `json:"timed_out" yaml:"timed_out"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// OK reports success.
func (Passed) OK() bool { return true }

// OK reports success.
func (*Failed) OK() bool { return false }

func (Passed) isResult() {}

func (*Failed) isResult() {}

// Err converts the failure into an error carrying ErrValidationFailed.
func (f *Failed) Err() error {
	return &errors.ValidationError{Stage: string(f.Stage), Output: f.Output, TimedOut: f.TimedOut}
}

// Observer is notified after each stage finishes. metrics.Recorder satisfies it.
type Observer interface {
	ObserveValidation(stage string, d time.Duration, ok bool)
}

// Validator runs the type-check, lint and build tools in the repository.
type Validator struct {
	runner   runner.CommandRunner
	dir      string
	config   Config
	logger   logger.Logger
	observer Observer
	stream   io.Writer
}

// Option configures a Validator.
type Option func(*Validator)

// WithObserver reports stage timings to o.
func WithObserver(o Observer) Option {
	return func(v *Validator) { v.observer = o }
}

// WithStream echoes tool output to w while it runs.
func WithStream(w io.Writer) Option {
	return func(v *Validator) { v.stream = w }
}

// New creates a Validator running tools in dir.
func New(r runner.CommandRunner, dir string, config Config, log logger.Logger, opts ...Option) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	v := &Validator{runner: r, dir: dir, config: config, logger: log}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Quick runs the type-check and then lint. Lint warnings are tolerated;
// lint errors fail.
func (v *Validator) Quick(ctx context.Context) Result {
	start := time.Now()

	if out, timedOut, err := v.run(ctx, StageTypecheck, v.config.Typecheck); err != nil {
		return &Failed{Stage: StageTypecheck, Output: out, TimedOut: timedOut, Duration: time.Since(start)}
	}

	out, timedOut, err := v.run(ctx, StageLint, v.config.Lint)
	if err != nil {
		if timedOut || notStarted(err) || LintHasErrors(out) {
			return &Failed{Stage: StageLint, Output: out, TimedOut: timedOut, Duration: time.Since(start)}
		}
		v.logger.Info("Lint reported warnings only, treating as success")
	}

	return Passed{Duration: time.Since(start)}
}

// Full runs the complete build; any non-zero exit fails.
func (v *Validator) Full(ctx context.Context) Result {
	start := time.Now()
	if out, timedOut, err := v.run(ctx, StageBuild, v.config.Build); err != nil {
		return &Failed{Stage: StageBuild, Output: out, TimedOut: timedOut, Duration: time.Since(start)}
	}
	return Passed{Duration: time.Since(start)}
}

// run executes one stage under the configured timeout and returns the
// combined output, whether the deadline was hit, and the failure.
func (v *Validator) run(ctx context.Context, stage Stage, argv []string) (string, bool, error) {
	stageCtx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	cmd := runner.Command{Dir: v.dir, Name: argv[0], Args: argv[1:], Stream: v.stream}
	v.logger.Info("Running %s: %s", stage, cmd)

	res, err := v.runner.Run(stageCtx, cmd)
	ok := err == nil
	if v.observer != nil {
		v.observer.ObserveValidation(string(stage), res.Duration, ok)
	}
	if ok {
		return "", false, nil
	}

	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(stageCtx.Err(), context.DeadlineExceeded)
	out := combine(res.Stdout, res.Stderr)
	if out == "" {
		out = err.Error()
	}
	if timedOut {
		v.logger.Warning("%s timed out after %s", stage, v.config.Timeout)
	} else {
		v.logger.Warning("%s failed: %v", stage, err)
	}
	return out, timedOut, err
}

// notStarted reports a tool that never ran; its output says nothing about lint.
func notStarted(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var cmdErr *errors.CommandError
	return errors.As(err, &cmdErr) && cmdErr.ExitCode < 0
}

func combine(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}

var (
	eslintSummary = regexp.MustCompile(`(\d+) problems? \((\d+) errors?, (\d+) warnings?\)`)

	// "12:5  error  ..." from eslint's stylish format, "12:5  Error: ..." from next lint.
	lintErrorLine = regexp.MustCompile(`(?m)^\s*\d+:\d+\s+(?:error\b|Error:)`)
)

// LintHasErrors classifies the output of a failed lint run. The ESLint
// summary line decides when present. Without one, any per-line error entry
// is fatal; failing that, output mentioning "error" without any "warning"
// counts as an error.
func LintHasErrors(output string) bool {
	if m := eslintSummary.FindAllStringSubmatch(output, -1); len(m) > 0 {
		last := m[len(m)-1]
		n, err := strconv.Atoi(last[2])
		return err != nil || n > 0
	}

	if lintErrorLine.MatchString(output) {
		return true
	}

	lower := strings.ToLower(output)
	return strings.Contains(lower, "error") && !strings.Contains(lower, "warning")
}
