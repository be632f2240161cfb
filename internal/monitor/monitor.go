package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bashhack/gitcheckpoint/internal/analyzer"
	"github.com/bashhack/gitcheckpoint/internal/checkpoint"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/logger"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultDebounce = 2 * time.Second

	// DefaultCommandName prefixes the suggested commands.
	DefaultCommandName = "gitcheckpoint"

	// NoChangesReason is reported when the change is not significant.
	NoChangesReason = "No checkpoint suggestion needed at this time"
)

// Analyzer produces the change analysis for a cycle.
type Analyzer interface {
	Analyze(ctx context.Context) analyzer.Analysis
}

// QuickValidator runs the fast validation path.
type QuickValidator interface {
	Quick(ctx context.Context) validate.Result
}

// Recorder counts finished cycles. metrics.Recorder satisfies it.
type Recorder interface {
	CycleCompleted(outcome string)
}

// HookConfig describes the post-commit hook installed when the loop starts.
type HookConfig struct {
	Dir        string
	Executable string
	RepoPath   string
}

// Config controls the loop's triggers.
type Config struct {
	// Interval between polling cycles.
	Interval time.Duration

	// WatchDir is watched for writes to the HEAD reflog; each burst of
	// writes triggers one cycle after Debounce. Empty disables watching.
	WatchDir string
	Debounce time.Duration

	// Hook, when set, is installed on start.
	Hook *HookConfig

	CommandName string
}

// Monitor runs analysis cycles on a timer, on reflog changes and on demand.
// Suggestions are advisory; the monitor never creates checkpoints or rolls
// back by itself.
type Monitor struct {
	analyzer  Analyzer
	validator QuickValidator
	config    Config
	logger    logger.Logger
	recorder  Recorder
	onReport  func(Report)
	services  []func(context.Context) error

	state   atomic.Int32
	cycleMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	last    Report
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithRecorder counts cycles by outcome.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithReportHandler is called with every cycle's report.
func WithReportHandler(fn func(Report)) Option {
	return func(m *Monitor) { m.onReport = fn }
}

// WithService runs fn alongside the loop for as long as Run runs. An error
// from fn stops the loop.
func WithService(fn func(context.Context) error) Option {
	return func(m *Monitor) { m.services = append(m.services, fn) }
}

// New creates a Monitor in the Idle state.
func New(a Analyzer, v QuickValidator, config Config, log logger.Logger, opts ...Option) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.CommandName == "" {
		config.CommandName = DefaultCommandName
	}

	m := &Monitor{
		analyzer:  a,
		validator: v,
		config:    config,
		logger:    log,
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type nopRecorder struct{}

func (nopRecorder) CycleCompleted(string) {}

// State returns the current cycle state. After a cycle it holds the
// terminal state until the next cycle starts.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) setState(s State) {
	m.state.Store(int32(s))
}

// LastReport returns the most recent cycle report, or nil.
func (m *Monitor) LastReport() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Cycle runs one Analyzing → Validating → Suggest pass. Concurrent calls
// are serialized. Panics are recovered into a CycleError.
func (m *Monitor) Cycle(ctx context.Context) (rep Report) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	id := uuid.NewString()
	start := time.Now()
	m.setState(StateIdle)

	defer func() {
		if r := recover(); r != nil {
			rep = CycleError{Err: errors.Errorf("cycle panicked: %v", r)}
		}
		if ce, ok := rep.(CycleError); ok {
			m.setState(StateError)
			m.logger.Error("Checkpoint monitor cycle %s failed: %v", id, ce.Err)
		}

		m.recorder.CycleCompleted(rep.Outcome())
		m.mu.Lock()
		m.last = rep
		m.mu.Unlock()

		m.logger.Info("Cycle %s finished with %s in %s", id, rep.Outcome(), time.Since(start).Round(time.Millisecond))
		if m.onReport != nil {
			m.onReport(rep)
		}
	}()

	if err := ctx.Err(); err != nil {
		return CycleError{Err: err}
	}

	m.setState(StateAnalyzing)
	analysis := m.analyzer.Analyze(ctx)
	if analysis.Err != nil {
		m.setState(StateNoAction)
		return NoAction{Reason: "change analysis unavailable: " + analysis.Err.Error(), Analysis: analysis}
	}
	if !analysis.ShouldSuggestCheckpoint {
		m.setState(StateNoAction)
		return NoAction{Reason: NoChangesReason, Analysis: analysis}
	}

	m.setState(StateValidating)
	res := m.validator.Quick(ctx)
	if err := ctx.Err(); err != nil {
		return CycleError{Err: err}
	}

	if failed, ok := res.(*validate.Failed); ok {
		m.setState(StateSuggestRollback)
		return RollbackSuggestion{
			Reason:  checkpoint.ValidationFailedReason,
			Command: m.config.CommandName + " rollback",
			Failure: failed,
		}
	}

	s := analyzer.Suggest(analysis)
	m.setState(StateSuggestCheckpoint)
	return CheckpointSuggestion{
		Summary:  s.Summary,
		Command:  fmt.Sprintf("%s checkpoint \"Auto after %s\"", m.config.CommandName, s.Summary),
		Details:  s.Details,
		Analysis: analysis,
	}
}

// Run installs the hook, then runs the ticker, the reflog watcher and any
// extra services until ctx is done or one of them fails.
func (m *Monitor) Run(ctx context.Context) error {
	if h := m.config.Hook; h != nil {
		if path, err := InstallHook(h.Dir, h.Executable, h.RepoPath); err != nil {
			m.logger.Warning("Could not set up git hook %s: %v", path, err)
		} else {
			m.logger.Info("Git hook configured at %s", path)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.tickLoop(gctx) })
	if m.config.WatchDir != "" {
		g.Go(func() error { return m.watchLoop(gctx) })
	}
	for _, svc := range m.services {
		g.Go(func() error { return svc(gctx) })
	}

	err := g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

func (m *Monitor) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.logger.Info("Monitoring every %s", m.config.Interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Cycle(ctx)
		}
	}
}

// watchLoop triggers a cycle after the HEAD reflog settles. A watch that
// cannot be set up is logged and the loop carries on with the ticker alone.
func (m *Monitor) watchLoop(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.Warning("File watching unavailable: %v", err)
		return nil
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(m.config.WatchDir); err != nil {
		m.logger.Warning("Could not watch %s: %v", m.config.WatchDir, err)
		return nil
	}
	m.logger.Info("Watching %s for commits", m.config.WatchDir)

	debounce := time.NewTimer(m.config.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "HEAD" || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			debounce.Reset(m.config.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warning("File watcher error: %v", err)

		case <-debounce.C:
			m.Cycle(ctx)
		}
	}
}

// Start runs the loop in the background. It returns false, and does
// nothing, when the loop is already running.
func (m *Monitor) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.running = true
	m.cancel = cancel
	m.done = done
	m.runErr = nil

	go func() {
		defer close(done)
		err := m.Run(runCtx)
		m.mu.Lock()
		m.runErr = err
		m.mu.Unlock()
	}()
	return true
}

// Stop cancels a loop started with Start and waits for it to exit. Stopping
// a stopped monitor does nothing.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runErr
}

// Running reports whether a loop started with Start is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
