package checkpoint

import (
	"context"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/git"
	"github.com/bashhack/gitcheckpoint/internal/logger"
)

const (
	// DefaultDescription is used when a checkpoint is requested without one.
	DefaultDescription = "Major changes completed"

	// DefaultReason is recorded when a rollback is requested without one.
	DefaultReason = "Manual rollback"

	// ValidationFailedReason is recorded when a failed build triggers the rollback.
	ValidationFailedReason = "Build validation failed"

	// DefaultRemote receives checkpoint commits and tags.
	DefaultRemote = "origin"
)

// Repository is the set of git operations checkpoints and rollbacks need.
// *git.Client satisfies it.
type Repository interface {
	IsDirty(ctx context.Context) (bool, error)
	ListTags(ctx context.Context, pattern string) ([]string, error)
	TagDetails(ctx context.Context, pattern string) ([]git.Tag, error)
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	CreateAnnotatedTag(ctx context.Context, name, message string) error
	PushCurrentBranch(ctx context.Context, remote string) error
	Push(ctx context.Context, remote, ref string) error
	HeadCommit(ctx context.Context) (string, error)
	ResetHard(ctx context.Context, ref string) error
	Clean(ctx context.Context, keep ...string) error
}

// Recorder receives checkpoint and rollback events. metrics.Recorder satisfies it.
type Recorder interface {
	CheckpointCreated()
	CheckpointSkipped()
	RollbackPerformed()
}

// Config controls where checkpoints are published.
type Config struct {
	// Push sends the commit and tag to Remote after tagging.
	Push   bool
	Remote string
}

// DefaultConfig pushes to origin.
func DefaultConfig() Config {
	return Config{Push: true, Remote: DefaultRemote}
}

// Service creates checkpoints and rolls back to them.
type Service struct {
	repo      Repository
	changelog *changelog.Changelog
	config    Config
	logger    logger.Logger
	recorder  Recorder
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for changelog timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder reports checkpoint and rollback events to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// New creates a Service. A nil logger discards log output.
func New(repo Repository, log *changelog.Changelog, config Config, l logger.Logger, opts ...Option) *Service {
	if l == nil {
		l = logger.Nop()
	}
	if config.Remote == "" {
		config.Remote = DefaultRemote
	}
	s := &Service{
		repo:      repo,
		changelog: log,
		config:    config,
		logger:    l,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type nopRecorder struct{}

func (nopRecorder) CheckpointCreated() {}
func (nopRecorder) CheckpointSkipped() {}
func (nopRecorder) RollbackPerformed() {}
