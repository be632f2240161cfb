package checkpoint

import (
	"context"
	"strings"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

// RollbackOptions controls a rollback.
type RollbackOptions struct {
	Reason string

	// Force also deletes untracked files. The changelog is kept.
	Force bool
}

// RollbackOutcome describes a rollback request.
type RollbackOutcome struct {
	RolledBack       bool      `json:"rolled_back" yaml:"rolled_back"`
	Tag              string    `json:"tag,omitempty" yaml:"tag,omitempty"`
	Reason           string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	At               time.Time `json:"at,omitzero" yaml:"at,omitempty"`
	ChangelogUpdated bool      `json:"changelog_updated" yaml:"changelog_updated"`

	// Validation is set by ValidateAndRollback.
	Validation *validate.Failed `json:"validation,omitempty" yaml:"validation,omitempty"`
	// ValidationPassed is true when ValidateAndRollback found nothing to undo.
	ValidationPassed bool `json:"validation_passed,omitempty" yaml:"validation_passed,omitempty"`
}

// FullValidator runs the strict validation path.
type FullValidator interface {
	Full(ctx context.Context) validate.Result
}

// Latest returns the checkpoint tag with the highest version. It returns
// errors.ErrNoCheckpoints when no well-formed checkpoint tag exists.
func (s *Service) Latest(ctx context.Context) (string, error) {
	tags, err := s.repo.ListTags(ctx, TagPattern)
	if err != nil {
		return "", err
	}
	sorted := SortTags(tags)
	if len(sorted) == 0 {
		return "", errors.ErrNoCheckpoints
	}
	return sorted[0], nil
}

// Rollback resets the checked out branch to the latest checkpoint tag and
// records the rollback in the changelog. Uncommitted changes to tracked files
// are discarded; untracked files go too when opts.Force is set. The branch
// stays attached, so the next checkpoint pushes as usual.
//
// It returns errors.ErrNoCheckpoints, untouched, when there is nothing to
// roll back to; every other failure wraps errors.ErrRollbackFailed.
func (s *Service) Rollback(ctx context.Context, opts RollbackOptions) (RollbackOutcome, error) {
	reason := strings.TrimSpace(opts.Reason)
	if reason == "" {
		reason = DefaultReason
	}
	out := RollbackOutcome{Reason: reason}

	tag, err := s.Latest(ctx)
	if errors.Is(err, errors.ErrNoCheckpoints) {
		s.logger.Warning("No auto checkpoints found, nothing to roll back to")
		return out, err
	}
	if err != nil {
		return out, errors.Errorf("%w: %w", errors.ErrRollbackFailed, err)
	}
	out.Tag = tag

	// The reset rewinds a tracked changelog to the tag's copy, which predates
	// the tag's own entry.
	var saved string
	if s.changelog != nil {
		if saved, err = s.changelog.Snapshot(); err != nil {
			s.logger.Warning("Could not read changelog before rollback: %v", err)
		}
	}

	s.logger.Info("Rolling back to %s (%s)", tag, reason)
	if err := s.repo.ResetHard(ctx, tag); err != nil {
		return out, errors.Errorf("%w: %w", errors.ErrRollbackFailed, err)
	}
	if opts.Force {
		var keep []string
		if s.changelog != nil {
			keep = append(keep, s.changelog.Path())
		}
		if err := s.repo.Clean(ctx, keep...); err != nil {
			return out, errors.Errorf("%w: %w", errors.ErrRollbackFailed, err)
		}
	}
	out.RolledBack = true
	out.At = s.now()
	s.recorder.RollbackPerformed()

	if s.changelog != nil {
		err := s.changelog.Restore(saved)
		if err == nil {
			err = s.changelog.AddRollback(changelog.RollbackEntry{Tag: tag, Time: out.At, Reason: reason})
		}
		if err != nil {
			s.logger.Warning("Rolled back to %s but changelog update failed: %v", tag, err)
		} else {
			out.ChangelogUpdated = true
		}
	}
	return out, nil
}

// ValidateAndRollback runs the full build first. When it passes nothing is
// touched and ValidationPassed is set; when it fails the tree is rolled back
// with ValidationFailedReason.
func (s *Service) ValidateAndRollback(ctx context.Context, v FullValidator, force bool) (RollbackOutcome, error) {
	res := v.Full(ctx)
	failed, isFailed := res.(*validate.Failed)
	if !isFailed {
		s.logger.Info("Build validation passed, no rollback needed")
		return RollbackOutcome{ValidationPassed: true}, nil
	}

	s.logger.Warning("Build validation failed at %s, rolling back", failed.Stage)
	out, err := s.Rollback(ctx, RollbackOptions{Reason: ValidationFailedReason, Force: force})
	out.Validation = failed
	return out, err
}
