package checkpoint

import (
	"context"
	"strings"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/errors"
)

// Checkpoint creation steps, reported in CheckpointError.Step.
const (
	StepStatus  = "status"
	StepVersion = "allocate version"
	StepStage   = "stage"
	StepCommit  = "commit"
	StepTag     = "tag"
	StepPush    = "push"
	StepPushTag = "push tag"
	StepResolve = "resolve commit"
)

// Outcome describes a checkpoint request.
type Outcome struct {
	Skipped          bool      `json:"skipped" yaml:"skipped"`
	Version          int       `json:"version,omitempty" yaml:"version,omitempty"`
	Tag              string    `json:"tag,omitempty" yaml:"tag,omitempty"`
	Commit           string    `json:"commit,omitempty" yaml:"commit,omitempty"`
	Description      string    `json:"description" yaml:"description"`
	CreatedAt        time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	Pushed           bool      `json:"pushed" yaml:"pushed"`
	ChangelogUpdated bool      `json:"changelog_updated" yaml:"changelog_updated"`
}

// Create commits every pending change, tags it as the next checkpoint,
// pushes both and records the checkpoint in the changelog.
//
// A clean work tree is not an error: the Outcome has Skipped set and nothing
// is written. A failing git step returns *errors.CheckpointError naming the
// step; earlier steps are not undone. A changelog write failure is logged as
// a warning and leaves ChangelogUpdated false.
func (s *Service) Create(ctx context.Context, description string) (Outcome, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}
	out := Outcome{Description: description}

	dirty, err := s.repo.IsDirty(ctx)
	if err != nil {
		return out, errors.NewCheckpointError(StepStatus, err)
	}
	if !dirty {
		s.logger.Info("No changes to checkpoint, skipping")
		s.recorder.CheckpointSkipped()
		out.Skipped = true
		return out, nil
	}

	tags, err := s.repo.ListTags(ctx, TagPattern)
	if err != nil {
		return out, errors.NewCheckpointError(StepVersion, err)
	}
	out.Version = NextVersion(tags)
	out.Tag = TagName(out.Version)
	s.logger.Info("Creating checkpoint %s: %s", out.Tag, description)

	if err := s.repo.StageAll(ctx); err != nil {
		return out, errors.NewCheckpointError(StepStage, err)
	}
	if err := s.repo.Commit(ctx, "Auto-checkpoint: "+description); err != nil {
		return out, errors.NewCheckpointError(StepCommit, err)
	}
	if err := s.repo.CreateAnnotatedTag(ctx, out.Tag, "Auto checkpoint after "+description); err != nil {
		return out, errors.NewCheckpointError(StepTag, err)
	}

	if s.config.Push {
		if err := s.repo.PushCurrentBranch(ctx, s.config.Remote); err != nil {
			return out, errors.NewCheckpointError(StepPush, err)
		}
		if err := s.repo.Push(ctx, s.config.Remote, out.Tag); err != nil {
			return out, errors.NewCheckpointError(StepPushTag, err)
		}
		out.Pushed = true
	}

	commit, err := s.repo.HeadCommit(ctx)
	if err != nil {
		return out, errors.NewCheckpointError(StepResolve, err)
	}
	out.Commit = commit
	out.CreatedAt = s.now()
	s.recorder.CheckpointCreated()

	if s.changelog != nil {
		err := s.changelog.AddCheckpoint(changelog.CheckpointEntry{
			Tag:         out.Tag,
			Time:        out.CreatedAt,
			Description: description,
			Commit:      commit,
		})
		if err != nil {
			s.logger.Warning("Checkpoint %s created but changelog update failed: %v", out.Tag, err)
		} else {
			out.ChangelogUpdated = true
		}
	}

	s.logger.Info("Checkpoint %s created at %s", out.Tag, commit)
	return out, nil
}
