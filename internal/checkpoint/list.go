package checkpoint

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bashhack/gitcheckpoint/internal/changelog"
)

// Checkpoint is a checkpoint tag as it exists in the repository.
type Checkpoint struct {
	Version     int       `json:"version" yaml:"version"`
	Tag         string    `json:"tag" yaml:"tag"`
	Commit      string    `json:"commit" yaml:"commit"`
	Created     time.Time `json:"created" yaml:"created"`
	Description string    `json:"description" yaml:"description"`
}

const tagMessagePrefix = "Auto checkpoint after "

// List returns every well-formed checkpoint, highest version first.
func (s *Service) List(ctx context.Context) ([]Checkpoint, error) {
	tags, err := s.repo.TagDetails(ctx, TagPattern)
	if err != nil {
		return nil, err
	}

	var out []Checkpoint
	for _, t := range tags {
		n, ok := ParseTagVersion(t.Name)
		if !ok {
			continue
		}
		out = append(out, Checkpoint{
			Version:     n,
			Tag:         t.Name,
			Commit:      t.Commit,
			Created:     t.Created,
			Description: strings.TrimPrefix(t.Subject, tagMessagePrefix),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

// Rollbacks returns the rollbacks recorded in the changelog, newest first.
// Tags carry no trace of a rollback, so without a changelog there are none.
func (s *Service) Rollbacks() ([]changelog.Record, error) {
	if s.changelog == nil {
		return nil, nil
	}
	records, err := s.changelog.Entries()
	if err != nil {
		return nil, err
	}

	var out []changelog.Record
	for _, r := range records {
		if r.Kind == changelog.KindRollback {
			out = append(out, r)
		}
	}
	return out, nil
}
