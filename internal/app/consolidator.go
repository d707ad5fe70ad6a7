package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/classlens/classlens/internal/adapters/repository"
	"github.com/classlens/classlens/internal/domain/consolidate"
	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/pkg/metrics"
)

// Consolidator applies one contribution to the profile store. The two
// implementations trade atomicity for store generality; the service
// picks one at startup based on what the store can do.
type Consolidator interface {
	Consolidate(ctx context.Context, sub model.Submission, c model.Contribution) (consolidate.Outcome, error)
}

// AtomicConsolidator runs the read-merge-write cycle inside the
// store's own lock. Concurrent submissions for one subject serialize
// there and can never lose contributions.
type AtomicConsolidator struct {
	store  repository.AtomicMerger
	engine *consolidate.Engine
}

// NewAtomicConsolidator builds a consolidator over a store with merge
// support.
func NewAtomicConsolidator(store repository.AtomicMerger, engine *consolidate.Engine) *AtomicConsolidator {
	return &AtomicConsolidator{store: store, engine: engine}
}

func (a *AtomicConsolidator) Consolidate(ctx context.Context, sub model.Submission, c model.Contribution) (consolidate.Outcome, error) {
	var outcome consolidate.Outcome
	_, err := a.store.Merge(ctx, model.SubjectKey(sub.SubjectName), func(existing *model.ConsolidatedProfile) (*model.ConsolidatedProfile, error) {
		outcome = a.engine.Merge(existing, sub, c)
		return outcome.Profile, nil
	})
	if err != nil {
		return consolidate.Outcome{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return outcome, nil
}

// FallbackConsolidator works against any ProfileStore using separate
// read and write calls. Concurrent submissions for one subject can
// race in two ways: two first submissions collide on insert, and two
// follow-ups read the same snapshot before writing. The store's
// uniqueness constraint catches the first, its version check the
// second; either way the loser re-reads the committed profile and
// merges into it.
type FallbackConsolidator struct {
	store   repository.ProfileStore
	engine  *consolidate.Engine
	retries int
}

// NewFallbackConsolidator builds a consolidator with the given retry
// budget for lost insert and update races.
func NewFallbackConsolidator(store repository.ProfileStore, engine *consolidate.Engine, retries int) *FallbackConsolidator {
	if retries < 1 {
		retries = 1
	}
	return &FallbackConsolidator{store: store, engine: engine, retries: retries}
}

func (f *FallbackConsolidator) Consolidate(ctx context.Context, sub model.Submission, c model.Contribution) (consolidate.Outcome, error) {
	subjectKey := model.SubjectKey(sub.SubjectName)

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			metrics.RecordStoreRetry()
		}

		existing, err := f.store.FindBySubject(ctx, subjectKey)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return consolidate.Outcome{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		outcome := f.engine.Merge(existing, sub, c)

		if outcome.IsNew {
			err = f.store.Insert(ctx, outcome.Profile)
			if errors.Is(err, repository.ErrDuplicateSubject) {
				// Lost the race for the first profile; merge into the
				// winner's on the next attempt.
				continue
			}
		} else {
			err = f.store.Update(ctx, outcome.Profile)
			if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, repository.ErrNotFound) {
				// Another writer committed since the read; re-merge on
				// top of its profile.
				continue
			}
		}
		if err != nil {
			return consolidate.Outcome{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return outcome, nil
	}

	return consolidate.Outcome{}, fmt.Errorf("%w: subject %q", ErrMergeContention, subjectKey)
}
