// Package repository defines persistence for consolidated profiles.
package repository

import (
	"context"

	"github.com/classlens/classlens/internal/domain/model"
)

// ProfileStore provides read/write access to consolidated profiles.
// Implementations return deep copies; callers may mutate results
// freely without affecting stored state.
type ProfileStore interface {
	// FindBySubject returns the profile for a subject key.
	// Returns ErrNotFound if no profile exists for the key.
	FindBySubject(ctx context.Context, subjectKey string) (*model.ConsolidatedProfile, error)

	// Get returns the profile with the given ID.
	// Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (*model.ConsolidatedProfile, error)

	// Insert stores a brand-new profile. Returns ErrDuplicateSubject
	// if a profile for the same subject key already exists.
	Insert(ctx context.Context, p *model.ConsolidatedProfile) error

	// Update replaces an existing profile. The stored row must still be
	// at p.Version; a successful update commits with the version
	// incremented. Returns ErrNotFound if the profile was never
	// inserted and ErrVersionConflict if another writer committed since
	// the caller's read.
	Update(ctx context.Context, p *model.ConsolidatedProfile) error

	// List returns all stored profiles.
	List(ctx context.Context) ([]*model.ConsolidatedProfile, error)

	// Count returns the number of stored profiles.
	Count(ctx context.Context) int
}

// MergeFunc transforms the current profile for a subject into its next
// state. A nil existing means no profile exists for the subject yet.
type MergeFunc func(existing *model.ConsolidatedProfile) (*model.ConsolidatedProfile, error)

// AtomicMerger is an optional capability. Stores that implement it run
// the whole read-merge-write cycle for one subject under a single
// lock, so concurrent submissions for the same subject cannot lose
// contributions.
type AtomicMerger interface {
	Merge(ctx context.Context, subjectKey string, fn MergeFunc) (*model.ConsolidatedProfile, error)
}
