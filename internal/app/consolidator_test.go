package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/classlens/classlens/internal/adapters/repository"
	"github.com/classlens/classlens/internal/domain/consolidate"
	"github.com/classlens/classlens/internal/domain/model"
)

func testSubmission(name string) model.Submission {
	return model.Submission{
		SubjectName: name,
		Variant:     model.VariantParentChecklist,
		Role:        model.RoleParent,
		Responses:   map[string]any{"shares_ideas_at_home": 4},
	}
}

func testContribution(id string) model.Contribution {
	return model.Contribution{
		ID:                id,
		Role:              model.RoleParent,
		Variant:           model.VariantParentChecklist,
		Scores:            model.ScoreVector{model.DimCommunication: 4.0},
		Weight:            0.5,
		ConfidenceBoost:   25,
		DimensionsCovered: []string{model.DimCommunication},
		SubmittedAt:       time.Now().UTC(),
	}
}

// racingStore loses the first-submission race once: the initial lookup
// misses, the insert collides, and only a re-read sees the winner.
type racingStore struct {
	repository.ProfileStore
	mu     sync.Mutex
	raced  bool
	winner *model.ConsolidatedProfile
}

func (r *racingStore) FindBySubject(_ context.Context, subjectKey string) (*model.ConsolidatedProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.raced {
		return nil, repository.ErrNotFound
	}
	return r.winner.Clone(), nil
}

func (r *racingStore) Insert(_ context.Context, p *model.ConsolidatedProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.raced {
		r.raced = true
		return repository.ErrDuplicateSubject
	}
	return errors.New("unexpected insert")
}

func (r *racingStore) Update(_ context.Context, p *model.ConsolidatedProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winner = p.Clone()
	return nil
}

func TestAtomicConsolidator(t *testing.T) {
	Convey("Given an atomic consolidator over the in-memory store", t, func() {
		store := repository.NewMemStore()
		c := NewAtomicConsolidator(store, consolidate.New())
		ctx := context.Background()

		Convey("When two contributions arrive for the same subject", func() {
			first, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-1"))
			So(err, ShouldBeNil)
			second, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-2"))
			So(err, ShouldBeNil)

			Convey("Then they land on one profile", func() {
				So(first.IsNew, ShouldBeTrue)
				So(second.IsNew, ShouldBeFalse)
				So(second.Profile.ID, ShouldEqual, first.Profile.ID)
				So(len(second.Profile.Contributions), ShouldEqual, 2)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}

func TestFallbackConsolidator(t *testing.T) {
	Convey("Given a fallback consolidator over a plain store", t, func() {
		ctx := context.Background()

		Convey("When the first submission loses its insert race", func() {
			winner := &model.ConsolidatedProfile{
				ID:         "p-winner",
				SubjectKey: model.SubjectKey("Avery Quinn"),
				Scores:     model.ScoreVector{model.DimCollaboration: 3.0},
				DimensionWeights: map[string]float64{
					model.DimCollaboration: 0.5,
				},
				Confidence:   25,
				Completeness: 12.5,
				Contributions: []model.Contribution{
					{ID: "c-winner"},
				},
				RoleCounts: map[model.Role]int{model.RoleParent: 1},
				CreatedAt:  time.Now().UTC(),
				UpdatedAt:  time.Now().UTC(),
			}
			store := &racingStore{}
			store.winner = winner

			c := NewFallbackConsolidator(store, consolidate.New(), 3)
			outcome, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-loser"))

			Convey("Then the retry merges into the winner's profile", func() {
				So(err, ShouldBeNil)
				So(outcome.IsNew, ShouldBeFalse)
				So(outcome.Profile.ID, ShouldEqual, "p-winner")
				So(len(outcome.Profile.Contributions), ShouldEqual, 2)
			})
		})

		Convey("When an update races with a concurrent write", func() {
			mem := repository.NewMemStore()
			store := &staleSnapshotStore{ProfileStore: mem}
			c := NewFallbackConsolidator(store, consolidate.New(), 3)

			first, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-1"))
			So(err, ShouldBeNil)
			second, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-2"))
			So(err, ShouldBeNil)
			So(len(second.Profile.Contributions), ShouldEqual, 2)

			// The next consolidation reads the profile as it was before
			// c-2 landed, the same interleaving as two goroutines whose
			// reads both precede either write.
			store.stale = first.Profile.Clone()

			third, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-3"))

			Convey("Then the stale write is retried instead of dropping a contribution", func() {
				So(err, ShouldBeNil)
				So(len(third.Profile.Contributions), ShouldEqual, 3)

				p, err := mem.FindBySubject(ctx, model.SubjectKey("Avery Quinn"))
				So(err, ShouldBeNil)
				So(len(p.Contributions), ShouldEqual, 3)
			})
		})

		Convey("When every attempt collides", func() {
			store := &alwaysDuplicateStore{}
			c := NewFallbackConsolidator(store, consolidate.New(), 2)

			_, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-1"))

			Convey("Then the retry budget surfaces as contention", func() {
				So(errors.Is(err, ErrMergeContention), ShouldBeTrue)
			})
		})

		Convey("When submissions arrive sequentially", func() {
			c := NewFallbackConsolidator(plainStore{repository.NewMemStore()}, consolidate.New(), 3)

			first, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-1"))
			So(err, ShouldBeNil)
			second, err := c.Consolidate(ctx, testSubmission("Avery Quinn"), testContribution("c-2"))
			So(err, ShouldBeNil)

			Convey("Then consolidation behaves like the atomic path", func() {
				So(first.IsNew, ShouldBeTrue)
				So(second.IsNew, ShouldBeFalse)
				So(len(second.Profile.Contributions), ShouldEqual, 2)
			})
		})
	})
}

// plainStore hides the in-memory store's merge capability so tests can
// exercise the fallback path.
type plainStore struct {
	repository.ProfileStore
}

// staleSnapshotStore serves one outdated clone on lookup, as if another
// writer committed between this consolidation's read and write.
type staleSnapshotStore struct {
	repository.ProfileStore
	mu    sync.Mutex
	stale *model.ConsolidatedProfile
}

func (s *staleSnapshotStore) FindBySubject(ctx context.Context, subjectKey string) (*model.ConsolidatedProfile, error) {
	s.mu.Lock()
	if s.stale != nil {
		p := s.stale
		s.stale = nil
		s.mu.Unlock()
		return p.Clone(), nil
	}
	s.mu.Unlock()
	return s.ProfileStore.FindBySubject(ctx, subjectKey)
}

// alwaysDuplicateStore never admits a new profile and never returns one.
type alwaysDuplicateStore struct {
	repository.ProfileStore
}

func (alwaysDuplicateStore) FindBySubject(context.Context, string) (*model.ConsolidatedProfile, error) {
	return nil, repository.ErrNotFound
}

func (alwaysDuplicateStore) Insert(context.Context, *model.ConsolidatedProfile) error {
	return repository.ErrDuplicateSubject
}
