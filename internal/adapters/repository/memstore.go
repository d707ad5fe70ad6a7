package repository

import (
	"context"
	"sync"

	"github.com/classlens/classlens/internal/domain/model"
)

// MemStore keeps profiles in process memory. It implements both
// ProfileStore and AtomicMerger, so concurrent submissions for one
// subject merge under the store lock instead of racing.
type MemStore struct {
	mu        sync.RWMutex
	bySubject map[string]*model.ConsolidatedProfile
	subjectOf map[string]string // profile ID -> subject key
}

// NewMemStore creates an empty in-memory profile store.
func NewMemStore() *MemStore {
	return &MemStore{
		bySubject: make(map[string]*model.ConsolidatedProfile),
		subjectOf: make(map[string]string),
	}
}

func (s *MemStore) FindBySubject(_ context.Context, subjectKey string) (*model.ConsolidatedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.bySubject[subjectKey]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemStore) Get(_ context.Context, id string) (*model.ConsolidatedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.subjectOf[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.bySubject[key].Clone(), nil
}

func (s *MemStore) Insert(_ context.Context, p *model.ConsolidatedProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySubject[p.SubjectKey]; ok {
		return ErrDuplicateSubject
	}
	s.bySubject[p.SubjectKey] = p.Clone()
	s.subjectOf[p.ID] = p.SubjectKey
	return nil
}

// Update replaces a stored profile if the caller read its current
// version. A stale version means another writer committed in between;
// the caller must re-read and re-merge.
func (s *MemStore) Update(_ context.Context, p *model.ConsolidatedProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.subjectOf[p.ID]
	if !ok {
		return ErrNotFound
	}
	if s.bySubject[key].Version != p.Version {
		return ErrVersionConflict
	}

	next := p.Clone()
	next.Version++
	s.bySubject[key] = next
	return nil
}

func (s *MemStore) List(_ context.Context) ([]*model.ConsolidatedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ConsolidatedProfile, 0, len(s.bySubject))
	for _, p := range s.bySubject {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bySubject)
}

// Merge applies fn to the current profile for subjectKey and stores
// the result, all under the write lock.
func (s *MemStore) Merge(_ context.Context, subjectKey string, fn MergeFunc) (*model.ConsolidatedProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *model.ConsolidatedProfile
	if p, ok := s.bySubject[subjectKey]; ok {
		existing = p.Clone()
	}

	next, err := fn(existing)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		next.Version = existing.Version + 1
	}

	s.bySubject[subjectKey] = next.Clone()
	s.subjectOf[next.ID] = subjectKey
	return next, nil
}
