// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classlens/classlens/internal/adapters/repository"
	"github.com/classlens/classlens/internal/config"
	"github.com/classlens/classlens/internal/domain/cohort"
	"github.com/classlens/classlens/internal/domain/compat"
	"github.com/classlens/classlens/internal/domain/consolidate"
	"github.com/classlens/classlens/internal/domain/dedupe"
	"github.com/classlens/classlens/internal/domain/extract"
	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/internal/domain/risk"
	"github.com/classlens/classlens/internal/domain/styles"
	"github.com/classlens/classlens/internal/domain/trend"
	"github.com/classlens/classlens/internal/domain/types"
	"github.com/classlens/classlens/internal/domain/weighting"
	"github.com/classlens/classlens/pkg/logger"
	"github.com/classlens/classlens/pkg/metrics"
)

// Service implements the API dependencies for the consolidation engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.ProfileStore
	consolidator Consolidator
	deduper      dedupe.Deduper
	extractor    *extract.Extractor
	weighter     *weighting.Weighter
	engine       *consolidate.Engine

	// Configuration
	dedupeSize            int
	disagreementThreshold float64
	conflictFactor        float64
	mergeRetries          int
	maxClassroomSize      int
	maxTrendHorizon       int
	variantWeights        map[string]float64
	variantBoosts         map[string]float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the profile store. Defaults to an in-memory store.
func WithStore(store repository.ProfileStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDedupeSize sets the size of the submission idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDisagreementThreshold sets the score gap that counts as an
// observer conflict.
func WithDisagreementThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.disagreementThreshold = threshold
		}
	}
}

// WithConflictFactor sets the confidence scaling for conflicting
// contributions.
func WithConflictFactor(factor float64) Option {
	return func(s *Service) {
		if factor >= -1 && factor < 1 {
			s.conflictFactor = factor
		}
	}
}

// WithMergeRetries caps retries after losing a first-submission race.
func WithMergeRetries(retries int) Option {
	return func(s *Service) {
		if retries > 0 {
			s.mergeRetries = retries
		}
	}
}

// WithMaxClassroomSize caps profiles per classroom analytics request.
func WithMaxClassroomSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxClassroomSize = size
		}
	}
}

// WithMaxTrendHorizon caps trend extrapolation distance.
func WithMaxTrendHorizon(horizon int) Option {
	return func(s *Service) {
		if horizon > 0 {
			s.maxTrendHorizon = horizon
		}
	}
}

// WithVariantPolicies overrides variant weights and confidence boosts
// from configuration.
func WithVariantPolicies(weights, boosts map[string]float64) Option {
	return func(s *Service) {
		s.variantWeights = weights
		s.variantBoosts = boosts
	}
}

// FromConfig derives service options from loaded configuration.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithDedupeSize(cfg.DedupeSize),
		WithDisagreementThreshold(cfg.DisagreementThreshold),
		WithConflictFactor(cfg.ConflictFactor),
		WithMergeRetries(cfg.MergeRetries),
		WithMaxClassroomSize(cfg.MaxClassroomSize),
		WithMaxTrendHorizon(cfg.MaxTrendHorizon),
		WithVariantPolicies(cfg.VariantWeights, cfg.VariantBoosts),
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dedupeSize:            50000,
		disagreementThreshold: 1.5,
		conflictFactor:        -0.25,
		mergeRetries:          3,
		maxClassroomSize:      200,
		maxTrendHorizon:       12,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting consolidation service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory profile store")
	}
	s.deduper = dedupe.NewTracker(
		dedupe.WithCapacity(s.dedupeSize),
	)
	s.extractor = extract.New()
	s.weighter = weighting.New(
		weighting.WithPolicyTable(s.variantWeights, s.variantBoosts),
	)
	s.engine = consolidate.New(
		consolidate.WithDisagreementThreshold(s.disagreementThreshold),
		consolidate.WithConflictFactor(s.conflictFactor),
	)

	// Prefer merging under the store's own lock when the store can.
	if merger, ok := s.store.(repository.AtomicMerger); ok {
		s.consolidator = NewAtomicConsolidator(merger, s.engine)
		s.logger.Info(ctx, "using atomic consolidation")
	} else {
		s.consolidator = NewFallbackConsolidator(s.store, s.engine, s.mergeRetries)
		s.logger.Info(ctx, "using fallback consolidation",
			logger.Int("retries", s.mergeRetries),
		)
	}

	s.started = true
	s.logger.Info(ctx, "consolidation service started",
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("disagreementThreshold", s.disagreementThreshold),
		logger.Float64("conflictFactor", s.conflictFactor),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping consolidation service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "consolidation service stopped")
}

// SubmitAssessment validates, extracts, weighs, and merges one
// assessment submission into the subject's consolidated profile.
func (s *Service) SubmitAssessment(ctx context.Context, sub model.Submission) (types.SubmitResult, error) {
	start := time.Now()

	if err := s.validate(sub); err != nil {
		metrics.RecordSubmissionRejected()
		return types.SubmitResult{}, err
	}

	if sub.SubmissionID != "" && s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission absorbed",
			logger.String("submissionID", sub.SubmissionID),
		)
		return types.SubmitResult{}, fmt.Errorf("%w: %s", ErrDuplicateSubmission, sub.SubmissionID)
	}

	scores := s.extractor.Extract(sub)
	if len(scores) == 0 {
		s.unrecord(ctx, sub.SubmissionID)
		metrics.RecordSubmissionRejected()
		return types.SubmitResult{}, fmt.Errorf("%w: no scorable responses", ErrValidation)
	}

	weighed := s.weighter.Weigh(sub.Variant, scores)
	contribution := model.Contribution{
		ID:                uuid.NewString(),
		Role:              sub.Role,
		Variant:           sub.Variant,
		Scores:            scores,
		Weight:            weighed.Weight,
		ConfidenceBoost:   weighed.ConfidenceBoost,
		DimensionsCovered: weighed.DimensionsCovered,
		SubmittedAt:       time.Now().UTC(),
	}

	outcome, err := s.consolidator.Consolidate(ctx, sub, contribution)
	if err != nil {
		s.unrecord(ctx, sub.SubmissionID)
		metrics.RecordStoreError()
		return types.SubmitResult{}, err
	}

	metrics.RecordSubmissionReceived()
	metrics.RecordConsolidation()
	metrics.RecordConsolidationLatency(float64(time.Since(start).Milliseconds()))
	if outcome.IsNew {
		metrics.RecordProfileCreated()
	}
	if outcome.Conflicting {
		metrics.RecordConsolidationConflict()
	}
	metrics.UpdateProfilesTotal(s.store.Count(ctx))
	metrics.UpdateDedupeEntries(s.deduper.Size())

	s.logger.Info(ctx, "submission consolidated",
		logger.String("profileID", outcome.Profile.ID),
		logger.String("variant", string(sub.Variant)),
		logger.Bool("newProfile", outcome.IsNew),
		logger.Bool("conflicting", outcome.Conflicting),
	)

	return types.SubmitResult{
		ProfileID:    outcome.Profile.ID,
		IsNewProfile: outcome.IsNew,
		Confidence:   outcome.Profile.Confidence,
		Completeness: outcome.Profile.Completeness,
		Profile:      outcome.Profile.Clone(),
		Contribution: types.ContributionSummary{
			ContributionID:    contribution.ID,
			Role:              string(contribution.Role),
			Variant:           string(contribution.Variant),
			Weight:            contribution.Weight,
			ConfidenceBoost:   contribution.ConfidenceBoost,
			DimensionsCovered: contribution.DimensionsCovered,
			NewDimensions:     outcome.NewDimensions,
			Conflicting:       outcome.Conflicting,
		},
	}, nil
}

func (s *Service) validate(sub model.Submission) error {
	if strings.TrimSpace(sub.SubjectName) == "" {
		return fmt.Errorf("%w: subject name is required", ErrValidation)
	}
	if !model.ValidRole(sub.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, sub.Role)
	}
	if !model.ValidVariant(sub.Variant) {
		return fmt.Errorf("%w: unknown variant %q", ErrValidation, sub.Variant)
	}
	if len(sub.Responses) == 0 {
		return fmt.Errorf("%w: responses are required", ErrValidation)
	}
	return nil
}

func (s *Service) unrecord(ctx context.Context, submissionID string) {
	if submissionID != "" {
		s.deduper.Unrecord(ctx, submissionID)
	}
}

// Profile returns the full consolidated profile by ID.
func (s *Service) Profile(ctx context.Context, id string) (*model.ConsolidatedProfile, error) {
	start := time.Now()
	p, err := s.store.Get(ctx, id)
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, s.mapStoreErr(err, id)
	}
	return p, nil
}

// ProfileSummary returns the compact read view for one profile.
func (s *Service) ProfileSummary(ctx context.Context, id string) (types.ProfileSummary, error) {
	p, err := s.Profile(ctx, id)
	if err != nil {
		return types.ProfileSummary{}, err
	}
	return summarize(p), nil
}

func summarize(p *model.ConsolidatedProfile) types.ProfileSummary {
	roleCounts := make(map[string]int, len(p.RoleCounts))
	for role, n := range p.RoleCounts {
		roleCounts[string(role)] = n
	}
	return types.ProfileSummary{
		ProfileID:     p.ID,
		SubjectName:   p.SubjectName,
		AgeBand:       string(p.AgeBand),
		LearningStyle: string(styles.Classify(p.Scores)),
		Scores:        p.Scores,
		Confidence:    p.Confidence,
		Completeness:  p.Completeness,
		Contributions: len(p.Contributions),
		RoleCounts:    roleCounts,
		UpdatedAt:     p.UpdatedAt,
	}
}

// RiskReport computes the risk factors for one profile against the
// current cohort context.
func (s *Service) RiskReport(ctx context.Context, id string) ([]model.RiskFactor, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err, id)
	}

	averages, err := s.cohortAverages(ctx)
	if err != nil {
		return nil, err
	}

	metrics.RecordRiskReport()
	return risk.Assess(p, averages), nil
}

// cohortAverages derives classroom-level context from every stored
// profile.
func (s *Service) cohortAverages(ctx context.Context) (risk.CohortAverages, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return risk.CohortAverages{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var sum float64
	var n int
	for _, p := range all {
		if avg, ok := risk.AcademicAverage(p.Scores); ok {
			sum += avg
			n++
		}
	}
	if n == 0 {
		return risk.CohortAverages{}, nil
	}
	return risk.CohortAverages{Academic: sum / float64(n)}, nil
}

// ClassroomAnalytics aggregates the named profiles into a classroom
// report.
func (s *Service) ClassroomAnalytics(ctx context.Context, profileIDs []string) (cohort.Summary, error) {
	if len(profileIDs) == 0 {
		return cohort.Summary{}, fmt.Errorf("%w: profile_ids are required", ErrValidation)
	}
	if len(profileIDs) > s.maxClassroomSize {
		return cohort.Summary{}, fmt.Errorf("%w: at most %d profiles per classroom", ErrValidation, s.maxClassroomSize)
	}

	profiles := make([]*model.ConsolidatedProfile, 0, len(profileIDs))
	for _, id := range profileIDs {
		p, err := s.store.Get(ctx, id)
		if err != nil {
			return cohort.Summary{}, s.mapStoreErr(err, id)
		}
		profiles = append(profiles, p)
	}

	metrics.RecordClassroomReport()
	return cohort.Analyze(profiles), nil
}

// Compatibility scores how well two subjects would work together.
func (s *Service) Compatibility(ctx context.Context, idA, idB string) (compat.Result, error) {
	if idA == "" || idB == "" {
		return compat.Result{}, fmt.Errorf("%w: two profile ids are required", ErrValidation)
	}
	if idA == idB {
		return compat.Result{}, fmt.Errorf("%w: profile ids must differ", ErrValidation)
	}

	a, err := s.store.Get(ctx, idA)
	if err != nil {
		return compat.Result{}, s.mapStoreErr(err, idA)
	}
	b, err := s.store.Get(ctx, idB)
	if err != nil {
		return compat.Result{}, s.mapStoreErr(err, idB)
	}

	averages, err := s.cohortAverages(ctx)
	if err != nil {
		return compat.Result{}, err
	}

	metrics.RecordCompatibilityReport()
	return compat.Score(a, b, risk.Assess(a, averages), risk.Assess(b, averages)), nil
}

// Trend extrapolates one dimension of a profile from its contribution
// history.
func (s *Service) Trend(ctx context.Context, id, dimension string, horizon int) (trend.Prediction, error) {
	if !model.KnownDimension(dimension) {
		return trend.Prediction{}, fmt.Errorf("%w: unknown dimension %q", ErrValidation, dimension)
	}
	if horizon < 1 || horizon > s.maxTrendHorizon {
		return trend.Prediction{}, fmt.Errorf("%w: horizon must be in [1, %d]", ErrValidation, s.maxTrendHorizon)
	}

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return trend.Prediction{}, s.mapStoreErr(err, id)
	}

	samples := make([]model.ProgressSample, 0, len(p.Contributions))
	for _, c := range p.Contributions {
		if v, ok := c.Scores[dimension]; ok {
			samples = append(samples, model.ProgressSample{
				Date:     c.SubmittedAt,
				Metric:   dimension,
				Value:    v,
				MaxValue: model.ScoreMax,
			})
		}
	}

	metrics.RecordTrendPrediction()
	return trend.Predict(dimension, samples, horizon), nil
}

func (s *Service) mapStoreErr(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	metrics.RecordStoreError()
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"dedupeSize":       s.dedupeSize,
		"mergeRetries":     s.mergeRetries,
		"maxClassroomSize": s.maxClassroomSize,
	}

	if s.started {
		totalProfiles := s.store.Count(ctx)
		stats["totalProfiles"] = totalProfiles
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateProfilesTotal(totalProfiles)
		metrics.UpdateDedupeEntries(s.deduper.Size())
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
