package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/classlens/classlens/pkg/logger"
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)

// Run executes the complete submission storm: generate, submit
// concurrently, replay a fraction for idempotency, then verify.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting classlens submission storm",
		logger.String("baseURL", config.BaseURL),
		logger.Int("children", config.NumChildren),
		logger.Int("perChild", config.PerChild),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	subs, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("submission generation failed: %w", err)
	}

	// Mix in replays so the run exercises idempotency under load.
	subs = appendReplays(subs, config.ReplayFraction)

	profileBySubject, err := submitSubmissions(ctx, config, subs, stats)
	if err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	if err := verifyProfiles(ctx, config, profileBySubject, stats); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "storm completed successfully")
	return nil
}

// appendReplays duplicates a fraction of the submissions so the service
// sees already-processed submission IDs.
func appendReplays(subs []Submission, fraction float64) []Submission {
	if fraction <= 0 {
		return subs
	}
	replays := int(float64(len(subs)) * fraction)
	if replays > len(subs) {
		replays = len(subs)
	}
	return append(subs, subs[:replays]...)
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 means healthy (the endpoint serves Prometheus metrics).
	if resp.StatusCode != 200 {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, submissionsPerSecond float64

	processed := stats.SubmissionsCreated + stats.SubmissionsMerged
	if stats.SubmissionsSubmitted > 0 {
		successRate = float64(processed) / float64(stats.SubmissionsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		submissionsPerSecond = float64(stats.SubmissionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("submissionsGenerated", stats.SubmissionsGenerated),
		logger.Int("submissionsSubmitted", stats.SubmissionsSubmitted),
		logger.Int("profilesCreated", stats.SubmissionsCreated),
		logger.Int("merges", stats.SubmissionsMerged),
		logger.Int("duplicates", stats.SubmissionsDuplicate),
		logger.Int("failures", stats.SubmissionsFailed),
		logger.Int("profilesVerified", stats.ProfilesVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", submissionsPerSecond))
}
