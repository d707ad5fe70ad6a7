package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// verifyProfiles fetches every profile reported during submission and
// checks that consolidation converged: one profile per child, the full
// submission count absorbed as contributions, and bounded scores.
func verifyProfiles(ctx context.Context, config *Config, profileBySubject map[string]string, stats *Stats) error {
	log.Printf("verifying %d profiles", len(profileBySubject))

	if len(profileBySubject) != config.NumChildren {
		return fmt.Errorf("expected %d profiles, service reported %d", config.NumChildren, len(profileBySubject))
	}

	client := newHTTPClient(config.Timeout)
	seen := make(map[string]string, len(profileBySubject))

	for subject, profileID := range profileBySubject {
		if prev, ok := seen[profileID]; ok {
			return fmt.Errorf("profile %s shared by subjects %q and %q", profileID, prev, subject)
		}
		seen[profileID] = subject

		profile, err := fetchProfile(ctx, client, config.BaseURL, profileID)
		if err != nil {
			stats.VerificationErrors++
			return fmt.Errorf("fetch profile for %q: %w", subject, err)
		}

		if err := checkProfile(config, subject, profile); err != nil {
			stats.VerificationErrors++
			return err
		}
		stats.ProfilesVerified++

		if config.Verbose {
			log.Printf("verified %q: contributions=%d confidence=%.1f completeness=%.1f",
				subject, len(profile.Contributions), profile.Confidence, profile.Completeness)
		}
	}

	log.Printf("verification completed: %d profiles consistent", stats.ProfilesVerified)
	return nil
}

// fetchProfile retrieves one consolidated profile.
func fetchProfile(ctx context.Context, client *HTTPClient, baseURL, profileID string) (*Profile, error) {
	resp, err := client.Get(ctx, baseURL+"/profiles/"+profileID)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// checkProfile validates one profile against the run configuration.
func checkProfile(config *Config, subject string, profile *Profile) error {
	if got, want := len(profile.Contributions), config.PerChild; got != want {
		return fmt.Errorf("profile for %q absorbed %d contributions, want %d", subject, got, want)
	}
	if profile.Confidence < 0 || profile.Confidence > 100 {
		return fmt.Errorf("profile for %q has confidence %.2f outside [0, 100]", subject, profile.Confidence)
	}
	if profile.Completeness < 0 || profile.Completeness > 100 {
		return fmt.Errorf("profile for %q has completeness %.2f outside [0, 100]", subject, profile.Completeness)
	}
	return nil
}
