package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitOutcome classifies one submission attempt.
type submitOutcome int

const (
	outcomeCreated submitOutcome = iota
	outcomeMerged
	outcomeDuplicate
	outcomeFailed
)

// submitSubmissions posts submissions concurrently using a worker pool and
// records the profile ID reported for each subject.
func submitSubmissions(ctx context.Context, config *Config, subs []Submission, stats *Stats) (map[string]string, error) {
	log.Printf("submitting %d submissions with %d workers", len(subs), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/assessments"

	var (
		created   int64
		merged    int64
		duplicate int64
		failed    int64
		submitted int64
	)

	// Profile IDs per subject name, as reported by the service.
	var mu sync.Mutex
	profileBySubject := make(map[string]string, config.NumChildren)

	subChan := make(chan Submission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sub := range subChan {
				if ctx.Err() != nil {
					return
				}

				outcome, profileID := submitOne(ctx, client, url, sub)

				atomic.AddInt64(&submitted, 1)
				switch outcome {
				case outcomeCreated:
					atomic.AddInt64(&created, 1)
				case outcomeMerged:
					atomic.AddInt64(&merged, 1)
				case outcomeDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				}

				if profileID != "" {
					mu.Lock()
					profileBySubject[sub.SubjectName] = profileID
					mu.Unlock()
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.SubmissionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SubmissionsCreated = int(atomic.LoadInt64(&created))
	stats.SubmissionsMerged = int(atomic.LoadInt64(&merged))
	stats.SubmissionsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SubmissionsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("submission completed: created=%d merged=%d duplicate=%d failed=%d",
		stats.SubmissionsCreated, stats.SubmissionsMerged, stats.SubmissionsDuplicate, stats.SubmissionsFailed)

	if stats.SubmissionsFailed > 0 {
		return profileBySubject, fmt.Errorf("%d of %d submissions failed", stats.SubmissionsFailed, stats.SubmissionsSubmitted)
	}
	return profileBySubject, nil
}

// submitOne posts a single submission and classifies the outcome.
func submitOne(ctx context.Context, client *HTTPClient, url string, sub Submission) (submitOutcome, string) {
	resp, err := client.Post(ctx, url, sub)
	if err != nil {
		return outcomeFailed, ""
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return outcomeFailed, ""
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var result SubmitResult
		if err := json.Unmarshal(body, &result); err != nil {
			return outcomeFailed, ""
		}
		return outcomeCreated, result.ProfileID
	case http.StatusOK:
		var ack DuplicateAck
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return outcomeDuplicate, ""
		}
		var result SubmitResult
		if err := json.Unmarshal(body, &result); err != nil {
			return outcomeFailed, ""
		}
		return outcomeMerged, result.ProfileID
	default:
		return outcomeFailed, ""
	}
}
