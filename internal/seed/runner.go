package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/athletix/internal/domain/reference"
	"github.com/okian/athletix/pkg/logger"
)

const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"

	pollInterval = 100 * time.Millisecond
)

// ErrUnverified is returned when seeded athletes cannot be read back.
var ErrUnverified = errors.New("seeded data not readable")

// Run executes a complete seeding run: health check, generation,
// concurrent submission, settling and read-back verification.
func Run(ctx context.Context, cfg *Config, table *reference.Table) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.Timeout)

	log.Info(ctx, "starting athletix seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
	)

	status, _, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	if status != http.StatusOK {
		return stats, fmt.Errorf("service health check failed with status: %d", status)
	}

	athletes := NewGenerator(table, cfg.Seed).Athletes(cfg.Athletes, cfg.Days)
	subs := Submissions(athletes)
	stats.Athletes = len(athletes)

	baseline := processed(ctx, client, cfg.BaseURL)
	submit(ctx, cfg, client, subs, stats)
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
	)

	settle(ctx, cfg, client, baseline+int64(stats.Accepted))

	ids := make([]string, len(athletes))
	for i, a := range athletes {
		ids[i] = a.ID
	}
	verify(ctx, cfg, client, ids, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "final statistics",
		logger.Int("athletes", stats.Athletes),
		logger.Int("submissions", stats.Submissions),
		logger.Int("verified", stats.Verified),
		logger.Int("unverified", stats.Unverified),
		logger.String("duration", stats.Duration.String()),
	)

	if stats.Unverified > 0 {
		return stats, fmt.Errorf("%w: %d of %d athletes", ErrUnverified, stats.Unverified, stats.Athletes)
	}
	return stats, nil
}

// submit fans submissions out to cfg.Workers goroutines.
func submit(ctx context.Context, cfg *Config, client *HTTPClient, subs []Submission, stats *Stats) {
	log := logger.Get().Named("seed")
	var accepted, duplicate, failed atomic.Int64

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	ch := make(chan Submission, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range ch {
				outcome, err := submitOne(ctx, client, cfg.BaseURL, s)
				switch outcome {
				case outcomeAccepted:
					accepted.Add(1)
				case outcomeDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					log.Warn(ctx, "submission failed", logger.String("athlete", s.AthleteID), logger.Error(err))
				}
				if cfg.Verbose {
					log.Info(ctx, "submitted",
						logger.String("athlete", s.AthleteID),
						logger.String("path", s.Path),
						logger.String("outcome", outcome),
					)
				}
			}
		}()
	}

feed:
	for _, s := range subs {
		select {
		case <-ctx.Done():
			break feed
		case ch <- s:
		}
	}
	close(ch)
	wg.Wait()

	stats.Submissions = len(subs)
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
}

// processed reads the service's persisted-job counter from /stats.
func processed(ctx context.Context, client *HTTPClient, baseURL string) int64 {
	status, body, err := client.Get(ctx, baseURL+"/stats")
	if err != nil || status != http.StatusOK {
		return 0
	}
	var stats struct {
		Processed int64 `json:"processed"`
	}
	_ = json.Unmarshal(body, &stats)
	return stats.Processed
}

// settle waits until the service has persisted target jobs or cfg.Settle
// elapses.
func settle(ctx context.Context, cfg *Config, client *HTTPClient, target int64) {
	deadline := time.Now().Add(cfg.Settle)
	for time.Now().Before(deadline) {
		if processed(ctx, client, cfg.BaseURL) >= target {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
	logger.Get().Warn(ctx, "service did not settle in time", logger.String("settle", cfg.Settle.String()))
}

// verify reads each athlete's markers and readiness back.
func verify(ctx context.Context, cfg *Config, client *HTTPClient, ids []string, stats *Stats) {
	log := logger.Get().Named("seed")
	for _, id := range ids {
		ok := true
		for _, path := range []string{"/markers", "/readiness"} {
			status, _, err := client.Get(ctx, cfg.BaseURL+"/athletes/"+id+path)
			if err != nil || status != http.StatusOK {
				log.Warn(ctx, "read-back failed",
					logger.String("athlete", id),
					logger.String("path", path),
					logger.Int("status", status),
				)
				ok = false
			}
		}
		if ok {
			stats.Verified++
		} else {
			stats.Unverified++
		}
	}
}
