package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	service "github.com/okian/disasterscope/internal/app"
	"github.com/okian/disasterscope/pkg/logger"
)

// Run executes the smoke test and returns its statistics. The error is
// ErrFailed when any check did not pass.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	start := time.Now()
	log := logger.Get().Named("smoke")
	client := newHTTPClient(cfg)

	log.Info(ctx, "starting smoke test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	if err := checkHealth(ctx, client); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	stats := &Stats{Requests: cfg.Requests}
	var mu sync.Mutex
	addViolations := func(v []string) {
		if len(v) == 0 {
			return
		}
		mu.Lock()
		stats.Violations = append(stats.Violations, v...)
		mu.Unlock()
	}

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for i, p := range generatePoints(cfg.Requests, cfg.Seed) {
		g.Go(func() error {
			var (
				status int
				body   []byte
				err    error
			)
			// Alternate between the two request shapes.
			if i%2 == 0 {
				status, body, err = client.Get(gctx, fmt.Sprintf("/predict?lat=%.4f&lng=%.4f", p.Lat, p.Lng))
			} else {
				status, body, err = client.Post(gctx, "/predict", p)
			}
			switch {
			case err != nil:
				failed.Add(1)
				addViolations([]string{fmt.Sprintf("%v: request failed: %v", p, err)})
			case status != http.StatusOK:
				failed.Add(1)
				addViolations([]string{fmt.Sprintf("%v: status %d: %s", p, status, body)})
			default:
				succeeded.Add(1)
				addViolations(verifyPrediction(p, body))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Succeeded = int(succeeded.Load())
	stats.Failed = int(failed.Load())

	for _, probe := range invalidProbes {
		status, _, err := client.Get(ctx, "/predict?"+probe.query)
		if err == nil && status == http.StatusBadRequest {
			stats.Invalid++
			continue
		}
		addViolations([]string{fmt.Sprintf("%s: want 400, got status %d err %v", probe.name, status, err)})
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "smoke test finished",
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("invalidRejected", stats.Invalid),
		logger.Int("violations", len(stats.Violations)),
		logger.Duration("duration", stats.Duration),
	)

	if !stats.OK() {
		return stats, ErrFailed
	}
	return stats, nil
}

func checkHealth(ctx context.Context, client *HTTPClient) error {
	status, body, err := client.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d", status)
	}
	var h service.Health
	if err := json.Unmarshal(body, &h); err != nil {
		return fmt.Errorf("undecodable health response: %w", err)
	}
	if !h.ModelsLoaded {
		return fmt.Errorf("models not loaded")
	}
	return nil
}
