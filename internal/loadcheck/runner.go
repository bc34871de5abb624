package loadcheck

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/StacL/tdd/pkg/logger"
)

// Number of mismatches logged when Verbose is off.
const mismatchSample = 10

// Runner executes one load check.
type Runner struct {
	cfg    *Config
	client *Client
	log    logger.Logger

	mismatches atomic.Int64
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *Config, log logger.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.Timeout),
		log:    log,
	}
}

// Run executes the complete check: create, conflict, concurrent increments,
// read-back, delete and second delete. It returns ErrVerification when any
// response deviates from the counter contract.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	stats := &Stats{StartTime: time.Now()}
	r.log.Info(ctx, "starting counter load check",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.Int("counters", r.cfg.Counters),
		logger.Int("increments", r.cfg.Increments),
		logger.Int("workers", r.cfg.Workers))

	if err := r.checkHealth(ctx); err != nil {
		return nil, err
	}

	names := r.generateNames()

	steps := []struct {
		name string
		fn   func(context.Context, []string, *Stats) error
	}{
		{"create", r.createAll},
		{"conflict", r.conflictAll},
		{"increment", r.incrementAll},
		{"verify", r.verifyAll},
		{"delete", r.deleteAll},
	}
	for _, step := range steps {
		if err := step.fn(ctx, names, stats); err != nil {
			return stats, fmt.Errorf("%s step: %w", step.name, err)
		}
	}

	stats.Mismatches = int(r.mismatches.Load())
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.logStats(ctx, stats)

	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d mismatches", ErrVerification, stats.Mismatches)
	}
	r.log.Info(ctx, "load check completed successfully")
	return stats, nil
}

func (r *Runner) checkHealth(ctx context.Context) error {
	status, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func (r *Runner) generateNames() []string {
	names := make([]string, r.cfg.Counters)
	for i := range names {
		names[i] = r.cfg.Prefix + uuid.NewString()
	}
	return names
}

func (r *Runner) createAll(ctx context.Context, names []string, stats *Stats) error {
	var created atomic.Int64
	err := r.forEach(ctx, names, func(ctx context.Context, name string) error {
		resp, err := r.client.Create(ctx, name)
		if err != nil {
			return err
		}
		if resp.Status != http.StatusCreated || resp.Value != 0 {
			r.mismatch(ctx, "create", name, fmt.Sprintf("got %d %v, want 201 {%s: 0}", resp.Status, resp.Body, name))
			return nil
		}
		created.Add(1)
		return nil
	})
	stats.CountersCreated = int(created.Load())
	return err
}

func (r *Runner) conflictAll(ctx context.Context, names []string, stats *Stats) error {
	var conflicts atomic.Int64
	err := r.forEach(ctx, names, func(ctx context.Context, name string) error {
		resp, err := r.client.Create(ctx, name)
		if err != nil {
			return err
		}
		if resp.Status != http.StatusConflict {
			r.mismatch(ctx, "conflict", name, fmt.Sprintf("got %d, want 409", resp.Status))
			return nil
		}
		conflicts.Add(1)
		return nil
	})
	stats.ConflictsObserved = int(conflicts.Load())
	return err
}

func (r *Runner) incrementAll(ctx context.Context, names []string, stats *Stats) error {
	jobs := make([]string, 0, len(names)*r.cfg.Increments)
	for i := 0; i < r.cfg.Increments; i++ {
		jobs = append(jobs, names...)
	}

	var sent, failed atomic.Int64
	err := r.forEach(ctx, jobs, func(ctx context.Context, name string) error {
		resp, err := r.client.Increment(ctx, name)
		sent.Add(1)
		if err != nil {
			return err
		}
		if resp.Status != http.StatusOK {
			failed.Add(1)
			r.mismatch(ctx, "increment", name, fmt.Sprintf("got %d, want 200", resp.Status))
		}
		return nil
	})
	stats.IncrementsSent = int(sent.Load())
	stats.IncrementsFailed = int(failed.Load())
	return err
}

func (r *Runner) verifyAll(ctx context.Context, names []string, stats *Stats) error {
	want := int64(r.cfg.Increments)
	var verified atomic.Int64
	err := r.forEach(ctx, names, func(ctx context.Context, name string) error {
		resp, err := r.client.Read(ctx, name)
		if err != nil {
			return err
		}
		if resp.Status != http.StatusOK || resp.Value != want {
			r.mismatch(ctx, "verify", name, fmt.Sprintf("got %d value %d, want 200 value %d", resp.Status, resp.Value, want))
			return nil
		}
		verified.Add(1)
		return nil
	})
	stats.CountersVerified = int(verified.Load())
	return err
}

func (r *Runner) deleteAll(ctx context.Context, names []string, stats *Stats) error {
	var deleted atomic.Int64
	err := r.forEach(ctx, names, func(ctx context.Context, name string) error {
		resp, err := r.client.Delete(ctx, name)
		if err != nil {
			return err
		}
		if resp.Status != http.StatusNoContent {
			r.mismatch(ctx, "delete", name, fmt.Sprintf("got %d, want 204", resp.Status))
			return nil
		}
		deleted.Add(1)

		resp, err = r.client.Delete(ctx, name)
		if err != nil {
			return err
		}
		if resp.Status != http.StatusNotFound {
			r.mismatch(ctx, "delete", name, fmt.Sprintf("second delete got %d, want 404", resp.Status))
		}
		return nil
	})
	stats.CountersDeleted = int(deleted.Load())
	return err
}

// forEach runs fn over items with cfg.Workers goroutines and returns the
// first transport error. Remaining items are skipped after an error.
func (r *Runner) forEach(ctx context.Context, items []string, fn func(context.Context, string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan string, r.cfg.Workers*2)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				if ctx.Err() != nil {
					continue
				}
				if err := fn(ctx, item); err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

feed:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break feed
		case work <- item:
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (r *Runner) mismatch(ctx context.Context, step, name, detail string) {
	n := r.mismatches.Add(1)
	if r.cfg.Verbose || n <= mismatchSample {
		r.log.Warn(ctx, "counter contract mismatch",
			logger.String("step", step),
			logger.String("name", name),
			logger.String("detail", detail))
	}
}

func (r *Runner) logStats(ctx context.Context, stats *Stats) {
	var rps float64
	if stats.Duration > 0 {
		rps = float64(stats.IncrementsSent) / stats.Duration.Seconds()
	}
	r.log.Info(ctx, "final statistics",
		logger.Int("countersCreated", stats.CountersCreated),
		logger.Int("conflictsObserved", stats.ConflictsObserved),
		logger.Int("incrementsSent", stats.IncrementsSent),
		logger.Int("incrementsFailed", stats.IncrementsFailed),
		logger.Int("countersVerified", stats.CountersVerified),
		logger.Int("countersDeleted", stats.CountersDeleted),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("incrementsPerSecond", rps))
}
