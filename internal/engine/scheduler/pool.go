// Package scheduler implements the bounded-concurrency work unit scheduler.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// UnitStatus represents the status of a work unit.
type UnitStatus string

const (
	// StatusPending indicates the unit is waiting to be executed.
	StatusPending UnitStatus = "Pending"
	// StatusRunning indicates the unit is currently executing.
	StatusRunning UnitStatus = "Running"
	// StatusCompleted indicates the unit finished successfully.
	StatusCompleted UnitStatus = "Completed"
	// StatusFailed indicates the unit exhausted its retry budget.
	StatusFailed UnitStatus = "Failed"
)

// Options configure one pool.
type Options struct {
	// Workers bounds concurrent unit executions. Values below 1 are
	// treated as 1.
	Workers int
	// MaxRetries is the number of additional producer invocations after
	// the first failure.
	MaxRetries uint64
	// BaseDelay is the first backoff interval; it doubles on every
	// further attempt.
	BaseDelay time.Duration
}

// DefaultOptions mirror the conservative defaults of the remote services:
// a handful of workers and a short exponential backoff.
func DefaultOptions() Options {
	return Options{
		Workers:    4,
		MaxRetries: 2,
		BaseDelay:  1500 * time.Millisecond,
	}
}

// Pool runs independent work units under a fixed-size worker pool with
// per-unit retry and progress estimation. Units are assumed independent;
// the only ordering guarantee is that each result is attributed to its
// unit's identity.
type Pool struct {
	opts      Options
	logger    ports.Logger
	telemetry ports.Telemetry

	mu       sync.RWMutex
	statuses map[string]UnitStatus
}

// NewPool creates a pool with the given options.
func NewPool(opts Options, logger ports.Logger, telemetry ports.Telemetry) *Pool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultOptions().BaseDelay
	}
	return &Pool{
		opts:      opts,
		logger:    logger,
		telemetry: telemetry,
		statuses:  make(map[string]UnitStatus),
	}
}

// Status returns the last observed status of a unit.
func (p *Pool) Status(id string) UnitStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.statuses[id]
}

func (p *Pool) setStatus(id string, status UnitStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[id] = status
}

// RunAll executes every unit and returns one result per unit, index-aligned
// with the input. A unit that exhausts its retries surfaces as a failed
// result; it never aborts sibling units or the pool itself.
func (p *Pool) RunAll(ctx context.Context, units []domain.Unit) []domain.Result {
	results := make([]domain.Result, len(units))
	if len(units) == 0 {
		return results
	}

	for _, unit := range units {
		p.setStatus(unit.ID, StatusPending)
	}

	progress := newProgress(len(units), p.opts.Workers)

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, unit := range units {
		g.Go(func() error {
			results[i] = p.runUnit(ctx, unit)
			elapsed, avg, eta := progress.complete(results[i].Elapsed)
			p.logger.Info("unit finished",
				"unit", unit.ID,
				"ok", results[i].OK(),
				"attempts", results[i].Attempts,
				"elapsed", elapsed.Round(time.Millisecond),
				"avg_unit", avg.Round(time.Millisecond),
				"eta", eta.Round(time.Second),
			)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// runUnit invokes the producer with retry and exponential backoff. Any
// failure is treated as retryable until the budget is exhausted, except
// errors the producer marked permanent.
func (p *Pool) runUnit(ctx context.Context, unit domain.Unit) domain.Result {
	p.setStatus(unit.ID, StatusRunning)
	_, vtx := p.telemetry.Record(ctx, unit.ID)

	start := time.Now()
	var value string
	attempts := 0

	operation := func() error {
		attempts++
		var err error
		value, err = unit.Produce(ctx)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.opts.BaseDelay
	policy.Multiplier = 2
	// Zero jitter keeps the backoff schedule deterministic.
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, p.opts.MaxRetries), ctx))
	vtx.Complete(err)
	if err != nil {
		p.setStatus(unit.ID, StatusFailed)
	} else {
		p.setStatus(unit.ID, StatusCompleted)
	}

	return domain.Result{
		ID:       unit.ID,
		Value:    value,
		Err:      err,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}
}

// progress tracks completion counts and a moving-average unit duration for
// the advisory ETA. It never influences scheduling.
type progress struct {
	mu        sync.Mutex
	start     time.Time
	total     int
	workers   int
	completed int
	sum       time.Duration
}

func newProgress(total, workers int) *progress {
	return &progress{start: time.Now(), total: total, workers: workers}
}

// complete records one finished unit and returns elapsed wall time, the
// average unit duration so far and the estimated time remaining:
// remaining/workers rounds of the average.
func (pr *progress) complete(d time.Duration) (elapsed, avg, eta time.Duration) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.completed++
	pr.sum += d
	avg = pr.sum / time.Duration(pr.completed)
	remaining := pr.total - pr.completed
	eta = avg * time.Duration(remaining) / time.Duration(pr.workers)
	return time.Since(pr.start), avg, eta
}
