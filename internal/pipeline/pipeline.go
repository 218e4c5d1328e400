package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Loader produces the observations of a set of regions.
type Loader interface {
	Load(ctx context.Context, regions []domain.Region) ([]domain.Observation, error)
}

// Invalidator is implemented by loaders that cache and can be told to forget.
type Invalidator interface {
	Invalidate()
}

// Scorer turns a loaded batch into an anomaly result.
type Scorer interface {
	Score(obs []domain.Observation, params domain.Params) (domain.Result, error)
}

// Publisher delivers a computed result downstream.
type Publisher interface {
	Publish(ctx context.Context, result domain.Result) error
}

// Pipeline orchestrates load, aggregate, estimate and score for each request.
// Requests are independent and may run concurrently.
type Pipeline struct {
	loader    Loader
	scorer    Scorer
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	span      atomic.Pointer[domain.YearRange]
}

// New creates a Pipeline. Pass a nil publisher to disable the sink.
func New(l Loader, s Scorer, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:    l,
		scorer:    s,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once observations have been loaded,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("observations have not been loaded yet")
	}
	return nil
}

// Compute validates the parameters, loads every region through the cache and
// scores the requested regions. Publishing failures are logged, never returned.
func (p *Pipeline) Compute(ctx context.Context, params domain.Params) (domain.Result, error) {
	start := time.Now()

	params, err := domain.Normalize(params)
	if err != nil {
		p.recordFailure(err)
		return domain.Result{}, err
	}

	obs, err := p.loadAll(ctx)
	if err != nil {
		p.recordFailure(err)
		return domain.Result{}, fmt.Errorf("load observations: %w", err)
	}

	result, err := p.scorer.Score(obs, params)
	if err != nil {
		p.recordFailure(err)
		return domain.Result{}, err
	}

	p.recordSuccess(result, time.Since(start))
	p.logger.Info("anomalies computed",
		"regions", result.Params.Regions,
		"years", result.Params.Years.String(),
		"baseline", result.Params.Baseline.String(),
		"window", result.Params.Window,
		"rows", len(result.Rows),
		"dropped", result.Dropped,
		"undefined", len(result.Rows)-result.StatusCounts[domain.StatusOK],
		"duration", time.Since(start),
	)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, result); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Warn("publish result failed", "error", err, "regions", result.Params.Regions)
		}
	}
	return result, nil
}

// AvailableYears returns the span of the most recent successful load. It never
// calls the loader, so an expired cache entry is not refetched here.
func (p *Pipeline) AvailableYears(_ context.Context) (domain.YearRange, bool) {
	span := p.span.Load()
	if span == nil {
		return domain.YearRange{}, false
	}
	return *span, true
}

// Warm loads the full region set, retrying with exponential backoff until it
// succeeds or the context is cancelled.
func (p *Pipeline) Warm(ctx context.Context) error {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for attempt := 1; ; attempt++ {
		_, err := p.loadAll(ctx)
		if err == nil {
			p.logger.Info("observations warmed", "attempts", attempt)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("warm-up load failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// Refresh drops cached observations and loads them again.
func (p *Pipeline) Refresh(ctx context.Context) error {
	if inv, ok := p.loader.(Invalidator); ok {
		inv.Invalidate()
	}
	if _, err := p.loadAll(ctx); err != nil {
		return fmt.Errorf("refresh observations: %w", err)
	}
	p.logger.Info("observations refreshed")
	return nil
}

// loadAll loads the whole catalogue so every request shares one cache entry.
func (p *Pipeline) loadAll(ctx context.Context) ([]domain.Observation, error) {
	obs, err := p.loader.Load(ctx, domain.Regions())
	if err != nil {
		return nil, err
	}
	if span, ok := domain.AvailableYears(obs); ok {
		p.span.Store(&span)
	}
	if p.ready.CompareAndSwap(false, true) {
		p.metrics.DataReady.Set(1)
	}
	return obs, nil
}

func (p *Pipeline) recordSuccess(result domain.Result, elapsed time.Duration) {
	p.metrics.Computations.WithLabelValues("success").Inc()
	p.metrics.ComputeDuration.Observe(elapsed.Seconds())
	p.metrics.RowsScored.Add(float64(len(result.Rows)))
	p.metrics.RowsDropped.Add(float64(result.Dropped))
	for status, n := range result.StatusCounts {
		if status != domain.StatusOK {
			p.metrics.RowsUndefined.WithLabelValues(string(status)).Add(float64(n))
		}
	}
}

func (p *Pipeline) recordFailure(err error) {
	outcome := "error"
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		outcome = "invalid"
	case errors.Is(err, domain.ErrDataUnavailable):
		outcome = "unavailable"
	}
	p.metrics.Computations.WithLabelValues(outcome).Inc()
	if outcome == "error" {
		p.logger.Error("anomaly computation failed", "error", err)
		return
	}
	p.logger.Warn("anomaly computation rejected", "outcome", outcome, "error", err)
}
