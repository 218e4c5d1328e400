package hadukp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	gobreaker "github.com/sony/gobreaker/v2"
)

// maxBodyBytes bounds a single region file; the full 1931-present series is ~1 MB.
const maxBodyBytes = 16 << 20

// Client fetches HadUKP daily regional series over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]domain.Observation]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a HadUKP client. baseURL is the directory holding the
// Had{CODE}_daily_totals.txt files.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: newBreaker(logger),
		metrics: metrics,
		logger:  logger,
	}
}

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[[]domain.Observation] {
	return gobreaker.NewCircuitBreaker[[]domain.Observation](gobreaker.Settings{
		Name:        "hadukp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// FetchRegion downloads and parses one region's daily totals.
func (c *Client) FetchRegion(ctx context.Context, region domain.Region) ([]domain.Observation, error) {
	start := time.Now()
	obs, err := c.breaker.Execute(func() ([]domain.Observation, error) {
		return c.fetch(ctx, region)
	})
	c.metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.SourceFetches.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("hadukp upstream unavailable: %w", err)
	case err != nil:
		c.metrics.SourceFetches.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.SourceFetches.WithLabelValues("success").Inc()
	c.logger.Debug("region fetched", "region", region.Name, "observations", len(obs), "duration", time.Since(start))
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, region domain.Region) ([]domain.Observation, error) {
	u := c.baseURL + "/" + region.SourceFile()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", region.SourceFile(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("hadukp error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	obs, err := domain.ParseDailySeries(io.LimitReader(resp.Body, maxBodyBytes), region.Name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", region.SourceFile(), err)
	}
	return obs, nil
}
