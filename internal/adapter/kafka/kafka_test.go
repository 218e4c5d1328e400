package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var computedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testResult() domain.Result {
	day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	z := -0.75
	row := func(region string) domain.ScoredObservation {
		return domain.ScoredObservation{
			RollingObservation: domain.RollingObservation{Observation: domain.NewObservation(region, day, 1.2)},
			Z:                  &z,
			Status:             domain.StatusOK,
		}
	}
	return domain.Result{
		Params: domain.Params{
			Regions:  []string{"scotland", "england & wales", "northern ireland"},
			Years:    domain.YearRange{Start: 2021, End: 2021},
			Baseline: domain.YearRange{Start: 1981, End: 2010},
			Window:   30,
		},
		Rows:       []domain.ScoredObservation{row("scotland"), row("england & wales"), row("scotland")},
		ComputedAt: computedAt,
	}
}

func TestResultToMessages(t *testing.T) {
	msgs, err := resultToMessages(testResult())
	require.NoError(t, err)

	require.Len(t, msgs, 3, "one message per requested region, even without rows")
	assert.Equal(t, []byte("scotland"), msgs[0].Key)
	assert.Equal(t, []byte("england & wales"), msgs[1].Key)
	assert.Equal(t, []byte("northern ireland"), msgs[2].Key)

	var first RegionMessage
	require.NoError(t, json.Unmarshal(msgs[0].Value, &first))
	assert.Equal(t, "scotland", first.Region)
	assert.Len(t, first.Rows, 2)
	assert.Equal(t, 30, first.Params.Window)

	var last RegionMessage
	require.NoError(t, json.Unmarshal(msgs[2].Value, &last))
	assert.Empty(t, last.Rows)
	assert.Contains(t, string(msgs[2].Value), `"rows":[]`)
}

func TestSerializeToMessage_Headers(t *testing.T) {
	msg, err := serializeToMessage(RegionMessage{
		Region:     "scotland",
		Params:     domain.Params{Window: 90},
		ComputedAt: computedAt,
	})
	require.NoError(t, err)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "region", msg.Headers[0].Key)
	assert.Equal(t, []byte("scotland"), msg.Headers[0].Value)
	assert.Equal(t, "window", msg.Headers[1].Key)
	assert.Equal(t, []byte("90"), msg.Headers[1].Value)
	assert.Equal(t, "computed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(computedAt.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	metrics := observability.NewMetricsForTesting()
	w := &Writer{writer: fw, metrics: metrics, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Publish(context.Background(), testResult()))

	assert.Len(t, fw.msgs, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.MessagesPublished))

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	metrics := observability.NewMetricsForTesting()
	w := &Writer{writer: fw, metrics: metrics, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Publish(context.Background(), testResult())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Zero(t, testutil.ToFloat64(metrics.MessagesPublished))
}
