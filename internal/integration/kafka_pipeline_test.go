//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/adapter/hadukp"
	"github.com/couchcryptid/precip-anomaly/internal/adapter/kafka"
	"github.com/couchcryptid/precip-anomaly/internal/config"
	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/mockdata"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/couchcryptid/precip-anomaly/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-anomalies"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("precip-anomaly-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedMessage struct {
	Key     string
	Headers map[string]string
	Value   kafka.RegionMessage
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var value kafka.RegionMessage
	require.NoError(t, json.Unmarshal(msg.Value, &value), "unmarshal sink message")
	return publishedMessage{Key: string(msg.Key), Headers: headers, Value: value}
}

// TestComputeAndPublish runs the full pipeline over generated HadUKP files and
// verifies one message per requested region lands on the sink topic.
func TestComputeAndPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	dir := t.TempDir()
	opts := mockdata.Defaults()
	opts.Start = time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
	opts.End = time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mockdata.WriteDir(dir, domain.Regions(), opts))

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	loader := hadukp.NewCachedLoader(hadukp.NewDirSource(dir), 4, metrics, discardLogger())
	p := pipeline.New(loader, pipeline.NewScorer(discardLogger()), writer, discardLogger(), metrics)

	result, err := p.Compute(ctx, domain.Params{
		Regions:  []string{"scotland", "northern ireland"},
		Years:    domain.YearRange{Start: 2004, End: 2005},
		Baseline: domain.YearRange{Start: 1996, End: 2003},
		Window:   30,
	})
	require.NoError(t, err)
	assert.Zero(t, testutil.ToFloat64(metrics.PublishErrors), "publish must succeed against a live broker")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]publishedMessage{}
	for len(received) < 2 {
		pm := readPublished(ctx, t, consumer)
		received[pm.Key] = pm
	}

	series := result.Series()
	for _, s := range series {
		pm, ok := received[s.Region]
		require.True(t, ok, "missing message for %s", s.Region)
		assert.Equal(t, s.Region, pm.Headers["region"])
		assert.Equal(t, "30", pm.Headers["window"])
		_, err := time.Parse(time.RFC3339, pm.Headers["computed_at"])
		assert.NoError(t, err, "computed_at should be valid RFC3339")
		assert.Len(t, pm.Value.Rows, len(s.Points))
		assert.Equal(t, result.Params, pm.Value.Params)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesPublished))
}

// TestPublishFailureDoesNotFailCompute points the sink at a closed port.
func TestPublishFailureDoesNotFailCompute(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dir := t.TempDir()
	opts := mockdata.Defaults()
	opts.Start = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	opts.End = time.Date(2002, 12, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mockdata.WriteDir(dir, domain.Regions(), opts))

	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaSinkTopic: testSinkTopic}, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	loader := hadukp.NewCachedLoader(hadukp.NewDirSource(dir), 4, metrics, discardLogger())
	p := pipeline.New(loader, pipeline.NewScorer(discardLogger()), writer, discardLogger(), metrics)

	computeCtx, computeCancel := context.WithTimeout(ctx, 10*time.Second)
	defer computeCancel()
	result, err := p.Compute(computeCtx, domain.Params{
		Regions:  []string{"scotland"},
		Years:    domain.YearRange{Start: 2002, End: 2002},
		Baseline: domain.YearRange{Start: 2000, End: 2001},
		Window:   7,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors))
}
