package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/config"
	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes anomaly results to a Kafka topic, one message per region.
// It implements pipeline.Publisher.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// RegionMessage is the value of one published message.
type RegionMessage struct {
	Region     string                     `json:"region"`
	Params     domain.Params              `json:"params"`
	Rows       []domain.ScoredObservation `json:"rows"`
	ComputedAt time.Time                  `json:"computed_at"`
}

// Publish writes every region of the result in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, result domain.Result) error {
	msgs, err := resultToMessages(result)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.metrics.MessagesPublished.Add(float64(len(msgs)))
	w.logger.Debug("result published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// resultToMessages splits a result into one keyed message per requested region.
func resultToMessages(result domain.Result) ([]kafkago.Message, error) {
	byRegion := make(map[string][]domain.ScoredObservation, len(result.Params.Regions))
	for i := range result.Rows {
		byRegion[result.Rows[i].Region] = append(byRegion[result.Rows[i].Region], result.Rows[i])
	}

	msgs := make([]kafkago.Message, 0, len(result.Params.Regions))
	for _, region := range result.Params.Regions {
		rows := byRegion[region]
		if rows == nil {
			rows = []domain.ScoredObservation{}
		}
		msg, err := serializeToMessage(RegionMessage{
			Region:     region,
			Params:     result.Params,
			Rows:       rows,
			ComputedAt: result.ComputedAt,
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals one region's rows into a Kafka message.
func serializeToMessage(m RegionMessage) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region %q: %w", m.Region, err)
	}
	return kafkago.Message{
		Key:   []byte(m.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(m.Region)},
			{Key: "window", Value: []byte(strconv.Itoa(m.Params.Window))},
			{Key: "computed_at", Value: []byte(m.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
