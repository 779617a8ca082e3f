// Package kafka publishes time series documents to a Kafka topic. The store is
// write-only: reading a topic back as a datastore is not supported.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer the store needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Store produces one message per time series to the configured topic.
type Store struct {
	name   string
	topic  string
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Kafka producer for topic.
func New(name string, brokers []string, topic string, logger *slog.Logger) (*Store, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka %s: at least one broker is required", name)
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka %s: topic is required", name)
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Store{name: name, topic: topic, writer: w, logger: logger, now: time.Now}, nil
}

func (s *Store) Name() string { return s.name }
func (s *Store) Type() string { return "Kafka" }
func (s *Store) Topic() string { return s.topic }

// WriteTimeSeries publishes all records in a single WriteMessages call.
func (s *Store) WriteTimeSeries(ctx context.Context, series []*domain.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}
	writtenAt := s.now().UTC()
	msgs := make([]kafkago.Message, len(series))
	for i, ts := range series {
		msg, err := serializeToMessage(ts, writtenAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	s.logger.Debug("published time series", "datastore", s.name, "topic", s.topic, "count", len(msgs))
	return nil
}

// ReadTimeSeries is not supported for topics.
func (s *Store) ReadTimeSeries(_ context.Context, _ string, _ domain.Period) ([]*domain.TimeSeries, error) {
	return nil, fmt.Errorf("kafka datastore %s: read: %w", s.name, domain.ErrUnsupported)
}

func (s *Store) Close() error {
	return s.writer.Close()
}

// serializeToMessage keys the message by storage key so versions of one record land
// on the same partition.
func serializeToMessage(ts *domain.TimeSeries, writtenAt time.Time) (kafkago.Message, error) {
	data, err := domain.MarshalTimeSeries(ts)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(domain.StorageKey(ts)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tsid", Value: []byte(ts.ID.String())},
			{Key: "units", Value: []byte(ts.Units)},
			{Key: "written_at", Value: []byte(writtenAt.Format(time.RFC3339))},
		},
	}, nil
}
