// Package producer publishes feed messages to their queues on Kafka.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telemetry-streams/internal/feed"
	kafkautil "telemetry-streams/pkg/kafka"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Header keys set on every published message.
const (
	HeaderContentType = "content-type"
	HeaderMessageID   = "message_id"
	HeaderSource      = "source"
)

const (
	maxWriteAttempts = 2
	topicRetryDelay  = 2 * time.Second
)

// Publisher publishes feed messages.
type Publisher interface {
	Publish(ctx context.Context, msg feed.Message) error
	Close() error
}

// Producer wraps a Kafka writer. The topic is taken from each message, so one
// producer serves every queue of a feed.
type Producer struct {
	writer *kafka.Writer
}

var _ Publisher = (*Producer)(nil)

// New creates a producer and makes sure every queue exists as a single-partition topic.
// Writes are synchronous and wait for the leader ack, giving at-least-once delivery.
func New(brokers string, queues []string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"queues", queues,
	)

	for _, q := range queues {
		kafkautil.EnsureTopic(brokerList[0], q)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Balancer:     &kafka.Hash{},
		WriteTimeout: kafkautil.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	slog.Info("Kafka producer configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireOne",
		"async", false,
	)

	return &Producer{writer: writer}, nil
}

// buildMessage converts a feed message into a Kafka message with a fresh message_id.
func buildMessage(msg feed.Message) kafka.Message {
	ts := msg.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic: msg.Queue,
		Key:   msg.Key,
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: HeaderContentType, Value: []byte(msg.ContentType)},
			{Key: HeaderMessageID, Value: []byte(uuid.NewString())},
			{Key: HeaderSource, Value: []byte(msg.Queue)},
		},
		Time: ts,
	}
}

// Publish writes msg to its queue and waits for the broker ack.
// A write that fails because the topic is still being created is retried once.
func (p *Producer) Publish(ctx context.Context, msg feed.Message) error {
	km := buildMessage(msg)

	var writeErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		writeErr = p.writer.WriteMessages(ctx, km)
		if writeErr == nil {
			return nil
		}
		if errors.Is(writeErr, context.Canceled) || ctx.Err() != nil {
			return context.Canceled
		}

		if isUnknownTopic(writeErr) && attempt < maxWriteAttempts {
			slog.Info("Topic not ready, retrying after delay",
				"queue", msg.Queue,
				"attempt", attempt,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(topicRetryDelay):
			}
			continue
		}
		break
	}

	slog.Error("Failed to write message to Kafka",
		"queue", msg.Queue,
		"error", writeErr,
	)
	return fmt.Errorf("failed to write message to %s: %w", msg.Queue, writeErr)
}

func isUnknownTopic(err error) bool {
	if errors.Is(err, kafka.UnknownTopicOrPartition) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "Unknown Topic Or Partition") || strings.Contains(s, "does not exist")
}

// Close flushes and closes the Kafka writer.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer")
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	slog.Info("Kafka producer closed successfully")
	return nil
}
