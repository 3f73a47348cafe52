// Package consumer reads messages from a single queue on Kafka.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	kafkautil "telemetry-streams/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

// Consumer wraps a Kafka reader bound to one queue and consumer group.
// Offsets are committed explicitly, one message at a time.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a consumer for topic. The reader connects lazily; use
// kafkautil.CheckConnection first to fail fast on an unreachable broker.
func NewConsumer(brokers, topic, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	kafkautil.EnsureTopic(brokerList[0], topic)

	cfg := kafkautil.NewReaderConfig(brokerList, topic, groupID)
	kafkautil.LogReaderConfig(cfg)

	return &Consumer{
		reader: kafka.NewReader(cfg),
		topic:  topic,
	}, nil
}

// FetchMessage blocks until the next message is available. The offset is not committed.
func (c *Consumer) FetchMessage(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch message from %s: %w", c.topic, err)
	}
	return msg, nil
}

// CommitMessage commits the offset of msg. Call it only after msg is fully processed.
func (c *Consumer) CommitMessage(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit offset %d on %s: %w", msg.Offset, c.topic, err)
	}
	return nil
}

// Close closes the Kafka reader and releases the connection.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
