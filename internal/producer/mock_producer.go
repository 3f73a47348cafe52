package producer

import (
	"context"
	"log/slog"

	"telemetry-streams/internal/feed"
)

// MockProducer logs messages instead of publishing them. Used with -mock.
type MockProducer struct{}

var _ Publisher = (*MockProducer)(nil)

// NewMock creates a producer that needs no Kafka connection.
func NewMock() *MockProducer {
	slog.Info("Using mock producer (no Kafka connection)",
		"note", "Messages will be logged but not published to Kafka",
	)
	return &MockProducer{}
}

// Publish logs msg.
func (p *MockProducer) Publish(ctx context.Context, msg feed.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Info("Mock publish (message logged, not sent to Kafka)",
		"queue", msg.Queue,
		"content_type", msg.ContentType,
		"value", msg.Value,
		"bytes", len(msg.Body),
	)
	return nil
}

// Close is a no-op.
func (p *MockProducer) Close() error {
	slog.Info("Mock producer closed")
	return nil
}
