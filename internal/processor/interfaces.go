// Package processor runs the producer feed loop and the consumer monitor loop.
package processor

import (
	"context"

	"telemetry-streams/internal/events"
	"telemetry-streams/internal/feed"

	"github.com/segmentio/kafka-go"
)

// MessageReader reads messages from one queue and commits them individually.
type MessageReader interface {
	// FetchMessage blocks until the next message is available.
	FetchMessage(ctx context.Context) (kafka.Message, error)

	// CommitMessage acknowledges msg so it is not redelivered.
	CommitMessage(ctx context.Context, msg kafka.Message) error
}

// MessagePublisher publishes feed messages to their queues.
type MessagePublisher interface {
	Publish(ctx context.Context, msg feed.Message) error
}

// RowSink stores one decoded message per row.
type RowSink interface {
	Append(row []string) error
}

// AlertNotifier delivers alerts.
type AlertNotifier interface {
	Notify(ctx context.Context, alert *events.Alert) error
}
