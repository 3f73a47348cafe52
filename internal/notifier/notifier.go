// Package notifier delivers alerts raised by the evaluator.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"telemetry-streams/internal/events"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix is the Redis pub/sub channel prefix; alerts go to ChannelPrefix+source_id.
const ChannelPrefix = "alerts:"

// Notifier delivers one alert.
type Notifier interface {
	Notify(ctx context.Context, alert *events.Alert) error
}

// LogNotifier writes an alert banner to the log.
type LogNotifier struct{}

// Banner returns the headline logged for alert.
func Banner(alert *events.Alert) string {
	name := strings.ToUpper(alert.SourceID)
	return fmt.Sprintf("************ [%s ALERT!!!!] ************", name)
}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, alert *events.Alert) error {
	slog.Warn(Banner(alert),
		"source_id", alert.SourceID,
		"label", alert.Label,
		"direction", alert.Direction,
		"first", alert.WindowFirstValue,
		"last", alert.WindowLastValue,
		"delta", alert.Delta,
		"threshold", alert.Threshold,
		"window_size", alert.WindowSize,
		"triggered_at", alert.TriggeredAt,
	)
	return nil
}

// RedisNotifier publishes alerts as JSON on a per-source Redis channel.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier creates a notifier publishing through client.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// Channel returns the channel alerts of sourceID are published on.
func Channel(sourceID string) string {
	return ChannelPrefix + sourceID
}

// Notify implements Notifier.
func (n *RedisNotifier) Notify(ctx context.Context, alert *events.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	channel := Channel(alert.SourceID)
	receivers, err := n.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish alert on %s: %w", channel, err)
	}
	slog.Debug("Published alert to Redis", "channel", channel, "receivers", receivers)
	return nil
}

// Multi delivers an alert to every notifier, in order. A failing notifier does not stop
// the rest; all failures are returned joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, alert *events.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
