package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"telemetry-streams/internal/feed"

	"golang.org/x/time/rate"
)

// Feeder publishes every row of a feed, pacing rows by a fixed interval.
type Feeder struct {
	source    feed.Feed
	publisher MessagePublisher
	limiter   *rate.Limiter
	metrics   MetricsRecorder
}

// NewFeeder creates a feeder. An interval of 0 publishes rows back to back.
func NewFeeder(source feed.Feed, publisher MessagePublisher, interval time.Duration, m MetricsRecorder) *Feeder {
	if m == nil {
		m = &NoOpMetrics{}
	}
	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Feeder{
		source:    source,
		publisher: publisher,
		limiter:   limiter,
		metrics:   m,
	}
}

// Run publishes until the feed is exhausted. It returns nil when the feed ends or ctx
// is cancelled, and an error when a row cannot be read or a message cannot be published.
func (f *Feeder) Run(ctx context.Context) error {
	slog.Info("Starting feed", "queues", f.source.Queues())

	rows, sent := 0, 0
	for {
		msgs, err := f.source.Next()
		if errors.Is(err, io.EOF) {
			slog.Info("Feed exhausted", "rows", rows, "sent", sent)
			return nil
		}
		if err != nil {
			f.metrics.RecordError()
			return err
		}
		rows++
		if len(msgs) == 0 {
			f.metrics.IncrementCustom("rows_skipped")
			continue
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				slog.Info("Feed stopped", "rows", rows-1, "sent", sent)
				return nil
			}
		}

		for _, msg := range msgs {
			start := time.Now()
			if err := f.publisher.Publish(ctx, msg); err != nil {
				if ctx.Err() != nil {
					slog.Info("Feed stopped", "rows", rows, "sent", sent)
					return nil
				}
				f.metrics.RecordError()
				return fmt.Errorf("failed to publish to %s: %w", msg.Queue, err)
			}
			sent++
			f.metrics.RecordProcessed(time.Since(start))
			f.metrics.RecordPublished()
			slog.Info("Sent message", "queue", msg.Queue, "value", msg.Value)
		}
	}
}
