package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"telemetry-streams/internal/codec"
	"telemetry-streams/internal/evaluator"

	"github.com/segmentio/kafka-go"
)

// DefaultInFlightTimeout bounds the processing and commit of a message that was
// fetched before shutdown began.
const DefaultInFlightTimeout = 10 * time.Second

// Monitor consumes one queue: every message is decoded, observed by the evaluator,
// appended to the sink and only then committed. At most one message is in flight.
type Monitor struct {
	queue     string
	reader    MessageReader
	decoder   codec.Decoder
	evaluator *evaluator.Evaluator
	sink      RowSink
	notifier  AlertNotifier
	metrics   MetricsRecorder

	inFlightTimeout time.Duration
}

// NewMonitor creates a monitor with no-op metrics.
func NewMonitor(queue string, reader MessageReader, decoder codec.Decoder, eval *evaluator.Evaluator, sink RowSink, notifier AlertNotifier) *Monitor {
	return NewMonitorWithMetrics(queue, reader, decoder, eval, sink, notifier, nil)
}

// NewMonitorWithMetrics creates a monitor with the provided metrics recorder.
// If m is nil, a no-op implementation is used.
func NewMonitorWithMetrics(queue string, reader MessageReader, decoder codec.Decoder, eval *evaluator.Evaluator, sink RowSink, notifier AlertNotifier, m MetricsRecorder) *Monitor {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &Monitor{
		queue:           queue,
		reader:          reader,
		decoder:         decoder,
		evaluator:       eval,
		sink:            sink,
		notifier:        notifier,
		metrics:         m,
		inFlightTimeout: DefaultInFlightTimeout,
	}
}

// SetInFlightTimeout overrides DefaultInFlightTimeout.
func (m *Monitor) SetInFlightTimeout(d time.Duration) {
	m.inFlightTimeout = d
}

// Run processes messages until ctx is cancelled, which returns nil, or until a message
// cannot be processed, which returns the error. A failed message is left uncommitted
// and is redelivered on the next start.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("Starting monitor loop", "queue", m.queue)

	for {
		msg, err := m.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Monitor loop stopped", "queue", m.queue)
				return nil
			}
			return err
		}
		m.metrics.RecordReceived()

		// The fetched message is finished even if shutdown starts meanwhile.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.inFlightTimeout)
		err = m.handle(hctx, msg)
		cancel()
		if err != nil {
			m.metrics.RecordError()
			slog.Error("Failed to process message",
				"queue", m.queue,
				"offset", msg.Offset,
				"error", err,
			)
			return err
		}
	}
}

func (m *Monitor) handle(ctx context.Context, msg kafka.Message) error {
	start := time.Now()

	decoded, err := m.decoder.Decode(m.queue, msg.Value, msg.Time)
	if err != nil {
		return fmt.Errorf("failed to decode message at offset %d: %w", msg.Offset, err)
	}

	slog.Info("Received message",
		"queue", m.queue,
		"offset", msg.Offset,
		"value", decoded.Reading.Value,
		"timestamp", decoded.Reading.Timestamp,
	)

	alert, fired := m.evaluator.Observe(m.queue, decoded.Reading)
	fill, capacity := 0, 0
	if w := m.evaluator.Window(m.queue); w != nil {
		fill, capacity = w.Len(), w.Capacity()
	}
	m.metrics.RecordObservation(m.queue, decoded.Reading.Value, decoded.Reading.Timestamp, fill, capacity)

	if fired {
		m.metrics.RecordAlert(m.queue, alert.TriggeredAt, alert.Delta)
		if err := m.notifier.Notify(ctx, alert); err != nil {
			m.metrics.IncrementCustom("notify_failures")
			slog.Error("Failed to deliver alert",
				"queue", m.queue,
				"source_id", alert.SourceID,
				"error", err,
			)
		}
	}

	if err := m.sink.Append(decoded.Row); err != nil {
		return err
	}
	m.metrics.RecordRowWritten()

	if err := m.reader.CommitMessage(ctx, msg); err != nil {
		return err
	}

	m.metrics.RecordProcessed(time.Since(start))
	slog.Debug("Committed message", "queue", m.queue, "offset", msg.Offset)
	return nil
}
