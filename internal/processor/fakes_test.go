package processor

import (
	"context"
	"errors"
	"io"
	"time"

	"telemetry-streams/internal/events"
	"telemetry-streams/internal/feed"

	"github.com/segmentio/kafka-go"
)

var errNoMoreMessages = errors.New("no more messages")

// FakeReader is a test fake for MessageReader. When the queue is empty it cancels
// the run context, if set, and reports errNoMoreMessages.
type FakeReader struct {
	Messages  []kafka.Message
	ReadIndex int
	Committed []kafka.Message
	CommitErr error
	FetchErr  error
	OnEmpty   context.CancelFunc
}

func (f *FakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if f.FetchErr != nil {
		return kafka.Message{}, f.FetchErr
	}
	if f.ReadIndex >= len(f.Messages) {
		if f.OnEmpty != nil {
			f.OnEmpty()
			return kafka.Message{}, ctx.Err()
		}
		return kafka.Message{}, errNoMoreMessages
	}
	msg := f.Messages[f.ReadIndex]
	f.ReadIndex++
	return msg, nil
}

func (f *FakeReader) CommitMessage(ctx context.Context, msg kafka.Message) error {
	if f.CommitErr != nil {
		return f.CommitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Committed = append(f.Committed, msg)
	return nil
}

// FakeSink is a test fake for RowSink.
type FakeSink struct {
	Rows      [][]string
	AppendErr error
}

func (f *FakeSink) Append(row []string) error {
	if f.AppendErr != nil {
		return f.AppendErr
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// FakeNotifier is a test fake for AlertNotifier.
type FakeNotifier struct {
	Alerts    []*events.Alert
	NotifyErr error
}

func (f *FakeNotifier) Notify(ctx context.Context, alert *events.Alert) error {
	f.Alerts = append(f.Alerts, alert)
	return f.NotifyErr
}

// FakePublisher is a test fake for MessagePublisher.
type FakePublisher struct {
	Published  []feed.Message
	PublishErr error
	Times      []time.Time
}

func (f *FakePublisher) Publish(ctx context.Context, msg feed.Message) error {
	if f.PublishErr != nil {
		return f.PublishErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Published = append(f.Published, msg)
	f.Times = append(f.Times, time.Now())
	return nil
}

// FakeFeed is a test fake for feed.Feed yielding one batch per row.
type FakeFeed struct {
	Batches [][]feed.Message
	Err     error
	index   int
}

func (f *FakeFeed) Next() ([]feed.Message, error) {
	if f.index >= len(f.Batches) {
		if f.Err != nil {
			return nil, f.Err
		}
		return nil, io.EOF
	}
	b := f.Batches[f.index]
	f.index++
	return b, nil
}

func (f *FakeFeed) Queues() []string { return []string{"fake"} }

func (f *FakeFeed) Close() error { return nil }

// FakeMetrics is a test fake for MetricsRecorder that tracks calls.
type FakeMetrics struct {
	ReceivedCount    int
	ProcessedCount   int
	PublishedCount   int
	RowsWritten      int
	AlertCount       int
	ErrorCount       int
	CustomIncrements map[string]int

	LastQueue    string
	LastValue    float64
	LastFill     int
	LastCapacity int
	AlertDeltas  []float64
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{CustomIncrements: make(map[string]int)}
}

func (f *FakeMetrics) RecordReceived()                 { f.ReceivedCount++ }
func (f *FakeMetrics) RecordProcessed(_ time.Duration) { f.ProcessedCount++ }
func (f *FakeMetrics) RecordPublished()                { f.PublishedCount++ }
func (f *FakeMetrics) RecordRowWritten()               { f.RowsWritten++ }
func (f *FakeMetrics) RecordError()                    { f.ErrorCount++ }
func (f *FakeMetrics) IncrementCustom(name string)     { f.CustomIncrements[name]++ }

func (f *FakeMetrics) RecordObservation(queue string, value float64, _ time.Time, fill, capacity int) {
	f.LastQueue, f.LastValue, f.LastFill, f.LastCapacity = queue, value, fill, capacity
}

func (f *FakeMetrics) RecordAlert(_ string, _ time.Time, delta float64) {
	f.AlertCount++
	f.AlertDeltas = append(f.AlertDeltas, delta)
}
