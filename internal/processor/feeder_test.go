package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"telemetry-streams/internal/feed"
)

func batch(queue string, values ...string) []feed.Message {
	out := make([]feed.Message, len(values))
	for i, v := range values {
		out[i] = feed.Message{Queue: queue, Body: []byte(v), Value: v}
	}
	return out
}

func TestFeeder_PublishesAllRows(t *testing.T) {
	source := &FakeFeed{Batches: [][]feed.Message{
		batch("01-smoker", "225.0"),
		nil,
		append(batch("01-smoker", "224.5"), batch("02-food-A", "68.0")...),
	}}
	pub := &FakePublisher{}
	metrics := NewFakeMetrics()

	if err := NewFeeder(source, pub, 0, metrics).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(pub.Published) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.Published))
	}
	if pub.Published[2].Queue != "02-food-A" {
		t.Errorf("Published[2].Queue = %q", pub.Published[2].Queue)
	}
	if metrics.PublishedCount != 3 {
		t.Errorf("PublishedCount = %d, want 3", metrics.PublishedCount)
	}
	if metrics.CustomIncrements["rows_skipped"] != 1 {
		t.Errorf("rows_skipped = %d, want 1", metrics.CustomIncrements["rows_skipped"])
	}
}

func TestFeeder_Paces(t *testing.T) {
	source := &FakeFeed{Batches: [][]feed.Message{
		batch("Station-447", "1"),
		batch("Station-447", "2"),
		batch("Station-447", "3"),
	}}
	pub := &FakePublisher{}
	interval := 30 * time.Millisecond

	start := time.Now()
	if err := NewFeeder(source, pub, interval, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(pub.Times) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.Times))
	}
	// The first row goes out immediately, later rows wait one interval each.
	if elapsed := pub.Times[0].Sub(start); elapsed > interval {
		t.Errorf("first row waited %v", elapsed)
	}
	if total := pub.Times[2].Sub(start); total < 2*interval-5*time.Millisecond {
		t.Errorf("three rows took %v, want at least %v", total, 2*interval)
	}
}

func TestFeeder_StopsOnCancel(t *testing.T) {
	source := &FakeFeed{Batches: [][]feed.Message{
		batch("01-smoker", "1"),
		batch("01-smoker", "2"),
	}}
	pub := &FakePublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := NewFeeder(source, pub, time.Hour, nil).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil on cancel", err)
	}
	if len(pub.Published) != 1 {
		t.Errorf("published %d messages, want 1", len(pub.Published))
	}
}

func TestFeeder_ReadErrorIsReturned(t *testing.T) {
	readErr := feed.ErrInvalidValue
	source := &FakeFeed{Batches: [][]feed.Message{batch("01-smoker", "1")}, Err: readErr}
	pub := &FakePublisher{}

	err := NewFeeder(source, pub, 0, nil).Run(context.Background())
	if !errors.Is(err, feed.ErrInvalidValue) {
		t.Errorf("Run() error = %v, want ErrInvalidValue", err)
	}
	if len(pub.Published) != 1 {
		t.Errorf("published %d messages before the bad row, want 1", len(pub.Published))
	}
}

func TestFeeder_PublishErrorIsReturned(t *testing.T) {
	pubErr := errors.New("broker unavailable")
	source := &FakeFeed{Batches: [][]feed.Message{batch("01-smoker", "1")}}

	err := NewFeeder(source, &FakePublisher{PublishErr: pubErr}, 0, nil).Run(context.Background())
	if !errors.Is(err, pubErr) {
		t.Errorf("Run() error = %v, want %v", err, pubErr)
	}
}
