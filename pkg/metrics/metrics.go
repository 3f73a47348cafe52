// Package metrics publishes the health and stream state of each producer and monitor
// process to Redis, and reads it back for status reports.
//
// Every process owns one Collector. Counters are updated on the message path; a
// background goroutine writes a JSON snapshot to metrics:<service> with a TTL, so a
// process that stops reporting disappears on its own.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix is the Redis key prefix for process snapshots.
	MetricsKeyPrefix = "metrics:"
	// MetricsTTL is how long a snapshot survives without a refresh.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is used when Start is given a non-positive interval.
	DefaultReportInterval = 30 * time.Second
)

// StreamState is what a monitor last saw on its queue.
type StreamState struct {
	Queue          string     `json:"queue"`
	LastValue      *float64   `json:"last_value,omitempty"`
	LastObservedAt *time.Time `json:"last_observed_at,omitempty"`
	WindowFill     int        `json:"window_fill"`
	WindowCapacity int        `json:"window_capacity"`
	LastAlertAt    *time.Time `json:"last_alert_at,omitempty"`
	LastAlertDelta float64    `json:"last_alert_delta,omitempty"`
}

// ServiceMetrics is the snapshot one process writes to Redis.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // healthy, unhealthy or offline

	MessagesReceived  uint64 `json:"messages_received"`
	MessagesProcessed uint64 `json:"messages_processed"`
	MessagesPublished uint64 `json:"messages_published"`
	RowsWritten       uint64 `json:"rows_written"`
	AlertsFired       uint64 `json:"alerts_fired"`
	ProcessingErrors  uint64 `json:"processing_errors"`

	MessagesPerSecond float64 `json:"messages_per_second"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`

	Stream   *StreamState      `json:"stream,omitempty"`
	Counters map[string]uint64 `json:"counters,omitempty"`
}

// Collector gathers the metrics of one process. All Record methods are safe for
// concurrent use.
type Collector struct {
	service   string
	redis     *redis.Client
	startedAt time.Time

	received  atomic.Uint64
	processed atomic.Uint64
	published atomic.Uint64
	rows      atomic.Uint64
	alerts    atomic.Uint64
	errors    atomic.Uint64
	latencyNs atomic.Uint64

	mu            sync.Mutex
	stream        *StreamState
	counters      map[string]uint64
	rateSince     time.Time
	rateProcessed uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector for service. A nil client keeps the counters but
// never reports them.
func NewCollector(service string, client *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		service:   service,
		redis:     client,
		startedAt: now,
		rateSince: now,
		counters:  make(map[string]uint64),
		stopCh:    make(chan struct{}),
	}
}

// Start writes a snapshot every interval until ctx is done or Stop is called, and once
// more on the way out.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.report(ctx)
			case <-ctx.Done():
				c.report(context.WithoutCancel(ctx))
				return
			case <-c.stopCh:
				c.report(context.WithoutCancel(ctx))
				return
			}
		}
	}()
}

// Stop ends reporting and waits for the final write. It may be called more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordReceived counts a fetched message.
func (c *Collector) RecordReceived() {
	c.received.Add(1)
}

// RecordPublished counts a message sent to the broker.
func (c *Collector) RecordPublished() {
	c.published.Add(1)
}

// RecordRowWritten counts a row appended to the output file.
func (c *Collector) RecordRowWritten() {
	c.rows.Add(1)
}

// RecordError counts a message that could not be handled.
func (c *Collector) RecordError() {
	c.errors.Add(1)
}

// RecordProcessed counts a finished message and its handling time.
func (c *Collector) RecordProcessed(latency time.Duration) {
	c.processed.Add(1)
	c.latencyNs.Add(uint64(latency))
}

// RecordObservation stores the latest reading of queue and how full its window is.
func (c *Collector) RecordObservation(queue string, value float64, at time.Time, fill, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.streamLocked(queue)
	s.LastValue = &value
	s.LastObservedAt = &at
	s.WindowFill = fill
	s.WindowCapacity = capacity
}

// RecordAlert counts an alert on queue and remembers when it fired.
func (c *Collector) RecordAlert(queue string, at time.Time, delta float64) {
	c.alerts.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.streamLocked(queue)
	s.LastAlertAt = &at
	s.LastAlertDelta = delta
}

// IncrementCustom bumps a named counter such as notify_failures.
func (c *Collector) IncrementCustom(name string) {
	c.mu.Lock()
	c.counters[name]++
	c.mu.Unlock()
}

func (c *Collector) streamLocked(queue string) *StreamState {
	if c.stream == nil || c.stream.Queue != queue {
		c.stream = &StreamState{Queue: queue}
	}
	return c.stream
}

// Snapshot returns the current metrics. The rate covers the time since the last report.
func (c *Collector) Snapshot() *ServiceMetrics {
	now := time.Now().UTC()
	processed := c.processed.Load()

	m := &ServiceMetrics{
		ServiceName:       c.service,
		StartedAt:         c.startedAt,
		LastUpdated:       now,
		Status:            "healthy",
		MessagesReceived:  c.received.Load(),
		MessagesProcessed: processed,
		MessagesPublished: c.published.Load(),
		RowsWritten:       c.rows.Load(),
		AlertsFired:       c.alerts.Load(),
		ProcessingErrors:  c.errors.Load(),
	}
	if processed > 0 {
		m.AvgLatencyMs = float64(c.latencyNs.Load()) / float64(processed) / float64(time.Millisecond)
	}

	c.mu.Lock()
	if secs := now.Sub(c.rateSince).Seconds(); secs > 0 {
		m.MessagesPerSecond = float64(processed-c.rateProcessed) / secs
	}
	if c.stream != nil {
		s := *c.stream
		m.Stream = &s
	}
	if len(c.counters) > 0 {
		m.Counters = make(map[string]uint64, len(c.counters))
		for k, v := range c.counters {
			m.Counters[k] = v
		}
	}
	c.mu.Unlock()
	return m
}

func (c *Collector) report(ctx context.Context) {
	if c.redis == nil {
		return
	}
	snap := c.Snapshot()
	c.mu.Lock()
	c.rateSince, c.rateProcessed = snap.LastUpdated, snap.MessagesProcessed
	c.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.service, "error", err)
		return
	}
	key := MetricsKeyPrefix + c.service
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.service, "error", err)
		return
	}
	slog.Debug("Metrics written to Redis", "key", key)
}

// Reader reads process snapshots from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a metrics reader.
func NewReader(client *redis.Client) *Reader {
	return &Reader{redis: client}
}

// GetAllServiceMetrics returns every snapshot currently in Redis, keyed by service.
// Snapshots older than MetricsTTL are marked unhealthy; unreadable ones are skipped.
func (r *Reader) GetAllServiceMetrics(ctx context.Context) (map[string]*ServiceMetrics, error) {
	result := make(map[string]*ServiceMetrics)
	iter := r.redis.Scan(ctx, 0, MetricsKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		m, err := r.read(ctx, iter.Val())
		if err != nil {
			slog.Warn("Skipping unreadable metrics", "key", iter.Val(), "error", err)
			continue
		}
		result[strings.TrimPrefix(iter.Val(), MetricsKeyPrefix)] = m
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}
	return result, nil
}

func (r *Reader) read(ctx context.Context, key string) (*ServiceMetrics, error) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil here means the key expired between SCAN and GET
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	var m ServiceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	if time.Since(m.LastUpdated) > MetricsTTL {
		m.Status = "unhealthy"
	}
	return &m, nil
}
