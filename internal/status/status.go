// Package status builds a point-in-time report of the running producers and monitors
// from their Redis metrics and the stored alert history.
package status

import (
	"context"
	"log/slog"
	"sort"

	"telemetry-streams/internal/events"
	"telemetry-streams/pkg/metrics"
)

// MetricsSource reads process metrics.
type MetricsSource interface {
	GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

// AlertHistory reads stored alerts.
type AlertHistory interface {
	RecentAlerts(ctx context.Context, sourceID string, limit int) ([]events.Alert, error)
}

// Report is the status of every known process and queue.
type Report struct {
	Services []*metrics.ServiceMetrics  `json:"services"`
	Alerts   map[string][]events.Alert `json:"recent_alerts,omitempty"`
}

// Builder assembles reports. Either source may be nil.
type Builder struct {
	metrics MetricsSource
	history AlertHistory
}

// NewBuilder creates a report builder.
func NewBuilder(m MetricsSource, h AlertHistory) *Builder {
	return &Builder{metrics: m, history: h}
}

// Build reports on every reporting process plus the expected ones, which are marked
// offline when they have no metrics, and on the last alertLimit alerts of each queue.
func (b *Builder) Build(ctx context.Context, expected, queues []string, alertLimit int) (*Report, error) {
	services := make(map[string]*metrics.ServiceMetrics)
	if b.metrics != nil {
		all, err := b.metrics.GetAllServiceMetrics(ctx)
		if err != nil {
			return nil, err
		}
		services = all
	}
	for _, name := range expected {
		if _, ok := services[name]; !ok {
			services[name] = &metrics.ServiceMetrics{ServiceName: name, Status: "offline"}
		}
	}

	report := &Report{Services: make([]*metrics.ServiceMetrics, 0, len(services))}
	for _, m := range services {
		report.Services = append(report.Services, m)
	}
	sort.Slice(report.Services, func(i, j int) bool {
		return report.Services[i].ServiceName < report.Services[j].ServiceName
	})

	if b.history != nil && alertLimit > 0 {
		report.Alerts = make(map[string][]events.Alert, len(queues))
		for _, q := range queues {
			alerts, err := b.history.RecentAlerts(ctx, q, alertLimit)
			if err != nil {
				slog.Warn("Failed to read alert history", "queue", q, "error", err)
				continue
			}
			report.Alerts[q] = alerts
		}
	}
	return report, nil
}
