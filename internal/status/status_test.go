package status

import (
	"context"
	"errors"
	"testing"

	"telemetry-streams/internal/events"
	"telemetry-streams/pkg/metrics"
)

type fakeMetrics struct {
	services map[string]*metrics.ServiceMetrics
	err      error
}

func (f *fakeMetrics) GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
	return f.services, f.err
}

type fakeHistory struct {
	alerts map[string][]events.Alert
	err    map[string]error
}

func (f *fakeHistory) RecentAlerts(ctx context.Context, sourceID string, limit int) ([]events.Alert, error) {
	if err := f.err[sourceID]; err != nil {
		return nil, err
	}
	a := f.alerts[sourceID]
	if len(a) > limit {
		a = a[:limit]
	}
	return a, nil
}

func TestBuild_MarksMissingServicesOffline(t *testing.T) {
	m := &fakeMetrics{services: map[string]*metrics.ServiceMetrics{
		"queue-monitor-01-smoker": {
			ServiceName: "queue-monitor-01-smoker",
			Status:      "healthy",
			AlertsFired: 2,
			RowsWritten: 40,
			Stream:      &metrics.StreamState{Queue: "01-smoker", WindowFill: 5, WindowCapacity: 5},
		},
	}}

	report, err := NewBuilder(m, nil).Build(context.Background(),
		[]string{"csv-producer-smoker", "queue-monitor-01-smoker"}, nil, 5)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(report.Services) != 2 {
		t.Fatalf("got %d services, want 2", len(report.Services))
	}
	if s := report.Services[0]; s.ServiceName != "csv-producer-smoker" || s.Status != "offline" {
		t.Errorf("Services[0] = %+v, want offline csv-producer-smoker", s)
	}
	if s := report.Services[1]; s.Status != "healthy" || s.AlertsFired != 2 || s.RowsWritten != 40 {
		t.Errorf("Services[1] = %+v", s)
	}
	if st := report.Services[1].Stream; st == nil || st.Queue != "01-smoker" || st.WindowFill != 5 {
		t.Errorf("Services[1].Stream = %+v", st)
	}
	if report.Alerts != nil {
		t.Errorf("Alerts = %v, want nil without history", report.Alerts)
	}
}

func TestBuild_MetricsError(t *testing.T) {
	want := errors.New("redis down")
	if _, err := NewBuilder(&fakeMetrics{err: want}, nil).Build(context.Background(), nil, nil, 5); !errors.Is(err, want) {
		t.Errorf("Build() error = %v, want %v", err, want)
	}
}

func TestBuild_AlertHistory(t *testing.T) {
	h := &fakeHistory{
		alerts: map[string][]events.Alert{
			"Station-447": {{SourceID: "Station-447", Delta: 1700}, {SourceID: "Station-447", Delta: 1650}},
		},
		err: map[string]error{"Station-463": errors.New("timeout")},
	}

	report, err := NewBuilder(nil, h).Build(context.Background(), nil, []string{"Station-447", "Station-463"}, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := report.Alerts["Station-447"]; len(got) != 1 || got[0].Delta != 1700 {
		t.Errorf("Station-447 alerts = %v", got)
	}
	if _, ok := report.Alerts["Station-463"]; ok {
		t.Error("a failing queue should be left out of the report")
	}
}
