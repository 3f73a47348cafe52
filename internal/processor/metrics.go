package processor

import "time"

// MetricsRecorder defines the metrics operations needed by the processors.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordPublished()
	RecordRowWritten()
	RecordObservation(queue string, value float64, at time.Time, fill, capacity int)
	RecordAlert(queue string, at time.Time, delta float64)
	RecordError()
	IncrementCustom(name string)
}

// NoOpMetrics is a null-object implementation of MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = (*NoOpMetrics)(nil)

func (n *NoOpMetrics) RecordReceived()                 {}
func (n *NoOpMetrics) RecordProcessed(_ time.Duration) {}
func (n *NoOpMetrics) RecordPublished()                {}
func (n *NoOpMetrics) RecordRowWritten()               {}
func (n *NoOpMetrics) RecordError()                    {}
func (n *NoOpMetrics) IncrementCustom(_ string)        {}

func (n *NoOpMetrics) RecordObservation(_ string, _ float64, _ time.Time, _, _ int) {}

func (n *NoOpMetrics) RecordAlert(_ string, _ time.Time, _ float64) {}
