// Package events defines the values that flow through the queues: readings, ridership
// records and the alerts derived from them.
package events

import (
	"strconv"
	"time"
)

// Reading is one timestamped scalar observation from a single source.
type Reading struct {
	SourceID  string
	Value     float64
	Timestamp time.Time
}

// Alert is raised when a source's window changes by at least its rule threshold.
// Alerts are never mutated after creation.
type Alert struct {
	SourceID         string    `json:"source_id"`
	Label            string    `json:"label,omitempty"`
	Direction        string    `json:"direction"`
	WindowFirstValue float64   `json:"window_first_value"`
	WindowLastValue  float64   `json:"window_last_value"`
	Delta            float64   `json:"delta"`
	Threshold        float64   `json:"threshold"`
	WindowSize       int       `json:"window_size"`
	TriggeredAt      time.Time `json:"triggered_at"`
}

// RidershipColumns is the column order of ridership records, both in the source CSV
// header lookup and in the consumer output file.
var RidershipColumns = []string{
	"transit_timestamp",
	"transit_mode",
	"station_complex_id",
	"station_complex",
	"Line",
	"borough",
	"payment_method",
	"fare_class_category",
	"ridership",
	"transfers",
	"latitude",
	"longitude",
	"Georeference",
}

// RidershipRecord is one hourly ridership row for a subway station complex.
type RidershipRecord struct {
	TransitTimestamp  string
	TransitMode       string
	StationComplexID  string
	StationComplex    string
	Line              string
	Borough           string
	PaymentMethod     string
	FareClassCategory string
	Ridership         float64
	Transfers         float64
	Latitude          float64
	Longitude         float64
	Georeference      string
}

// Row renders the record in RidershipColumns order.
func (r *RidershipRecord) Row() []string {
	return []string{
		r.TransitTimestamp,
		r.TransitMode,
		r.StationComplexID,
		r.StationComplex,
		r.Line,
		r.Borough,
		r.PaymentMethod,
		r.FareClassCategory,
		formatNumber(r.Ridership),
		formatNumber(r.Transfers),
		formatNumber(r.Latitude),
		formatNumber(r.Longitude),
		r.Georeference,
	}
}

// ReadingColumns is the output file header for scalar readings.
var ReadingColumns = []string{"timestamp", "source_id", "value"}

// Row renders the reading in ReadingColumns order.
func (r *Reading) Row() []string {
	return []string{
		r.Timestamp.Format(time.RFC3339),
		r.SourceID,
		formatNumber(r.Value),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
