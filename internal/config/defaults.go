package config

import (
	"strings"
	"time"

	"telemetry-streams/internal/codec"
)

// DefaultInputFile returns the input file a feed reads when none is given.
func DefaultInputFile(feed string) string {
	switch feed {
	case FeedStation:
		return "Data_MTAAlerts.csv"
	case FeedSubway:
		return "MTA_SubwayW1Feb22.csv"
	default:
		return "smoker-temps.csv"
	}
}

// DefaultInterval returns the pause between rows of a feed: 30s per smoker reading and
// 60s per simulated hour of ridership.
func DefaultInterval(feed string) time.Duration {
	if feed == FeedSmoker {
		return 30 * time.Second
	}
	return 60 * time.Second
}

// DefaultEncoding returns the encoding published on a queue by csv-producer.
func DefaultEncoding(queue string) string {
	switch {
	case strings.HasPrefix(queue, "Station-"):
		return codec.EncodingBinary
	case strings.HasPrefix(queue, "Line-"):
		return codec.EncodingRecord
	default:
		return codec.EncodingText
	}
}

// DefaultOutputFile returns the CSV a monitor appends to when none is given.
func DefaultOutputFile(queue string) string {
	return "Data_" + queue + ".csv"
}

// DefaultGroupID returns the consumer group of a monitor when none is given.
func DefaultGroupID(queue string) string {
	return "queue-monitor-" + queue
}
