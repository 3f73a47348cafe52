// Package config holds the configuration of the producer and monitor binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"telemetry-streams/internal/codec"
)

// Feed names accepted by the producer.
const (
	FeedSmoker  = "smoker"
	FeedStation = "station"
	FeedSubway  = "subway"
)

// ProducerConfig holds all configuration parameters for csv-producer.
type ProducerConfig struct {
	KafkaBrokers  string
	Feed          string
	InputFile     string
	Interval      time.Duration
	StationQueues string
	Lines         string
	Mock          bool
	RedisAddr     string

	// MetricsInterval is the Redis report period; 0 selects metrics.DefaultReportInterval.
	MetricsInterval time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *ProducerConfig) Validate() error {
	if !c.Mock && c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	switch c.Feed {
	case FeedSmoker:
	case FeedStation:
		if len(SplitList(c.StationQueues)) == 0 {
			return fmt.Errorf("station-queues cannot be empty for the station feed")
		}
	case FeedSubway:
		if len(SplitList(c.Lines)) == 0 {
			return fmt.Errorf("lines cannot be empty for the subway feed")
		}
	default:
		return fmt.Errorf("feed must be one of smoker, station, subway, got %q", c.Feed)
	}
	if c.InputFile == "" {
		return fmt.Errorf("input file cannot be empty")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be >= 0, got %v", c.Interval)
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("metrics-interval must be >= 0, got %v", c.MetricsInterval)
	}
	return nil
}

// MonitorConfig holds all configuration parameters for queue-monitor.
type MonitorConfig struct {
	KafkaBrokers  string
	Queue         string
	GroupID       string
	Encoding      string
	OutputFile    string
	RulesFile     string
	RedisAddr     string
	PostgresDSN   string
	CommitTimeout time.Duration

	// MetricsInterval is the Redis report period; 0 selects metrics.DefaultReportInterval.
	MetricsInterval time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *MonitorConfig) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.Queue == "" {
		return fmt.Errorf("queue cannot be empty")
	}
	if c.GroupID == "" {
		return fmt.Errorf("group-id cannot be empty")
	}
	switch strings.ToLower(c.Encoding) {
	case codec.EncodingText, codec.EncodingBinary, codec.EncodingRecord:
	default:
		return fmt.Errorf("encoding must be one of text, binary, record, got %q", c.Encoding)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("commit-timeout must be > 0, got %v", c.CommitTimeout)
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("metrics-interval must be >= 0, got %v", c.MetricsInterval)
	}
	return nil
}

// SplitList splits a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
