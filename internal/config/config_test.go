package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"telemetry-streams/internal/evaluator"
)

func TestProducerConfig_Validate(t *testing.T) {
	valid := ProducerConfig{
		KafkaBrokers:  "localhost:9092",
		Feed:          FeedStation,
		InputFile:     "Data_MTAAlerts.csv",
		Interval:      time.Minute,
		StationQueues: "Station-447,Station-463",
		Lines:         "7,Q,5",
	}

	tests := []struct {
		name    string
		modify  func(c *ProducerConfig)
		wantErr bool
	}{
		{"valid", func(c *ProducerConfig) {}, false},
		{"no brokers", func(c *ProducerConfig) { c.KafkaBrokers = "" }, true},
		{"no brokers in mock mode", func(c *ProducerConfig) { c.KafkaBrokers = ""; c.Mock = true }, false},
		{"unknown feed", func(c *ProducerConfig) { c.Feed = "weather" }, true},
		{"no input", func(c *ProducerConfig) { c.InputFile = "" }, true},
		{"negative interval", func(c *ProducerConfig) { c.Interval = -time.Second }, true},
		{"zero interval", func(c *ProducerConfig) { c.Interval = 0 }, false},
		{"negative metrics interval", func(c *ProducerConfig) { c.MetricsInterval = -time.Second }, true},
		{"no station queues", func(c *ProducerConfig) { c.StationQueues = " , " }, true},
		{"no lines for subway", func(c *ProducerConfig) { c.Feed = FeedSubway; c.Lines = "" }, true},
		{"smoker ignores lines", func(c *ProducerConfig) { c.Feed = FeedSmoker; c.Lines = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonitorConfig_Validate(t *testing.T) {
	valid := MonitorConfig{
		KafkaBrokers:  "localhost:9092",
		Queue:         "01-smoker",
		GroupID:       "queue-monitor-01-smoker",
		Encoding:      "text",
		OutputFile:    "smoker_out.csv",
		CommitTimeout: 10 * time.Second,
	}

	tests := []struct {
		name    string
		modify  func(c *MonitorConfig)
		wantErr bool
	}{
		{"valid", func(c *MonitorConfig) {}, false},
		{"upper-case encoding", func(c *MonitorConfig) { c.Encoding = "BINARY" }, false},
		{"no brokers", func(c *MonitorConfig) { c.KafkaBrokers = "" }, true},
		{"no queue", func(c *MonitorConfig) { c.Queue = "" }, true},
		{"no group", func(c *MonitorConfig) { c.GroupID = "" }, true},
		{"bad encoding", func(c *MonitorConfig) { c.Encoding = "json" }, true},
		{"no output", func(c *MonitorConfig) { c.OutputFile = "" }, true},
		{"zero commit timeout", func(c *MonitorConfig) { c.CommitTimeout = 0 }, true},
		{"default metrics interval", func(c *MonitorConfig) { c.MetricsInterval = 0 }, false},
		{"negative metrics interval", func(c *MonitorConfig) { c.MetricsInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList(" 7, Q,,5 "); !reflect.DeepEqual(got, []string{"7", "Q", "5"}) {
		t.Errorf("SplitList() = %v", got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}

func TestLoadRules_Default(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if !reflect.DeepEqual(rules, evaluator.DefaultRules) {
		t.Errorf("LoadRules(\"\") = %v, want DefaultRules", rules)
	}

	// The returned slice must not alias the defaults.
	rules[0].Threshold = 999
	if evaluator.DefaultRules[0].Threshold == 999 {
		t.Error("LoadRules mutated DefaultRules")
	}
}

func TestLoadRules_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
[[rule]]
source = "01-smoker"
capacity = 5
threshold = 15.0
label = "Smoker temperature fell"

[[rule]]
source = "Line-7_queue"
capacity = 3
threshold = 500.0
direction = "rise"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	want := []evaluator.Rule{
		{Source: "01-smoker", Capacity: 5, Threshold: 15, Label: "Smoker temperature fell"},
		{Source: "Line-7_queue", Capacity: 3, Threshold: 500, Direction: evaluator.Rise},
	}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("LoadRules() = %+v, want %+v", rules, want)
	}
}

func TestLoadRules_Missing(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadRules() error = %v, want fs.ErrNotExist", err)
	}
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"bad toml", `[[rule]` + "\n"},
		{"unknown key", "[[rule]]\nsource = \"a\"\ncapacity = 2\nthreshold = 1.0\nwindow = 4\n"},
		{"capacity too small", "[[rule]]\nsource = \"a\"\ncapacity = 1\nthreshold = 1.0\n"},
		{"bad direction", "[[rule]]\nsource = \"a\"\ncapacity = 2\nthreshold = 1.0\ndirection = \"sideways\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tt.data)); err == nil {
				t.Error("ParseRules() should fail")
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		queue, encoding string
	}{
		{"01-smoker", "text"},
		{"02-food-A", "text"},
		{"Station-447", "binary"},
		{"Line-7_queue", "record"},
	}
	for _, tt := range tests {
		if got := DefaultEncoding(tt.queue); got != tt.encoding {
			t.Errorf("DefaultEncoding(%q) = %q, want %q", tt.queue, got, tt.encoding)
		}
	}

	if got := DefaultInterval(FeedSmoker); got != 30*time.Second {
		t.Errorf("DefaultInterval(smoker) = %v, want 30s", got)
	}
	if got := DefaultInterval(FeedStation); got != time.Minute {
		t.Errorf("DefaultInterval(station) = %v, want 1m", got)
	}
	if got := DefaultInputFile(FeedStation); got != "Data_MTAAlerts.csv" {
		t.Errorf("DefaultInputFile(station) = %q", got)
	}
	if got := DefaultOutputFile("Line-7_queue"); got != "Data_Line-7_queue.csv" {
		t.Errorf("DefaultOutputFile() = %q", got)
	}
	if got := DefaultGroupID("01-smoker"); got != "queue-monitor-01-smoker" {
		t.Errorf("DefaultGroupID() = %q", got)
	}
}
