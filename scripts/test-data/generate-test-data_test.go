package main

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"telemetry-streams/internal/codec"
	"telemetry-streams/internal/config"
	"telemetry-streams/internal/evaluator"
	"telemetry-streams/internal/feed"
)

// replay decodes every message of f the way queue-monitor would and returns the row
// index of each alert per queue.
func replay(t *testing.T, f feed.Feed) map[string][]int {
	t.Helper()
	eval, err := evaluator.New(evaluator.DefaultRules)
	if err != nil {
		t.Fatalf("evaluator.New() error = %v", err)
	}

	alerts := make(map[string][]int)
	for row := 0; ; row++ {
		msgs, err := f.Next()
		if err == io.EOF {
			return alerts
		}
		if err != nil {
			t.Fatalf("row %d: Next() error = %v", row, err)
		}
		for _, m := range msgs {
			dec, err := codec.NewDecoder(config.DefaultEncoding(m.Queue))
			if err != nil {
				t.Fatal(err)
			}
			d, err := dec.Decode(m.Queue, m.Body, time.Now())
			if err != nil {
				t.Fatalf("row %d: Decode(%s) error = %v", row, m.Queue, err)
			}
			if _, ok := eval.Observe(m.Queue, d.Reading); ok {
				alerts[m.Queue] = append(alerts[m.Queue], row)
			}
		}
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	paths, err := generate(dir, 7)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("generate() wrote %d files, want 3", len(paths))
	}

	t.Run("smoker", func(t *testing.T) {
		f, err := feed.OpenSmoker(filepath.Join(dir, config.DefaultInputFile(config.FeedSmoker)), feed.DefaultSmokerChannels)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		alerts := replay(t, f)
		rows := alerts["01-smoker"]
		if len(rows) == 0 {
			t.Fatal("expected smoker alerts during the drop")
		}
		if rows[0] < smokerDropRow {
			t.Errorf("first smoker alert at row %d, before the drop at %d", rows[0], smokerDropRow)
		}
	})

	t.Run("station", func(t *testing.T) {
		f, err := feed.OpenStation(filepath.Join(dir, config.DefaultInputFile(config.FeedStation)), feed.DefaultStationQueues)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		alerts := replay(t, f)
		for _, q := range feed.DefaultStationQueues {
			if len(alerts[q]) == 0 || alerts[q][0] != stationDropRow {
				t.Errorf("%s alerts at rows %v, want first at %d", q, alerts[q], stationDropRow)
			}
		}
	})

	t.Run("subway", func(t *testing.T) {
		f, err := feed.OpenSubway(filepath.Join(dir, config.DefaultInputFile(config.FeedSubway)), feed.DefaultLines)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		queues := make(map[string]int)
		for {
			msgs, err := f.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			for _, m := range msgs {
				queues[m.Queue]++
			}
		}
		// Flushing routes to 7, Times Sq and Atlantic Av to Q; Jay St has no monitored line.
		if queues["Line-7_queue"] != 24 || queues["Line-Q_queue"] != 48 || len(queues) != 2 {
			t.Errorf("routed messages = %v", queues)
		}
	})
}
