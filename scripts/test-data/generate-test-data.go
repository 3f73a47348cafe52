// Command generate-test-data writes sample input files for every csv-producer feed.
// The series are shaped so the built-in alert rules fire at known rows.
//
// Usage:
//
//	go run ./scripts/test-data -out ./data [-postgres-dsn DSN]
//
// With -postgres-dsn the alert history table is emptied first.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"telemetry-streams/internal/config"
	"telemetry-streams/internal/database"
	"telemetry-streams/internal/feed"
)

// Shape of the generated series.
const (
	smokerRows     = 40
	smokerDropRow  = 20 // first row of the fuel-out drop
	stationRows    = 24
	stationDropRow = 12
)

var subwayStations = []struct {
	id, complex, borough string
	lat, lon             float64
	base                 float64
}{
	{"447", "Flushing-Main St (7)", "Queens", 40.7596, -73.83003, 1200},
	{"611", "Times Sq-42 St (N,Q,R,W,S,1,2,3,7)/42 St (A,C,E)", "Manhattan", 40.7553, -73.9872, 4000},
	{"617", "Atlantic Av-Barclays Ctr (B,Q,2,3,4,5,D,N,R)", "Brooklyn", 40.6841, -73.9779, 2500},
	{"636", "Jay St-MetroTech (A,C,F,R)", "Brooklyn", 40.6923, -73.9874, 1500},
}

func main() {
	outDir := flag.String("out", ".", "Directory to write the sample files to")
	seed := flag.Int64("seed", 1, "Random seed for the noise added to the series")
	dsn := flag.String("postgres-dsn", "", "Empty the alert history table in this database first")
	flag.Parse()

	if *dsn != "" {
		if err := purgeAlerts(*dsn); err != nil {
			log.Fatalf("Failed to clean database: %v", err)
		}
	}

	paths, err := generate(*outDir, *seed)
	if err != nil {
		log.Fatalf("Failed to generate sample data: %v", err)
	}
	for _, p := range paths {
		log.Printf("Wrote %s", p)
	}
}

// generate writes the sample file of every feed into dir and returns their paths.
func generate(dir string, seed int64) ([]string, error) {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 5, 23, 20, 0, 0, 0, time.Local)

	files := []struct {
		feed  string
		write func(w *csv.Writer) error
	}{
		{config.FeedSmoker, func(w *csv.Writer) error { return writeSmoker(w, rng, start) }},
		{config.FeedStation, func(w *csv.Writer) error { return writeStation(w, rng, start) }},
		{config.FeedSubway, func(w *csv.Writer) error { return writeSubway(w, rng, start) }},
	}

	var paths []string
	for _, f := range files {
		path := filepath.Join(dir, config.DefaultInputFile(f.feed))
		if err := writeFile(path, f.write); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func purgeAlerts(dsn string) error {
	log.Printf("Connecting to database...")
	store, err := database.NewAlertStore(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := store.Purge(ctx)
	if err != nil {
		return err
	}
	log.Printf("Deleted %d stored alerts", n)
	return nil
}

func writeFile(path string, write func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func noise(rng *rand.Rand, spread float64) float64 {
	return (rng.Float64()*2 - 1) * spread
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// writeSmoker writes a steady smoker around 225F that loses 6F per reading for five
// readings from smokerDropRow, while both foods warm up. Food B has a probe gap.
func writeSmoker(w *csv.Writer, rng *rand.Rand, start time.Time) error {
	if err := w.Write([]string{"Time (UTC)", "Channel1", "Channel2", "Channel3"}); err != nil {
		return err
	}
	smoker := 225.0
	for i := 0; i < smokerRows; i++ {
		ts := start.Add(time.Duration(i) * 30 * time.Second)
		if i >= smokerDropRow && i < smokerDropRow+5 {
			smoker -= 6
		} else {
			smoker += noise(rng, 0.4)
		}
		foodA := 40 + float64(i)*1.5 + noise(rng, 0.2)
		foodB := ""
		if i%10 != 7 {
			foodB = oneDecimal(38 + float64(i)*1.2 + noise(rng, 0.2))
		}
		row := []string{
			ts.Format("[01/02/06 15:04:05]"),
			oneDecimal(smoker),
			oneDecimal(foodA),
			foodB,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeStation writes hourly counts where both stations empty out sharply from
// stationDropRow, beyond the default 1000 and 100 thresholds.
func writeStation(w *csv.Writer, rng *rand.Rand, start time.Time) error {
	if err := w.Write([]string{"ts", "447", "463"}); err != nil {
		return err
	}
	for i := 0; i < stationRows; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		c447, c463 := 2600.0, 420.0
		if i >= stationDropRow {
			c447, c463 = 900, 150
		}
		row := []string{
			ts.Format(feed.StationTimeLayout),
			strconv.Itoa(int(c447 + noise(rng, 50))),
			strconv.Itoa(int(c463 + noise(rng, 10))),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeSubway writes one row per station per hour in the MTA hourly ridership layout.
func writeSubway(w *csv.Writer, rng *rand.Rand, start time.Time) error {
	header := []string{
		"transit_timestamp", "transit_mode", "station_complex_id", "station_complex",
		"borough", "payment_method", "fare_class_category", "ridership", "transfers",
		"latitude", "longitude", "Georeference",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for h := 0; h < 24; h++ {
		ts := start.Add(time.Duration(h) * time.Hour)
		for _, s := range subwayStations {
			ridership := s.base * (0.5 + rng.Float64())
			row := []string{
				ts.Format("01/02/2006 03:04:05 PM"),
				"subway",
				s.id,
				s.complex,
				s.borough,
				"omny",
				"OMNY - Full Fare",
				strconv.Itoa(int(ridership)),
				strconv.Itoa(rng.Intn(20)),
				strconv.FormatFloat(s.lat, 'f', -1, 64),
				strconv.FormatFloat(s.lon, 'f', -1, 64),
				fmt.Sprintf("POINT (%v %v)", s.lon, s.lat),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}
