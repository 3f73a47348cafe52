package feed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"telemetry-streams/internal/codec"
	"telemetry-streams/internal/events"
)

// DefaultLines are the subway lines routed to their own queues.
var DefaultLines = []string{"7", "Q", "5"}

var lineListPattern = regexp.MustCompile(`\(([^()]*)\)`)

// LineQueue returns the queue name of a subway line.
func LineQueue(line string) string {
	return fmt.Sprintf("Line-%s_queue", line)
}

// SubwayFeed reads MTA hourly ridership rows and routes each row to the queue of the
// first monitored line serving its station complex.
type SubwayFeed struct {
	*csvFile
	lines   []string
	monitor map[string]bool
	index   map[string]int
}

var requiredSubwayColumns = []string{"transit_timestamp", "station_complex_id", "station_complex", "ridership"}

// OpenSubway opens an MTA ridership export and indexes its header.
func OpenSubway(path string, lines []string) (*SubwayFeed, error) {
	c, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	header, err := c.read()
	if err != nil {
		c.Close()
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredSubwayColumns {
		if _, ok := index[col]; !ok {
			c.Close()
			return nil, fmt.Errorf("%w: header is missing column %s", ErrInvalidValue, col)
		}
	}

	monitor := make(map[string]bool, len(lines))
	for _, l := range lines {
		monitor[l] = true
	}
	return &SubwayFeed{csvFile: c, lines: lines, monitor: monitor, index: index}, nil
}

// Queues implements Feed.
func (f *SubwayFeed) Queues() []string {
	out := make([]string, len(f.lines))
	for i, l := range f.lines {
		out[i] = LineQueue(l)
	}
	return out
}

// Next implements Feed. Rows on lines that are not monitored yield no messages.
func (f *SubwayFeed) Next() ([]Message, error) {
	row, err := f.read()
	if err != nil {
		return nil, err
	}

	rec, err := f.record(row)
	if err != nil {
		return nil, err
	}
	if rec.Line == "" {
		return nil, nil
	}

	body, err := codec.EncodeRecord(rec)
	if err != nil {
		return nil, err
	}

	ts, err := codec.ParseTransitTimestamp(rec.TransitTimestamp)
	if err != nil {
		ts = time.Time{}
	}

	return []Message{{
		Queue:       LineQueue(rec.Line),
		Key:         []byte(rec.StationComplexID),
		Body:        body,
		ContentType: codec.ContentTypeRecord,
		Time:        ts,
		Value:       strconv.FormatFloat(rec.Ridership, 'f', -1, 64),
	}}, nil
}

func (f *SubwayFeed) field(row []string, name string) string {
	i, ok := f.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (f *SubwayFeed) number(row []string, name string, required bool) (float64, error) {
	s := f.field(row, name)
	if s == "" && !required {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, invalid(f.line, name, s, err)
	}
	return v, nil
}

func (f *SubwayFeed) record(row []string) (*events.RidershipRecord, error) {
	rec := &events.RidershipRecord{
		TransitTimestamp:  f.field(row, "transit_timestamp"),
		TransitMode:       f.field(row, "transit_mode"),
		StationComplexID:  f.field(row, "station_complex_id"),
		StationComplex:    f.field(row, "station_complex"),
		Borough:           f.field(row, "borough"),
		PaymentMethod:     f.field(row, "payment_method"),
		FareClassCategory: f.field(row, "fare_class_category"),
		Georeference:      f.field(row, "Georeference"),
	}

	var err error
	if rec.Ridership, err = f.number(row, "ridership", true); err != nil {
		return nil, err
	}
	if rec.Transfers, err = f.number(row, "transfers", false); err != nil {
		return nil, err
	}
	if rec.Latitude, err = f.number(row, "latitude", false); err != nil {
		return nil, err
	}
	if rec.Longitude, err = f.number(row, "longitude", false); err != nil {
		return nil, err
	}

	if line := f.field(row, "Line"); line != "" {
		if f.monitor[line] {
			rec.Line = line
		}
		return rec, nil
	}
	rec.Line = f.routeLine(rec.StationComplex)
	return rec, nil
}

// routeLine picks the first monitored line from the parenthesised line lists of a
// station complex name, e.g. "Times Sq-42 St (N,Q,R,W,S,1,2,3,7)/42 St (A,C,E)".
func (f *SubwayFeed) routeLine(stationComplex string) string {
	for _, m := range lineListPattern.FindAllStringSubmatch(stationComplex, -1) {
		for _, l := range strings.Split(m[1], ",") {
			if l = strings.TrimSpace(l); f.monitor[l] {
				return l
			}
		}
	}
	return ""
}
