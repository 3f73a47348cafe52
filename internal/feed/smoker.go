package feed

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"telemetry-streams/internal/codec"
)

var errNotFinite = errors.New("temperature must be finite")

// Channel binds one temperature column of the smoker file to its queue.
type Channel struct {
	Queue   string
	Subject string
	// StampPrefix is written before the timestamp in the message text.
	StampPrefix string
}

// DefaultSmokerChannels are the smoker, food A and food B probes in column order.
var DefaultSmokerChannels = []Channel{
	{Queue: "01-smoker", Subject: "Smoker"},
	{Queue: "02-food-A", Subject: "Food-A", StampPrefix: "Date: "},
	{Queue: "03-food-B", Subject: "Food-B"},
}

// SmokerFeed reads "Time,Smoker,Food A,Food B" rows and emits one text message per
// non-empty temperature cell.
type SmokerFeed struct {
	*csvFile
	channels []Channel
}

// OpenSmoker opens a smoker temperature file and skips its header.
func OpenSmoker(path string, channels []Channel) (*SmokerFeed, error) {
	c, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	if _, err := c.read(); err != nil {
		c.Close()
		return nil, err
	}
	return &SmokerFeed{csvFile: c, channels: channels}, nil
}

// Queues implements Feed.
func (f *SmokerFeed) Queues() []string {
	out := make([]string, len(f.channels))
	for i, ch := range f.channels {
		out[i] = ch.Queue
	}
	return out
}

// Next implements Feed.
func (f *SmokerFeed) Next() ([]Message, error) {
	row, err := f.read()
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, nil
	}

	stamp := strings.TrimSpace(row[0])
	ts, err := codec.ParseStamp(stamp)
	if err != nil {
		ts = time.Time{}
	}

	var msgs []Message
	for i, ch := range f.channels {
		if i+1 >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[i+1])
		if cell == "" {
			continue
		}
		temp, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, invalid(f.line, ch.Subject, cell, err)
		}
		if math.IsNaN(temp) || math.IsInf(temp, 0) {
			return nil, invalid(f.line, ch.Subject, cell, errNotFinite)
		}
		msgs = append(msgs, Message{
			Queue:       ch.Queue,
			Key:         []byte(ch.Queue),
			Body:        codec.EncodeTemperature(ch.Queue, ch.StampPrefix+stamp, ch.Subject, temp),
			ContentType: codec.ContentTypeText,
			Time:        ts,
			Value:       codec.FormatDecimal(temp),
		})
	}
	return msgs, nil
}
