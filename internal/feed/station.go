package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"telemetry-streams/internal/codec"
)

// StationTimeLayout is the timestamp layout of the station ridership file.
const StationTimeLayout = "01/02/06 15:04:05"

// DefaultStationQueues are the queues for the count columns, in column order.
var DefaultStationQueues = []string{"Station-447", "Station-463"}

// StationFeed reads "timestamp,count,count..." rows and emits one 12-byte binary
// count record per station column.
type StationFeed struct {
	*csvFile
	queues []string
}

// OpenStation opens a station ridership file and skips its header.
func OpenStation(path string, queues []string) (*StationFeed, error) {
	c, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	if _, err := c.read(); err != nil {
		c.Close()
		return nil, err
	}
	return &StationFeed{csvFile: c, queues: queues}, nil
}

// Queues implements Feed.
func (f *StationFeed) Queues() []string { return f.queues }

// Next implements Feed.
func (f *StationFeed) Next() ([]Message, error) {
	row, err := f.read()
	if err != nil {
		return nil, err
	}
	if len(row) < len(f.queues)+1 {
		return nil, fmt.Errorf("%w: line %d has %d columns, want %d", ErrInvalidValue, f.line, len(row), len(f.queues)+1)
	}

	stamp := strings.TrimSpace(row[0])
	ts, err := time.ParseInLocation(StationTimeLayout, stamp, time.Local)
	if err != nil {
		return nil, invalid(f.line, "timestamp", stamp, err)
	}

	msgs := make([]Message, 0, len(f.queues))
	for i, queue := range f.queues {
		cell := strings.TrimSpace(row[i+1])
		count, err := strconv.ParseUint(cell, 10, 32)
		if err != nil {
			return nil, invalid(f.line, queue, cell, err)
		}
		msgs = append(msgs, Message{
			Queue:       queue,
			Key:         []byte(queue),
			Body:        codec.EncodeCount(uint64(ts.Unix()), uint32(count)),
			ContentType: codec.ContentTypeBinary,
			Time:        ts,
			Value:       cell,
		})
	}
	return msgs, nil
}
