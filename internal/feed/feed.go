// Package feed reads CSV input files and turns each row into queue messages.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrInvalidValue is returned when a row holds a value that cannot be parsed.
var ErrInvalidValue = errors.New("invalid value")

// Message is one outbound queue message.
type Message struct {
	Queue       string
	Key         []byte
	Body        []byte
	ContentType string
	Time        time.Time
	// Value is the human-readable reading carried by Body, for logging.
	Value string
}

// Feed yields the messages of one input row per call.
type Feed interface {
	// Next returns the messages for the next row. A row may yield no messages.
	// io.EOF is returned after the last row.
	Next() ([]Message, error)
	// Queues lists every queue the feed can publish to.
	Queues() []string
	Close() error
}

// csvFile is the shared open-file and reader state of the CSV feeds.
type csvFile struct {
	file   *os.File
	reader *csv.Reader
	line   int
}

func openCSV(path string) (*csvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return &csvFile{file: f, reader: r}, nil
}

// read returns the next record. io.EOF is passed through unwrapped.
func (c *csvFile) read() ([]string, error) {
	rec, err := c.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	c.line++
	if err != nil {
		return nil, fmt.Errorf("failed to read line %d: %w", c.line, err)
	}
	return rec, nil
}

func (c *csvFile) Close() error {
	return c.file.Close()
}

func invalid(line int, column, value string, err error) error {
	return fmt.Errorf("%w: line %d column %s: %q: %v", ErrInvalidValue, line, column, value, err)
}
