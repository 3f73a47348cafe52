// Package sink appends decoded messages to a CSV file.
package sink

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
)

// CSVSink is an append-only CSV file. The header is written once, when the file is
// empty, and every row is flushed before Append returns.
type CSVSink struct {
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
}

// Open opens or creates path for appending and writes columns as the header if the
// file is empty.
func Open(path string, columns []string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	s := &CSVSink{path: path, file: f, writer: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.write(columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		slog.Info("Created output file", "path", path, "columns", len(columns))
	} else {
		slog.Info("Appending to existing output file", "path", path, "size_bytes", info.Size())
	}
	return s, nil
}

func (s *CSVSink) write(row []string) error {
	if err := s.writer.Write(row); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Append writes one row and flushes it to the file.
func (s *CSVSink) Append(row []string) error {
	if err := s.write(row); err != nil {
		return fmt.Errorf("failed to append to %s: %w", s.path, err)
	}
	s.rows++
	return nil
}

// Rows returns the number of rows appended since Open.
func (s *CSVSink) Rows() int { return s.rows }

// Close flushes and closes the file. Failures are logged and returned.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	err := s.writer.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("Error closing output file", "path", s.path, "error", err)
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}
	slog.Info("Output file closed", "path", s.path, "rows", s.rows)
	return nil
}
