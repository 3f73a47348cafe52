// Package codec encodes and decodes queue message bodies.
//
// Three wire formats are supported: human-readable temperature text, a fixed 12-byte
// binary count record, and a protobuf Struct carrying a ridership record.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"telemetry-streams/internal/events"
)

// ErrMalformedMessage is returned when a message body cannot be decoded.
var ErrMalformedMessage = errors.New("malformed message")

// Encoding names accepted by NewDecoder.
const (
	EncodingText   = "text"
	EncodingBinary = "binary"
	EncodingRecord = "record"
)

// Content types set on published messages.
const (
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
	ContentTypeRecord = "application/x-protobuf"
)

// Decoded is the result of decoding one message body.
type Decoded struct {
	Reading events.Reading
	Row     []string
}

// Decoder turns message bodies from one queue into readings and output rows.
type Decoder interface {
	// Columns is the output file header matching Decoded.Row.
	Columns() []string
	// Decode decodes body. received is used when the body carries no usable timestamp.
	Decode(source string, body []byte, received time.Time) (Decoded, error)
}

// NewDecoder returns the decoder for an encoding name.
func NewDecoder(encoding string) (Decoder, error) {
	switch strings.ToLower(encoding) {
	case EncodingText:
		return textDecoder{}, nil
	case EncodingBinary:
		return binaryDecoder{}, nil
	case EncodingRecord:
		return recordDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q (want text, binary or record)", encoding)
	}
}

type textDecoder struct{}

func (textDecoder) Columns() []string { return events.ReadingColumns }

func (textDecoder) Decode(source string, body []byte, received time.Time) (Decoded, error) {
	r, err := DecodeTemperature(source, body, received)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Reading: r, Row: r.Row()}, nil
}

type binaryDecoder struct{}

func (binaryDecoder) Columns() []string { return events.ReadingColumns }

func (binaryDecoder) Decode(source string, body []byte, _ time.Time) (Decoded, error) {
	ts, count, err := DecodeCount(body)
	if err != nil {
		return Decoded{}, err
	}
	r := events.Reading{
		SourceID:  source,
		Value:     float64(count),
		Timestamp: time.Unix(int64(ts), 0),
	}
	return Decoded{Reading: r, Row: r.Row()}, nil
}

type recordDecoder struct{}

func (recordDecoder) Columns() []string { return events.RidershipColumns }

func (recordDecoder) Decode(source string, body []byte, received time.Time) (Decoded, error) {
	rec, err := DecodeRecord(body)
	if err != nil {
		return Decoded{}, err
	}
	ts, err := ParseTransitTimestamp(rec.TransitTimestamp)
	if err != nil {
		ts = received
	}
	return Decoded{
		Reading: events.Reading{SourceID: source, Value: rec.Ridership, Timestamp: ts},
		Row:     rec.Row(),
	}, nil
}
