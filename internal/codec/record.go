package codec

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"telemetry-streams/internal/events"
)

// transitLayouts covers the MTA export format and the short form used by the station feed.
var transitLayouts = []string{
	"01/02/2006 03:04:05 PM",
	"01/02/2006 15:04:05",
	"01/02/06 15:04:05",
	time.RFC3339,
}

// EncodeRecord serializes a ridership record as a protobuf Struct keyed by column name.
func EncodeRecord(rec *events.RidershipRecord) ([]byte, error) {
	st, err := structpb.NewStruct(map[string]any{
		"transit_timestamp":   rec.TransitTimestamp,
		"transit_mode":        rec.TransitMode,
		"station_complex_id":  rec.StationComplexID,
		"station_complex":     rec.StationComplex,
		"Line":                rec.Line,
		"borough":             rec.Borough,
		"payment_method":      rec.PaymentMethod,
		"fare_class_category": rec.FareClassCategory,
		"ridership":           rec.Ridership,
		"transfers":           rec.Transfers,
		"latitude":            rec.Latitude,
		"longitude":           rec.Longitude,
		"Georeference":        rec.Georeference,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build record struct: %w", err)
	}
	payload, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return payload, nil
}

// DecodeRecord parses a record produced by EncodeRecord.
// transit_timestamp and ridership are required; other fields default to zero values.
func DecodeRecord(body []byte) (*events.RidershipRecord, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	fields := st.GetFields()

	for _, required := range []string{"transit_timestamp", "ridership"} {
		if _, ok := fields[required]; !ok {
			return nil, fmt.Errorf("%w: record missing %s", ErrMalformedMessage, required)
		}
	}

	str := func(name string) string { return fields[name].GetStringValue() }
	num := func(name string) float64 { return fields[name].GetNumberValue() }

	return &events.RidershipRecord{
		TransitTimestamp:  str("transit_timestamp"),
		TransitMode:       str("transit_mode"),
		StationComplexID:  str("station_complex_id"),
		StationComplex:    str("station_complex"),
		Line:              str("Line"),
		Borough:           str("borough"),
		PaymentMethod:     str("payment_method"),
		FareClassCategory: str("fare_class_category"),
		Ridership:         num("ridership"),
		Transfers:         num("transfers"),
		Latitude:          num("latitude"),
		Longitude:         num("longitude"),
		Georeference:      str("Georeference"),
	}, nil
}

// ParseTransitTimestamp parses an MTA transit_timestamp in local time.
func ParseTransitTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range transitLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised transit timestamp %q", s)
}
