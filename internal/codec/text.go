package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"telemetry-streams/internal/events"
)

var (
	temperaturePattern = regexp.MustCompile(`is temp: (-?\d+\.\d+)`)
	stampPattern       = regexp.MustCompile(`Reading = (?:Date: )?([^;]+);`)
)

// stampLayouts are tried in order when reading the timestamp embedded in a text message.
var stampLayouts = []string{
	"01/02/06 15:04:05",
	"01/02/06 15:04",
	"1/2/06 15:04",
	"01/02/2006 15:04:05",
	time.RFC3339,
}

// EncodeTemperature formats a temperature message:
//
//	<queue> Reading = <stamp>; <subject> is temp: <value> deg F.
//
// The value always carries a decimal point so the consumer pattern matches. Only finite
// values can be decoded back.
func EncodeTemperature(queue, stamp, subject string, value float64) []byte {
	return []byte(fmt.Sprintf("%s Reading = %s; %s is temp: %s deg F.", queue, stamp, subject, FormatDecimal(value)))
}

// FormatDecimal renders v in its shortest form, with ".0" appended to whole numbers.
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// DecodeTemperature extracts the temperature and timestamp from a text message.
func DecodeTemperature(source string, body []byte, received time.Time) (events.Reading, error) {
	m := temperaturePattern.FindSubmatch(body)
	if m == nil {
		return events.Reading{}, fmt.Errorf("%w: no temperature in %q", ErrMalformedMessage, body)
	}
	value, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return events.Reading{}, fmt.Errorf("%w: bad temperature %q: %v", ErrMalformedMessage, m[1], err)
	}

	ts := received
	if sm := stampPattern.FindSubmatch(body); sm != nil {
		if parsed, err := ParseStamp(string(sm[1])); err == nil {
			ts = parsed
		}
	}

	return events.Reading{SourceID: source, Value: value, Timestamp: ts}, nil
}

// ParseStamp parses a feed timestamp in local time. Surrounding brackets are ignored.
func ParseStamp(s string) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
