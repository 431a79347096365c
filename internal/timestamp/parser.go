// Package timestamp parses the reference instant of a continuous counter from
// configuration values.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognized is returned when no known layout matches the input.
var ErrUnrecognized = errors.New("timestamp: unrecognized format")

// unixMillisDigits is the integer-part length at which a bare number is read
// as Unix milliseconds instead of seconds (13 digits covers 2001..2286).
const unixMillisDigits = 13

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

var localLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parser converts textual timestamps into instants. Layouts without a zone are
// interpreted in Location.
type Parser struct {
	Location *time.Location
}

// NewParser returns a Parser that reads zone-less layouts as local time.
func NewParser() *Parser {
	return &Parser{Location: time.Local}
}

// Parse interprets s as RFC3339/RFC1123, a date-time without zone, or a Unix
// epoch number (seconds, or milliseconds when the integer part has 13+ digits).
func (p *Parser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}

	if t, ok := parseEpoch(s); ok {
		return t, nil
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
}

// Parse uses a local-time Parser.
func Parse(s string) (time.Time, error) {
	return NewParser().Parse(s)
}

// FromEpoch converts a Unix epoch number using the same seconds/milliseconds
// rule as Parse.
func FromEpoch(v float64) time.Time {
	intDigits := len(strconv.FormatInt(int64(v), 10))
	if intDigits >= unixMillisDigits {
		return time.UnixMilli(int64(v))
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

func parseEpoch(s string) (time.Time, bool) {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return time.Time{}, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return FromEpoch(v), true
}
