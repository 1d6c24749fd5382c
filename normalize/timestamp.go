package normalize

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrBadTimestamp is returned when a value matches none of the accepted ISO-8601 layouts.
var ErrBadTimestamp = errors.New("unparseable timestamp")

// Layouts without a zone designator are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

var dateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// ParseTimestamp parses an ISO-8601 instant, with or without a trailing Z or offset,
// and returns it in UTC truncated to whole seconds.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrBadTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}

// TimestampOr parses value and falls back to now when it is missing or malformed.
func TimestampOr(value string, now time.Time) time.Time {
	if t, err := ParseTimestamp(value); err == nil {
		return t
	}
	return now.UTC().Truncate(time.Second)
}

// DateOf returns the calendar date of t in UTC.
func DateOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// DateFromFilename extracts the first YYYY-MM-DD date embedded in name.
func DateFromFilename(name string) string {
	if m := dateRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}
