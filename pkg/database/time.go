package database

import "time"

// TimeLayout is the canonical timestamp encoding in the store: UTC,
// microsecond resolution, lexicographically ordered, and accepted by
// sqlite's datetime functions.
const TimeLayout = "2006-01-02 15:04:05.000000"

// FormatTime encodes an instant for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a stored timestamp. Falls back to RFC 3339 for rows
// written by external tooling.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
