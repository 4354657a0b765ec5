package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// parseValue coerces the loosely typed value field into a float64 and keeps
// the textual form for the precision check.
func parseValue(v any) (float64, string, error) {
	switch x := v.(type) {
	case nil:
		return 0, "", reject(ReasonValueMissing, "value is missing")
	case float64:
		return x, strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		f := float64(x)
		return f, strconv.FormatFloat(f, 'f', -1, 64), nil
	case int:
		return float64(x), strconv.Itoa(x), nil
	case int64:
		return float64(x), strconv.FormatInt(x, 10), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, "", reject(ReasonValueNotNumeric, "value %q is not numeric", x.String())
		}
		return f, x.String(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, "", reject(ReasonValueMissing, "value is empty")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, "", reject(ReasonValueNotNumeric, "value %q is not numeric", s)
		}
		return f, s, nil
	}
	return 0, "", reject(ReasonValueNotNumeric, "value has unsupported type %T", v)
}

// fractionalDigits counts digits after the decimal point in the textual
// value, ignoring exponents.
func fractionalDigits(text string) int {
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		text = text[:i]
	}
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return 0
	}
	return len(text) - dot - 1
}

// timestampLayouts accepted from producers, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp normalizes the timestamp field to UTC with microsecond
// resolution. Numbers are epoch seconds; naive strings are stamped UTC;
// absent timestamps default to now.
func parseTimestamp(v any, now time.Time) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return now.UTC().Truncate(time.Microsecond), nil
	case float64:
		sec, frac := math.Modf(x)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC().Truncate(time.Microsecond), nil
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case int:
		return time.Unix(int64(x), 0).UTC(), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, reject(ReasonBadTimestamp, "timestamp %q is not numeric", x.String())
		}
		return parseTimestamp(f, now)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return now.UTC().Truncate(time.Microsecond), nil
		}
		// Epoch seconds delivered as a string.
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return parseTimestamp(f, now)
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Truncate(time.Microsecond), nil
			}
		}
		return time.Time{}, reject(ReasonBadTimestamp, "unparseable timestamp %q", s)
	}
	return time.Time{}, reject(ReasonBadTimestamp, "timestamp has unsupported type %T", v)
}

// unitConversion converts a value from a producer unit to the canonical
// unit. Unknown or already-canonical units pass through unchanged.
func unitConversion(value float64, unit, canonical string) float64 {
	u := strings.TrimSpace(unit)
	if u == "" || u == canonical {
		return value
	}
	switch canonical {
	case "°C":
		switch strings.ToUpper(u) {
		case "°F", "F", "FAHRENHEIT":
			return (value - 32) * 5 / 9
		case "K", "KELVIN":
			return value - 273.15
		}
	case "hPa":
		switch strings.ToLower(u) {
		case "pa":
			return value / 100
		case "bar":
			return value * 1000
		}
	case "m/s":
		switch strings.ToLower(u) {
		case "km/h", "kmh", "kph":
			return value / 3.6
		case "mph":
			return value * 0.44704
		}
	case "cm":
		switch strings.ToLower(u) {
		case "in", "inch", "inches":
			return value * 2.54
		}
	case "L":
		switch strings.ToLower(u) {
		case "gal", "gallon", "gallons":
			return value * 3.78541
		}
	case "kg":
		switch strings.ToLower(u) {
		case "lb", "lbs", "pounds":
			return value * 0.453592
		}
	case "kWh":
		switch strings.ToUpper(u) {
		case "W", "WH":
			return value / 1000
		}
	}
	return value
}

// round2 rounds to two fractional digits, the stored resolution.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// encodeRaw serializes the pre-normalization record for the raw column.
func encodeRaw(r RawRecord) string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%+v", r)
	}
	return string(b)
}
