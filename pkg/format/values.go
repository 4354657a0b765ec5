// Package format assembles the unified query result: summary text, per-sensor
// metrics, chart-ready series, comparison statistics, and the provenance
// block. Every response shape passes through here so clients see one schema.
package format

import (
	"sort"
	"strconv"

	"github.com/agrosense/agrosense/pkg/sqlquery"
)

// toFloat coerces the driver's value types to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case int:
		return x, true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	}
	return 0, false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// rowSensor pulls the sensor_type column, empty when absent.
func rowSensor(row map[string]any) string {
	return toString(row["sensor_type"])
}

// sensorsOf lists the distinct sensor types present in the rows, sorted.
func sensorsOf(rs *sqlquery.ResultSet) []string {
	seen := map[string]bool{}
	for _, row := range rs.Rows {
		if s := rowSensor(row); s != "" && !seen[s] {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
