package format

import (
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/sqlquery"
)

// ExtractMetrics folds result rows into per-sensor metrics. Point rows
// (value column) fill Latest; aggregate rows fold across buckets: averages
// weighted by bucket size, min of mins, max of maxes, summed counts.
func ExtractMetrics(rs *sqlquery.ResultSet, registry *ontology.Registry) map[string]models.SensorMetrics {
	type acc struct {
		latest    *float64
		weighted  float64
		weightSum float64
		min       *float64
		max       *float64
		count     int
	}
	accs := map[string]*acc{}

	get := func(sensor string) *acc {
		a, ok := accs[sensor]
		if !ok {
			a = &acc{}
			accs[sensor] = a
		}
		return a
	}

	for _, row := range rs.Rows {
		sensor := rowSensor(row)
		if sensor == "" {
			continue
		}
		a := get(sensor)

		if v, ok := toFloat(row["value"]); ok {
			// Point rows arrive newest first; keep the first seen.
			if a.latest == nil {
				a.latest = ptr(v)
			}
			a.count++
			continue
		}

		n, _ := toInt(row["data_points"])
		if n <= 0 {
			n = 1
		}
		if v, ok := toFloat(row["avg_value"]); ok {
			a.weighted += v * float64(n)
			a.weightSum += float64(n)
		}
		if v, ok := toFloat(row["min_value"]); ok {
			if a.min == nil || v < *a.min {
				a.min = ptr(v)
			}
		}
		if v, ok := toFloat(row["max_value"]); ok {
			if a.max == nil || v > *a.max {
				a.max = ptr(v)
			}
		}
		a.count += n
	}

	out := make(map[string]models.SensorMetrics, len(accs))
	for sensor, a := range accs {
		m := models.SensorMetrics{
			Latest: a.latest,
			Min:    a.min,
			Max:    a.max,
			Count:  a.count,
			Unit:   registry.CanonicalUnit(sensor),
		}
		if a.weightSum > 0 {
			m.Average = ptr(a.weighted / a.weightSum)
		}
		out[sensor] = m
	}
	return out
}

func ptr(v float64) *float64 { return &v }
