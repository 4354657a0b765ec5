package format

import (
	"math"
	"sort"
	"time"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/sqlquery"
)

// trendThreshold is the mean percent change below which a comparison is
// reported as stable.
const trendThreshold = 1.0

// BuildComparison contrasts the earliest and latest compared period per
// sensor. Range labels are ordered by their resolved window start, not by
// their SQL sort order, so "this_week vs last_week" and "1_day_ago vs
// 4_days_ago" both report deltas toward the more recent period.
func BuildComparison(rs *sqlquery.ResultSet, rangeLabels []string, now time.Time) *models.ComparisonResult {
	if rs.Empty() || len(rangeLabels) < 2 {
		return nil
	}

	ordered := chronological(rangeLabels, now)

	// sensor -> label -> mean value for that period.
	values := map[string]map[string]float64{}
	for _, row := range rs.Rows {
		sensor := rowSensor(row)
		label := toString(row["time_period"])
		value, ok := toFloat(row["avg_value"])
		if sensor == "" || label == "" || !ok {
			continue
		}
		if values[sensor] == nil {
			values[sensor] = map[string]float64{}
		}
		values[sensor][label] = value
	}

	result := &models.ComparisonResult{
		SensorComparisons: make(map[string]models.RangeComparison, len(values)),
	}
	var pctSum float64
	var pctN int
	for sensor, byLabel := range values {
		var have []string
		for _, label := range ordered {
			if _, ok := byLabel[label]; ok {
				have = append(have, label)
			}
		}
		if len(have) < 2 {
			continue
		}
		firstLabel, lastLabel := have[0], have[len(have)-1]
		first, last := byLabel[firstLabel], byLabel[lastLabel]

		delta := last - first
		pct := 0.0
		if first != 0 {
			pct = delta / math.Abs(first) * 100
		}
		result.SensorComparisons[sensor] = models.RangeComparison{
			First:         first,
			Second:        last,
			FirstLabel:    firstLabel,
			SecondLabel:   lastLabel,
			Delta:         round2(delta),
			PercentChange: round2(pct),
		}
		pctSum += pct
		pctN++
	}
	if len(result.SensorComparisons) == 0 {
		return nil
	}

	mean := pctSum / float64(pctN)
	switch {
	case mean > trendThreshold:
		result.OverallTrend = "increasing"
	case mean < -trendThreshold:
		result.OverallTrend = "decreasing"
	default:
		result.OverallTrend = "stable"
	}
	return result
}

// chronological sorts range labels by their resolved window start, earliest
// first. Unresolvable labels keep their given position at the end.
func chronological(labels []string, now time.Time) []string {
	type entry struct {
		label string
		start time.Time
		ok    bool
		pos   int
	}
	entries := make([]entry, len(labels))
	for i, label := range labels {
		e := entry{label: label, pos: i}
		if w, err := sqlquery.ResolveRange(models.RangeToken(label), now); err == nil {
			e.start = w.Start
			e.ok = true
		}
		entries[i] = e
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ok && b.ok {
			return a.start.Before(b.start)
		}
		if a.ok != b.ok {
			return a.ok
		}
		return a.pos < b.pos
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.label
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
