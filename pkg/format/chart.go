package format

import (
	"fmt"
	"strings"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/sqlquery"
)

// Chart type names shared with clients.
const (
	ChartLine      = "line"
	ChartBar       = "bar"
	ChartHistogram = "histogram"
	ChartPie       = "pie"
)

// chartCues flag an explicit chart request in either language.
var chartCues = []string{
	"chart", "graph", "plot", "visualize", "visualise",
	"نمودار", "گراف", "رسم",
}

// DetectChart decides whether a chart was asked for and which type fits.
// Distribution questions get a pie or histogram, comparisons a bar chart,
// trends a line chart.
func DetectChart(english, original string, ir *models.SemanticIR) (bool, string) {
	text := strings.ToLower(english) + " " + original
	requested := false
	for _, cue := range chartCues {
		if strings.Contains(text, cue) {
			requested = true
			break
		}
	}

	switch {
	case ir.Format == models.FormatDistribution:
		if strings.Contains(text, "pie") || strings.Contains(text, "share") {
			return true, ChartPie
		}
		return true, ChartHistogram
	case ir.Comparison:
		return true, ChartBar
	case ir.Format == models.FormatTrend:
		return true, ChartLine
	case requested:
		if strings.Contains(text, "bar") {
			return true, ChartBar
		}
		return true, ChartLine
	}
	return false, ""
}

// palette is the fixed color rotation for multi-sensor charts.
var palette = []string{
	"#2e7d32", "#1565c0", "#ef6c00", "#6a1b9a", "#c62828",
	"#00838f", "#9e9d24", "#4e342e", "#283593", "#ad1457",
}

// BuildChart shapes result rows into chart points plus render metadata.
// Grouped rows use their bucket as the label; point rows use the reading
// timestamp.
func BuildChart(rs *sqlquery.ResultSet, ir *models.SemanticIR, registry *ontology.Registry) ([]models.ChartPoint, *models.ChartMetadata) {
	if rs.Empty() {
		return nil, nil
	}

	points := make([]models.ChartPoint, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		p := models.ChartPoint{SensorType: rowSensor(row)}

		if label := toString(row["time_period"]); label != "" {
			p.Label = label
		} else if ts := toString(row["ts"]); ts != "" {
			p.Label = ts
		} else {
			p.Label = p.SensorType
		}

		if v, ok := toFloat(row["avg_value"]); ok {
			p.Value = v
		} else if v, ok := toFloat(row["value"]); ok {
			p.Value = v
		} else {
			continue
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, nil
	}

	sensors := sensorsOf(rs)
	colors := make(map[string]string, len(sensors))
	for i, s := range sensors {
		colors[s] = palette[i%len(palette)]
	}

	meta := &models.ChartMetadata{
		Title:      chartTitle(ir, sensors),
		XAxisLabel: xAxisLabel(ir),
		YAxisLabel: strings.Join(sensors, ", "),
		ShowLegend: len(sensors) > 1,
		Palette:    colors,
		DataPoints: len(points),
	}
	if len(sensors) == 1 {
		meta.YAxisUnit = registry.CanonicalUnit(sensors[0])
	}
	return points, meta
}

func chartTitle(ir *models.SemanticIR, sensors []string) string {
	subject := strings.Join(sensors, " & ")
	switch {
	case ir.Comparison:
		return fmt.Sprintf("%s comparison", subject)
	case ir.Aggregation == models.AggCurrent:
		return fmt.Sprintf("Latest %s", subject)
	default:
		return fmt.Sprintf("%s %s over %s", capitalize(string(ir.Aggregation)), subject, rangeLabel(ir))
	}
}

func xAxisLabel(ir *models.SemanticIR) string {
	if ir.Comparison {
		return "period"
	}
	switch ir.Grouping {
	case models.GroupMinute:
		return "minute"
	case models.GroupHour:
		return "hour"
	case models.GroupDay:
		return "day"
	case models.GroupWeek:
		return "week"
	case models.GroupMonth:
		return "month"
	}
	return "time"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func rangeLabel(ir *models.SemanticIR) string {
	if len(ir.TimeRanges) == 0 {
		return string(models.DefaultRange)
	}
	labels := make([]string, len(ir.TimeRanges))
	for i, t := range ir.TimeRanges {
		labels[i] = strings.ReplaceAll(string(t), "_", " ")
	}
	return strings.Join(labels, " vs ")
}
