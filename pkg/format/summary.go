package format

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
)

const persianSummaryPrompt = `You are an agricultural data assistant. Rewrite the given English sensor
summary as one or two natural Persian sentences. Keep every number exactly as
given. Output only the Persian text.`

// summarize renders the headline answer. English is deterministic; Persian
// goes through the LLM with a deterministic template fallback, and never
// invents numbers that are not in the metrics.
func (f *Formatter) summarize(ctx context.Context, ir *models.SemanticIR, metrics map[string]models.SensorMetrics, comparison *models.ComparisonResult, lang string) string {
	english := englishSummary(ir, metrics, comparison, f.registry)
	if lang != "fa" {
		return english
	}
	if f.llm != nil {
		out, err := f.llm.Chat(ctx, persianSummaryPrompt, english)
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		slog.Warn("LLM Persian summary unavailable, using template", "error", err)
	}
	return persianSummary(ir, metrics, comparison, f.registry)
}

func englishSummary(ir *models.SemanticIR, metrics map[string]models.SensorMetrics, comparison *models.ComparisonResult, registry *ontology.Registry) string {
	if comparison != nil {
		return comparisonSummary(comparison, registry)
	}

	parts := make([]string, 0, len(metrics))
	for _, sensor := range sortedSensors(metrics) {
		m := metrics[sensor]
		switch {
		case ir.Aggregation == models.AggCurrent && m.Latest != nil:
			parts = append(parts, fmt.Sprintf("Latest %s: %s", sensor, withUnit(*m.Latest, m.Unit)))
		case ir.Aggregation == models.AggCount:
			parts = append(parts, fmt.Sprintf("%d %s readings over %s", m.Count, sensor, rangeLabel(ir)))
		case m.Average != nil:
			s := fmt.Sprintf("%s %s over %s: %s",
				capitalize(string(ir.Aggregation)), sensor, rangeLabel(ir), aggValue(ir.Aggregation, m))
			if m.Min != nil && m.Max != nil && ir.Aggregation == models.AggAverage {
				s += fmt.Sprintf(" (min %.2f, max %.2f, %d readings)", *m.Min, *m.Max, m.Count)
			}
			parts = append(parts, s)
		case m.Latest != nil:
			parts = append(parts, fmt.Sprintf("Latest %s: %s", sensor, withUnit(*m.Latest, m.Unit)))
		}
	}
	if len(parts) == 0 {
		return "No sensor data was found for the requested period."
	}
	return strings.Join(parts, ". ") + "."
}

func comparisonSummary(comparison *models.ComparisonResult, registry *ontology.Registry) string {
	parts := make([]string, 0, len(comparison.SensorComparisons))
	for _, sensor := range sortedComparisonSensors(comparison) {
		c := comparison.SensorComparisons[sensor]
		unit := registry.CanonicalUnit(sensor)
		parts = append(parts, fmt.Sprintf("%s went from %s (%s) to %s (%s), a change of %+.2f (%+.2f%%)",
			sensor,
			withUnit(c.First, unit), strings.ReplaceAll(c.FirstLabel, "_", " "),
			withUnit(c.Second, unit), strings.ReplaceAll(c.SecondLabel, "_", " "),
			c.Delta, c.PercentChange))
	}
	return strings.Join(parts, ". ") + fmt.Sprintf(". Overall trend: %s.", comparison.OverallTrend)
}

// persianSummary is the deterministic fa template used when the LLM is down.
// Sensor names come from the catalog's Persian synonyms.
func persianSummary(ir *models.SemanticIR, metrics map[string]models.SensorMetrics, comparison *models.ComparisonResult, registry *ontology.Registry) string {
	if comparison != nil {
		parts := make([]string, 0, len(comparison.SensorComparisons))
		for _, sensor := range sortedComparisonSensors(comparison) {
			c := comparison.SensorComparisons[sensor]
			parts = append(parts, fmt.Sprintf("%s از %.2f به %.2f رسید (%+.2f%%)",
				persianName(registry, sensor), c.First, c.Second, c.PercentChange))
		}
		trend := map[string]string{
			"increasing": "روند کلی افزایشی است",
			"decreasing": "روند کلی کاهشی است",
			"stable":     "روند کلی ثابت است",
		}[comparison.OverallTrend]
		return strings.Join(parts, "؛ ") + ". " + trend + "."
	}

	parts := make([]string, 0, len(metrics))
	for _, sensor := range sortedSensors(metrics) {
		m := metrics[sensor]
		name := persianName(registry, sensor)
		switch {
		case ir.Aggregation == models.AggCurrent && m.Latest != nil:
			parts = append(parts, fmt.Sprintf("آخرین مقدار %s: %s", name, withUnit(*m.Latest, m.Unit)))
		case ir.Aggregation == models.AggCount:
			parts = append(parts, fmt.Sprintf("تعداد قرائت‌های %s: %d", name, m.Count))
		case m.Average != nil:
			parts = append(parts, fmt.Sprintf("میانگین %s: %s", name, withUnit(*m.Average, m.Unit)))
		case m.Latest != nil:
			parts = append(parts, fmt.Sprintf("آخرین مقدار %s: %s", name, withUnit(*m.Latest, m.Unit)))
		}
	}
	if len(parts) == 0 {
		return "برای بازه درخواستی داده‌ای از حسگرها یافت نشد."
	}
	return strings.Join(parts, "؛ ") + "."
}

// persianName picks the sensor's first Persian synonym, falling back to the
// canonical type.
func persianName(registry *ontology.Registry, sensor string) string {
	if d, ok := registry.Descriptor(sensor); ok {
		if fa := d.Synonyms["fa"]; len(fa) > 0 {
			return fa[0]
		}
	}
	return sensor
}

// aggValue renders the figure matching the requested aggregation.
func aggValue(agg models.Aggregation, m models.SensorMetrics) string {
	switch agg {
	case models.AggMin:
		if m.Min != nil {
			return withUnit(*m.Min, m.Unit)
		}
	case models.AggMax:
		if m.Max != nil {
			return withUnit(*m.Max, m.Unit)
		}
	}
	if m.Average != nil {
		return withUnit(*m.Average, m.Unit)
	}
	return "n/a"
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

func sortedSensors(metrics map[string]models.SensorMetrics) []string {
	out := make([]string, 0, len(metrics))
	for s := range metrics {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func sortedComparisonSensors(c *models.ComparisonResult) []string {
	out := make([]string, 0, len(c.SensorComparisons))
	for s := range c.SensorComparisons {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
