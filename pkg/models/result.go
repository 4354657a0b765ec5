package models

import "time"

// SensorMetrics aggregates the result rows for one sensor type.
type SensorMetrics struct {
	Latest  *float64 `json:"latest,omitempty"`
	Average *float64 `json:"average,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Count   int      `json:"count"`
	Unit    string   `json:"unit,omitempty"`
}

// ChartPoint is one chart-ready data point.
type ChartPoint struct {
	Label      string  `json:"label"` // time_period bucket or range label
	SensorType string  `json:"sensor_type,omitempty"`
	Value      float64 `json:"value"`
}

// ChartMetadata describes how a chart should be rendered.
type ChartMetadata struct {
	Title      string            `json:"title"`
	XAxisLabel string            `json:"x_axis_label"`
	YAxisLabel string            `json:"y_axis_label"`
	YAxisUnit  string            `json:"y_axis_unit,omitempty"`
	ShowLegend bool              `json:"show_legend"`
	Palette    map[string]string `json:"palette,omitempty"` // sensor -> color
	DataPoints int               `json:"data_points"`
}

// RangeComparison contrasts one sensor across two labeled ranges.
type RangeComparison struct {
	First         float64 `json:"first"`
	Second        float64 `json:"second"`
	FirstLabel    string  `json:"first_label"`
	SecondLabel   string  `json:"second_label"`
	Delta         float64 `json:"delta"`
	PercentChange float64 `json:"percent_change"`
}

// ComparisonResult carries per-sensor range deltas and the overall trend.
type ComparisonResult struct {
	SensorComparisons map[string]RangeComparison `json:"sensor_comparisons"`
	OverallTrend      string                     `json:"overall_trend"` // increasing | decreasing | stable
}

// ErrorDetails carries the typed failure surfaced to clients.
type ErrorDetails struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	MessageFa string `json:"message_fa,omitempty"`
}

// Validation is the provenance block of the unified result. Every field is
// always present so clients never branch on missing keys.
type Validation struct {
	QueryValid       bool          `json:"query_valid"`
	ExecutionSuccess bool          `json:"execution_success"`
	DataPoints       int           `json:"data_points"`
	SensorTypes      []string      `json:"sensor_types"`
	ChartRequested   bool          `json:"chart_requested"`
	Mapping          string        `json:"mapping,omitempty"` // ontology mapping type
	FallbackUsed     int           `json:"fallback_used"`     // 0 = primary path
	RefinedByLLM     bool          `json:"refined_by_llm"`
	SemanticJSON     *SemanticIR   `json:"semantic_json,omitempty"`
	ErrorDetails     *ErrorDetails `json:"error_details,omitempty"`
}

// QueryResult is the unified response of the ask operation. Inapplicable
// fields are null, never omitted structurally.
type QueryResult struct {
	Success         bool                     `json:"success"`
	Summary         string                   `json:"summary"`
	Metrics         map[string]SensorMetrics `json:"metrics"`
	RawData         []map[string]any         `json:"raw_data"`
	Chart           []ChartPoint             `json:"chart"`
	ChartType       string                   `json:"chart_type,omitempty"`
	ChartMetadata   *ChartMetadata           `json:"chart_metadata,omitempty"`
	Comparison      *ComparisonResult        `json:"comparison,omitempty"`
	SQL             string                   `json:"sql,omitempty"`
	TranslatedQuery string                   `json:"translated_query,omitempty"`
	FeatureContext  string                   `json:"feature_context,omitempty"`
	Timestamp       time.Time                `json:"timestamp"`
	Validation      Validation               `json:"validation"`
}

// StreamEvent is one frame of the streaming ask variant. Progress frames set
// Step/Message/Progress; token frames add Token and Accumulated; the final
// frame sets Complete with the full result.
type StreamEvent struct {
	Step        any          `json:"step"` // int for progress frames, "complete" for the final frame
	Message     string       `json:"message,omitempty"`
	Progress    int          `json:"progress,omitempty"`
	Token       string       `json:"token,omitempty"`
	Accumulated string       `json:"accumulated,omitempty"`
	Result      *QueryResult `json:"result,omitempty"`
}
