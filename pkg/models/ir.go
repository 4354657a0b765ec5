package models

import (
	"fmt"
	"regexp"
	"time"
)

// Aggregation selects the analytic applied over the matched readings.
type Aggregation string

const (
	AggCurrent Aggregation = "current"
	AggAverage Aggregation = "average"
	AggMin     Aggregation = "min"
	AggMax     Aggregation = "max"
	AggCount   Aggregation = "count"
)

// Valid reports whether the aggregation is one of the allowed values.
func (a Aggregation) Valid() bool {
	switch a {
	case AggCurrent, AggAverage, AggMin, AggMax, AggCount:
		return true
	}
	return false
}

// Grouping selects the time-bucket granularity of the result rows.
type Grouping string

const (
	GroupNone    Grouping = "none"
	GroupMinute  Grouping = "by_minute"
	GroupHour    Grouping = "by_hour"
	GroupDay     Grouping = "by_day"
	GroupWeek    Grouping = "by_week"
	GroupMonth   Grouping = "by_month"
)

// Valid reports whether the grouping is one of the allowed values.
func (g Grouping) Valid() bool {
	switch g {
	case GroupNone, GroupMinute, GroupHour, GroupDay, GroupWeek, GroupMonth:
		return true
	}
	return false
}

// Format hints how the answer should be presented.
type Format string

const (
	FormatValue        Format = "value"
	FormatTrend        Format = "trend"
	FormatComparison   Format = "comparison"
	FormatDistribution Format = "distribution"
)

// Valid reports whether the format is one of the allowed values.
func (f Format) Valid() bool {
	switch f {
	case FormatValue, FormatTrend, FormatComparison, FormatDistribution:
		return true
	}
	return false
}

// Interval is the granularity attached to a concrete time context.
type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHour   Interval = "hour"
	IntervalDay    Interval = "day"
	IntervalWeek   Interval = "week"
	IntervalMonth  Interval = "month"
)

// Grouping maps the interval to the matching result grouping.
func (i Interval) Grouping() Grouping {
	switch i {
	case IntervalMinute:
		return GroupMinute
	case IntervalHour:
		return GroupHour
	case IntervalDay:
		return GroupDay
	case IntervalWeek:
		return GroupWeek
	case IntervalMonth:
		return GroupMonth
	}
	return GroupNone
}

// RangeToken is the canonical textual label for a time interval.
//
// Grammar:
//
//	today | yesterday
//	last_N_{minutes|hours|days|weeks|months}
//	N_{hours|days|weeks}_ago
//	previous_N_{hours|days|weeks}
//	this_{week|month|year} | last_{week|month|year}
type RangeToken string

var rangeTokenPattern = regexp.MustCompile(
	`^(today|yesterday|` +
		`last_[1-9][0-9]*_(minutes|hours|days|weeks|months)|` +
		`[1-9][0-9]*_(hours|days|weeks)_ago|` +
		`previous_[1-9][0-9]*_(hours|days|weeks)|` +
		`(this|last)_(week|month|year))$`)

// Valid reports whether the token matches the canonical grammar.
func (t RangeToken) Valid() bool {
	return rangeTokenPattern.MatchString(string(t))
}

// DefaultRange is used when a query carries no time expression.
const DefaultRange = RangeToken("last_24_hours")

// TimeContext is a concrete half-open UTC interval [Start, End) plus the
// granularity derived from the natural-language expression. When present on
// an IR it overrides range-token lookup during SQL building.
type TimeContext struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Interval Interval  `json:"interval"`
}

// SemanticIR is the validated intermediate representation of a user question.
// It is the sole input to the query builder.
type SemanticIR struct {
	// Entities is an insertion-ordered set of canonical sensor types.
	// A single-element slice is the common case.
	Entities []string `json:"entities"`

	Aggregation Aggregation `json:"aggregation"`

	// TimeRanges holds one token for a plain query, two or more for a
	// comparison.
	TimeRanges []RangeToken `json:"time_ranges"`

	Grouping   Grouping `json:"grouping"`
	Format     Format   `json:"format"`
	Comparison bool     `json:"comparison"`

	// TimeContext, when non-nil, carries the concrete window parsed from
	// the question and takes precedence over TimeRanges.
	TimeContext *TimeContext `json:"time_context,omitempty"`

	// Provenance fields, not consumed by the builder.
	Language        string `json:"language,omitempty"`
	TranslatedQuery string `json:"translated_query,omitempty"`
	FallbackReason  string `json:"fallback_reason,omitempty"`
}

// Validate enforces the IR well-formedness rules:
// entities non-empty, enums in range, and the comparison flag consistent
// with the number of ranges and entities.
func (ir *SemanticIR) Validate() error {
	if len(ir.Entities) == 0 {
		return fmt.Errorf("ir: entity set is empty")
	}
	seen := make(map[string]struct{}, len(ir.Entities))
	for _, e := range ir.Entities {
		if e == "" {
			return fmt.Errorf("ir: empty entity")
		}
		if _, dup := seen[e]; dup {
			return fmt.Errorf("ir: duplicate entity %q", e)
		}
		seen[e] = struct{}{}
	}
	if !ir.Aggregation.Valid() {
		return fmt.Errorf("ir: invalid aggregation %q", ir.Aggregation)
	}
	if !ir.Grouping.Valid() {
		return fmt.Errorf("ir: invalid grouping %q", ir.Grouping)
	}
	if !ir.Format.Valid() {
		return fmt.Errorf("ir: invalid format %q", ir.Format)
	}
	if len(ir.TimeRanges) == 0 {
		return fmt.Errorf("ir: no time range")
	}
	for _, t := range ir.TimeRanges {
		if !t.Valid() {
			return fmt.Errorf("ir: invalid range token %q", t)
		}
	}
	multiRange := len(ir.TimeRanges) >= 2
	multiEntity := len(ir.Entities) >= 2
	if ir.Comparison && !multiRange && !multiEntity {
		return fmt.Errorf("ir: comparison set without multiple ranges or entities")
	}
	if !ir.Comparison && multiRange {
		return fmt.Errorf("ir: multiple ranges without comparison flag")
	}
	return nil
}

// AddEntity appends a canonical type preserving set semantics.
func (ir *SemanticIR) AddEntity(t string) {
	for _, e := range ir.Entities {
		if e == t {
			return
		}
	}
	ir.Entities = append(ir.Entities, t)
}

// MinimalIR is the fallback IR used when translation produced an invalid
// shape: single best-guess entity, current value over the last 24 hours.
func MinimalIR(entity, reason string) SemanticIR {
	return SemanticIR{
		Entities:       []string{entity},
		Aggregation:    AggCurrent,
		TimeRanges:     []RangeToken{DefaultRange},
		Grouping:       GroupNone,
		Format:         FormatValue,
		FallbackReason: reason,
	}
}
