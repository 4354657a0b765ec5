package sqlquery

import (
	"fmt"
	"strings"
	"time"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
)

// Query is compiled SQL plus its bound parameters. User text never reaches
// the SQL string; sensor types and timestamps are always bound.
type Query struct {
	SQL  string
	Args []any

	// RangeLabels preserves the order of comparison ranges for the
	// formatter. Empty for non-comparison queries.
	RangeLabels []string
}

// Builder deterministically compiles a validated IR. nowFunc is injectable
// for tests.
type Builder struct {
	nowFunc func() time.Time
}

// NewBuilder returns a builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{nowFunc: time.Now}
}

// NewBuilderAt pins the compile-time clock; used by tests.
func NewBuilderAt(now func() time.Time) *Builder {
	return &Builder{nowFunc: now}
}

const aggregateColumns = "AVG(value) AS avg_value, MIN(value) AS min_value, MAX(value) AS max_value, COUNT(*) AS data_points"

// latestRowsSQL is the unfiltered last-resort query: the ten newest readings.
const latestRowsSQL = "SELECT * FROM sensor_data ORDER BY ts DESC LIMIT 10"

// LatestRows returns the last-resort fallback query. It is the only
// statement the validator accepts without a canonical sensor filter.
func LatestRows() Query {
	return Query{SQL: latestRowsSQL}
}

// Build compiles the IR into a single SELECT (or UNION ALL of SELECTs for
// comparisons) over sensor_data.
func (b *Builder) Build(ir models.SemanticIR) (Query, error) {
	if err := ir.Validate(); err != nil {
		return Query{}, agrierr.Wrap(err, agrierr.KindValidation, "invalid semantic IR")
	}
	now := b.nowFunc().UTC()

	if ir.Comparison && len(ir.TimeRanges) >= 2 {
		return b.buildComparison(ir, now)
	}
	if ir.Aggregation == models.AggCurrent {
		return b.buildCurrent(ir), nil
	}
	return b.buildAggregate(ir, now)
}

// buildCurrent emits the latest-row template, one branch per entity.
func (b *Builder) buildCurrent(ir models.SemanticIR) Query {
	var parts []string
	var args []any
	for _, entity := range ir.Entities {
		parts = append(parts,
			"SELECT ts, sensor_type, value, unit FROM sensor_data WHERE sensor_type = ? ORDER BY ts DESC LIMIT 1")
		args = append(args, entity)
	}
	if len(parts) == 1 {
		return Query{SQL: parts[0], Args: args}
	}
	// Parenthesized branches keep each per-sensor LIMIT local.
	for i := range parts {
		parts[i] = "SELECT * FROM (" + parts[i] + ")"
	}
	return Query{SQL: strings.Join(parts, " UNION ALL "), Args: args}
}

func (b *Builder) buildAggregate(ir models.SemanticIR, now time.Time) (Query, error) {
	window, err := b.window(ir, now)
	if err != nil {
		return Query{}, err
	}

	entityCond, entityArgs := entityCondition(ir.Entities)

	var sb strings.Builder
	var args []any

	// sensor_type is always selected and grouped on: the formatter keys
	// metrics by it, and grouping makes an empty window come back as zero
	// rows rather than a single all-NULL aggregate row.
	sb.WriteString("SELECT sensor_type, ")
	bucket := bucketExpr(ir.Grouping)
	if bucket != "" {
		sb.WriteString(bucket)
		sb.WriteString(" AS time_period, ")
	}
	sb.WriteString(aggregateColumns)
	sb.WriteString(" FROM sensor_data WHERE ")
	sb.WriteString(entityCond)
	args = append(args, entityArgs...)
	sb.WriteString(" AND ts >= ? AND ts < ?")
	args = append(args, database.FormatTime(window.Start), database.FormatTime(window.End))

	groupCols := []string{"sensor_type"}
	if bucket != "" {
		groupCols = append(groupCols, "time_period")
	}
	sb.WriteString(" GROUP BY ")
	sb.WriteString(strings.Join(groupCols, ", "))
	if bucket != "" {
		sb.WriteString(" ORDER BY time_period ASC")
	}

	return Query{SQL: sb.String(), Args: args}, nil
}

// buildComparison emits one labeled aggregation per range joined by
// UNION ALL, ordered by the bucket label.
func (b *Builder) buildComparison(ir models.SemanticIR, now time.Time) (Query, error) {
	entityCond, entityArgs := entityCondition(ir.Entities)

	var parts []string
	var args []any
	var labels []string
	for _, token := range ir.TimeRanges {
		window, err := ResolveRange(token, now)
		if err != nil {
			return Query{}, agrierr.Wrap(err, agrierr.KindValidation, "unresolvable range token")
		}
		labels = append(labels, window.Label)
		parts = append(parts, fmt.Sprintf(
			"SELECT ? AS time_period, sensor_type, %s FROM sensor_data WHERE %s AND ts >= ? AND ts < ? GROUP BY sensor_type",
			aggregateColumns, entityCond))
		args = append(args, window.Label)
		args = append(args, entityArgs...)
		args = append(args, database.FormatTime(window.Start), database.FormatTime(window.End))
	}

	sql := strings.Join(parts, " UNION ALL ") + " ORDER BY time_period ASC"
	return Query{SQL: sql, Args: args, RangeLabels: labels}, nil
}

// window resolves the effective interval: an explicit time context wins over
// the first range token.
func (b *Builder) window(ir models.SemanticIR, now time.Time) (Window, error) {
	if tc := ir.TimeContext; tc != nil && !tc.Start.IsZero() && tc.End.After(tc.Start) {
		return Window{Start: tc.Start.UTC(), End: tc.End.UTC(), Label: string(tc.Interval)}, nil
	}
	window, err := ResolveRange(ir.TimeRanges[0], now)
	if err != nil {
		return Window{}, agrierr.Wrap(err, agrierr.KindValidation, "unresolvable range token")
	}
	return window, nil
}

func entityCondition(entities []string) (string, []any) {
	if len(entities) == 1 {
		return "sensor_type = ?", []any{entities[0]}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entities)), ", ")
	args := make([]any, len(entities))
	for i, e := range entities {
		args[i] = e
	}
	return "sensor_type IN (" + placeholders + ")", args
}

// bucketExpr maps a grouping to its sqlite timestamp-truncation expression.
// Empty for GroupNone.
func bucketExpr(g models.Grouping) string {
	switch g {
	case models.GroupMinute:
		return "strftime('%Y-%m-%d %H:%M', ts)"
	case models.GroupHour:
		return "strftime('%Y-%m-%d %H:00', ts)"
	case models.GroupDay:
		return "strftime('%Y-%m-%d', ts)"
	case models.GroupWeek:
		return "strftime('%Y-%W', ts)"
	case models.GroupMonth:
		return "strftime('%Y-%m', ts)"
	}
	return ""
}
