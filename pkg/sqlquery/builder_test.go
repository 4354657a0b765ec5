package sqlquery

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
)

func pinnedBuilder() *Builder {
	return NewBuilderAt(func() time.Time { return pinnedNow })
}

func TestBuildCurrentSingleEntity(t *testing.T) {
	q, err := pinnedBuilder().Build(models.SemanticIR{
		Entities:    []string{"temperature"},
		Aggregation: models.AggCurrent,
		TimeRanges:  []models.RangeToken{models.DefaultRange},
		Grouping:    models.GroupNone,
		Format:      models.FormatValue,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT ts, sensor_type, value, unit FROM sensor_data WHERE sensor_type = ? ORDER BY ts DESC LIMIT 1",
		q.SQL)
	assert.Equal(t, []any{"temperature"}, q.Args)
	assert.Empty(t, q.RangeLabels)
}

func TestBuildCurrentMultiEntity(t *testing.T) {
	q, err := pinnedBuilder().Build(models.SemanticIR{
		Entities:    []string{"temperature", "humidity"},
		Aggregation: models.AggCurrent,
		TimeRanges:  []models.RangeToken{models.DefaultRange},
		Grouping:    models.GroupNone,
		Format:      models.FormatValue,
	})
	require.NoError(t, err)

	// One latest-row branch per sensor, each with its own LIMIT.
	assert.Equal(t, 1, strings.Count(q.SQL, "UNION ALL"))
	assert.Equal(t, 2, strings.Count(q.SQL, "LIMIT 1"))
	assert.Equal(t, []any{"temperature", "humidity"}, q.Args)
}

func TestBuildAggregateWithGrouping(t *testing.T) {
	q, err := pinnedBuilder().Build(models.SemanticIR{
		Entities:    []string{"soil_moisture"},
		Aggregation: models.AggAverage,
		TimeRanges:  []models.RangeToken{"last_7_days"},
		Grouping:    models.GroupDay,
		Format:      models.FormatTrend,
	})
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "strftime('%Y-%m-%d', ts) AS time_period")
	assert.Contains(t, q.SQL, "AVG(value) AS avg_value")
	assert.Contains(t, q.SQL, "GROUP BY sensor_type, time_period")
	assert.Contains(t, q.SQL, "ORDER BY time_period ASC")

	require.Len(t, q.Args, 3)
	assert.Equal(t, "soil_moisture", q.Args[0])
	assert.Equal(t, database.FormatTime(pinnedNow.AddDate(0, 0, -7)), q.Args[1])
	assert.Equal(t, database.FormatTime(pinnedNow), q.Args[2])
}

func TestBuildAggregateMultiEntityGroupsBySensor(t *testing.T) {
	q, err := pinnedBuilder().Build(models.SemanticIR{
		Entities:    []string{"temperature", "humidity"},
		Aggregation: models.AggAverage,
		TimeRanges:  []models.RangeToken{"today"},
		Grouping:    models.GroupNone,
		Format:      models.FormatTrend,
	})
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "sensor_type IN (?, ?)")
	assert.Contains(t, q.SQL, "GROUP BY sensor_type")
	assert.NotContains(t, q.SQL, "time_period")
}

func TestBuildComparisonLabelsRanges(t *testing.T) {
	q, err := pinnedBuilder().Build(models.SemanticIR{
		Entities:    []string{"temperature"},
		Aggregation: models.AggAverage,
		TimeRanges:  []models.RangeToken{"this_week", "last_week"},
		Grouping:    models.GroupNone,
		Format:      models.FormatComparison,
		Comparison:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"this_week", "last_week"}, q.RangeLabels)
	assert.Equal(t, 1, strings.Count(q.SQL, "UNION ALL"))
	assert.Contains(t, q.SQL, "? AS time_period")
	// Each branch binds: label, sensor, window start, window end.
	require.Len(t, q.Args, 8)
	assert.Equal(t, "this_week", q.Args[0])
	assert.Equal(t, "last_week", q.Args[4])
}

func TestBuildTimeContextOverridesRangeToken(t *testing.T) {
	start := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	q, err := pinnedBuilder().Build(models.SemanticIR{
		Entities:    []string{"temperature"},
		Aggregation: models.AggAverage,
		TimeRanges:  []models.RangeToken{"last_24_hours"},
		Grouping:    models.GroupHour,
		Format:      models.FormatTrend,
		TimeContext: &models.TimeContext{Start: start, End: end, Interval: models.IntervalHour},
	})
	require.NoError(t, err)

	assert.Contains(t, q.Args, database.FormatTime(start))
	assert.Contains(t, q.Args, database.FormatTime(end))
	assert.NotContains(t, q.Args, database.FormatTime(pinnedNow.Add(-24*time.Hour)))
}

func TestBuildRejectsInvalidIR(t *testing.T) {
	_, err := pinnedBuilder().Build(models.SemanticIR{})
	require.Error(t, err)
}
