package translate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
)

func newTranslator(t *testing.T) *Translator {
	t.Helper()
	registry, err := ontology.LoadDefault()
	require.NoError(t, err)
	return NewAt(registry, nil, func() time.Time { return parseNow })
}

func TestTranslateCurrentValue(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(), "What is the current temperature?", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.Equal(t, []string{"temperature"}, ir.Entities)
	assert.Equal(t, models.AggCurrent, ir.Aggregation)
	assert.Equal(t, []models.RangeToken{models.DefaultRange}, ir.TimeRanges)
	assert.Equal(t, models.GroupNone, ir.Grouping)
	assert.Equal(t, models.FormatValue, ir.Format)
	assert.False(t, ir.Comparison)
	assert.Equal(t, "en", ir.Language)
	assert.Equal(t, ontology.MappingExact, res.Mapping)
}

func TestTranslateAggregateWithWindow(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(), "average humidity last 3 days", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.Equal(t, []string{"humidity"}, ir.Entities)
	assert.Equal(t, models.AggAverage, ir.Aggregation)
	assert.Equal(t, []models.RangeToken{"last_3_days"}, ir.TimeRanges)
	assert.Equal(t, models.GroupDay, ir.Grouping)
	require.NotNil(t, ir.TimeContext)
}

func TestTranslateComparisonTwoRanges(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(),
		"compare soil moisture this week vs last week", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.Equal(t, []string{"soil_moisture"}, ir.Entities)
	assert.True(t, ir.Comparison)
	assert.Equal(t, []models.RangeToken{"this_week", "last_week"}, ir.TimeRanges)
	assert.Equal(t, models.FormatComparison, ir.Format)
	assert.Equal(t, models.GroupWeek, ir.Grouping)
	assert.Nil(t, ir.TimeContext)
}

func TestTranslateComparisonSingleRangeExpands(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(),
		"compare temperature last 4 hours", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.True(t, ir.Comparison)
	assert.Equal(t, []models.RangeToken{
		"1_hours_ago", "2_hours_ago", "3_hours_ago", "4_hours_ago",
	}, ir.TimeRanges)
}

func TestTranslateEntityComparisonKeepsSingleRange(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(),
		"compare temperature and humidity today", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.Equal(t, []string{"temperature", "humidity"}, ir.Entities)
	assert.True(t, ir.Comparison)
	assert.Equal(t, []models.RangeToken{"today"}, ir.TimeRanges)
	assert.Equal(t, models.FormatComparison, ir.Format)
	// A point lookup makes no sense across two sensors being compared.
	assert.NotEqual(t, models.AggCurrent, ir.Aggregation)
}

func TestDetectAggregationNowIsAWholeWord(t *testing.T) {
	// "know" and "snow" contain "now" but are not requests for the latest
	// reading.
	assert.Equal(t, models.AggAverage, detectAggregation("let me know the humidity today", true))
	assert.Equal(t, models.AggCurrent, detectAggregation("what is the temperature now", false))
	assert.Equal(t, models.AggCurrent, detectAggregation("humidity right now", false))
}

func TestTranslateComparisonHintForcesComparison(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(), "temperature this week", "", true)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.True(t, ir.Comparison)
	assert.Equal(t, []models.RangeToken{"this_week", "last_week"}, ir.TimeRanges)
}

func TestTranslatePersianWithoutLLM(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(), "میانگین رطوبت خاک ۳ روز اخیر", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.Equal(t, "fa", ir.Language)
	assert.Equal(t, []string{"soil_moisture"}, ir.Entities)
	assert.Equal(t, models.AggAverage, ir.Aggregation)
	assert.Equal(t, []models.RangeToken{"last_3_days"}, ir.TimeRanges)
}

func TestTranslateFeatureContextBias(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(),
		"what were the readings yesterday", "soil moisture panel", false)

	assert.Equal(t, []string{"soil_moisture"}, res.IR.Entities)
	assert.Equal(t, ontology.MappingFeatureBias, res.Mapping)
}

func TestTranslateUnmappableFallsBack(t *testing.T) {
	res := newTranslator(t).Translate(context.Background(), "hello there", "", false)

	ir := res.IR
	require.NoError(t, ir.Validate())
	assert.Equal(t, []string{ontology.FallbackSensor}, ir.Entities)
	assert.Equal(t, ontology.MappingFallback, res.Mapping)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"type":"temperature"}`, stripCodeFence("```json\n{\"type\":\"temperature\"}\n```"))
	assert.Equal(t, `{"type":"temperature"}`, stripCodeFence(`{"type":"temperature"}`))
}
