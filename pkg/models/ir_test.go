package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeTokenGrammar(t *testing.T) {
	valid := []string{
		"today", "yesterday",
		"last_24_hours", "last_3_days", "last_30_minutes", "last_2_weeks", "last_6_months",
		"2_hours_ago", "3_days_ago", "1_weeks_ago",
		"previous_7_days", "previous_4_hours",
		"this_week", "this_month", "this_year",
		"last_week", "last_month", "last_year",
	}
	for _, tok := range valid {
		assert.True(t, RangeToken(tok).Valid(), "expected %q to be valid", tok)
	}

	invalid := []string{
		"", "tomorrow", "last_0_days", "last_-3_days", "last_3_fortnights",
		"3_minutes_ago", "previous_2_months", "this_day", "last 3 days",
	}
	for _, tok := range invalid {
		assert.False(t, RangeToken(tok).Valid(), "expected %q to be invalid", tok)
	}
}

func validIR() SemanticIR {
	return SemanticIR{
		Entities:    []string{"temperature"},
		Aggregation: AggAverage,
		TimeRanges:  []RangeToken{"last_3_days"},
		Grouping:    GroupDay,
		Format:      FormatValue,
	}
}

func TestSemanticIRValidate(t *testing.T) {
	t.Run("well-formed", func(t *testing.T) {
		ir := validIR()
		require.NoError(t, ir.Validate())
	})

	t.Run("empty entity set", func(t *testing.T) {
		ir := validIR()
		ir.Entities = nil
		assert.Error(t, ir.Validate())
	})

	t.Run("duplicate entities", func(t *testing.T) {
		ir := validIR()
		ir.Entities = []string{"temperature", "temperature"}
		assert.Error(t, ir.Validate())
	})

	t.Run("comparison requires multiple ranges or entities", func(t *testing.T) {
		ir := validIR()
		ir.Comparison = true
		assert.Error(t, ir.Validate())

		ir.TimeRanges = []RangeToken{"this_week", "last_week"}
		assert.NoError(t, ir.Validate())

		ir.TimeRanges = []RangeToken{"last_3_days"}
		ir.Entities = []string{"temperature", "humidity"}
		assert.NoError(t, ir.Validate())
	})

	t.Run("multiple ranges require the comparison flag", func(t *testing.T) {
		ir := validIR()
		ir.TimeRanges = []RangeToken{"this_week", "last_week"}
		assert.Error(t, ir.Validate())
	})

	t.Run("invalid enum values", func(t *testing.T) {
		ir := validIR()
		ir.Aggregation = "median"
		assert.Error(t, ir.Validate())

		ir = validIR()
		ir.Grouping = "by_fortnight"
		assert.Error(t, ir.Validate())

		ir = validIR()
		ir.Format = "sparkline"
		assert.Error(t, ir.Validate())
	})
}

func TestAddEntityKeepsSetSemantics(t *testing.T) {
	ir := validIR()
	ir.AddEntity("humidity")
	ir.AddEntity("temperature") // already present
	ir.AddEntity("humidity")    // already present
	assert.Equal(t, []string{"temperature", "humidity"}, ir.Entities)
}

func TestMinimalIR(t *testing.T) {
	ir := MinimalIR("soil_moisture", "translation produced garbage")
	require.NoError(t, ir.Validate())
	assert.Equal(t, []string{"soil_moisture"}, ir.Entities)
	assert.Equal(t, AggCurrent, ir.Aggregation)
	assert.Equal(t, []RangeToken{DefaultRange}, ir.TimeRanges)
	assert.Equal(t, "translation produced garbage", ir.FallbackReason)
}
