package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	registry, err := ontology.LoadDefault()
	require.NoError(t, err)
	return NewParser(registry)
}

func TestParseSpecBasicThreshold(t *testing.T) {
	spec, err := newTestParser(t).ParseSpec("Alert me if temperature goes above 35", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", spec.SessionID)
	assert.Equal(t, "temperature", spec.SensorType)
	assert.Equal(t, models.OpGreater, spec.Operator)
	assert.Equal(t, 35.0, spec.Threshold)
	assert.Equal(t, models.SeverityWarning, spec.Severity)
	assert.Equal(t, 0, spec.TimeWindowMinutes)
	assert.Equal(t, "log", spec.Action)
	assert.True(t, spec.Active)
	assert.NotEmpty(t, spec.ID)
	assert.Equal(t, "temperature > 35", spec.Name)
}

func TestParseSpecTwoSidedCuesWin(t *testing.T) {
	p := newTestParser(t)

	spec, err := p.ParseSpec("notify me when humidity is 80 or above", "s")
	require.NoError(t, err)
	assert.Equal(t, models.OpGreaterEqual, spec.Operator)
	assert.Equal(t, 80.0, spec.Threshold)
	assert.Equal(t, "notification", spec.Action)

	spec, err = p.ParseSpec("alert when soil moisture is at most 20", "s")
	require.NoError(t, err)
	assert.Equal(t, models.OpLessEqual, spec.Operator)
}

func TestParseSpecWindowedAverage(t *testing.T) {
	spec, err := newTestParser(t).ParseSpec(
		"email me if the average humidity drops below 40 over the last 2 hours", "s")
	require.NoError(t, err)

	assert.Equal(t, "humidity", spec.SensorType)
	assert.Equal(t, models.OpLess, spec.Operator)
	// The window numeral (2) must not be mistaken for the threshold.
	assert.Equal(t, 40.0, spec.Threshold)
	assert.Equal(t, 120, spec.TimeWindowMinutes)
	assert.Equal(t, "email", spec.Action)
}

func TestParseSpecSeverity(t *testing.T) {
	spec, err := newTestParser(t).ParseSpec(
		"critical alert if co2 exceeds 2000, send sms", "s")
	require.NoError(t, err)

	assert.Equal(t, "co2", spec.SensorType)
	assert.Equal(t, models.SeverityCritical, spec.Severity)
	assert.Equal(t, "sms", spec.Action)
	assert.Equal(t, 2000.0, spec.Threshold)
}

func TestParseSpecPersian(t *testing.T) {
	spec, err := newTestParser(t).ParseSpec("اگر دما بالای ۳۵ رفت هشدار بده", "s")
	require.NoError(t, err)

	assert.Equal(t, "temperature", spec.SensorType)
	assert.Equal(t, models.OpGreater, spec.Operator)
	assert.Equal(t, 35.0, spec.Threshold)
}

func TestParseSpecDecimalThreshold(t *testing.T) {
	spec, err := newTestParser(t).ParseSpec("alert if ph drops below 5.5", "s")
	require.NoError(t, err)
	assert.Equal(t, "ph", spec.SensorType)
	assert.Equal(t, 5.5, spec.Threshold)
}

func TestParseSpecRejections(t *testing.T) {
	p := newTestParser(t)

	t.Run("no sensor", func(t *testing.T) {
		_, err := p.ParseSpec("alert me if the stock price goes above 35", "s")
		require.Error(t, err)
		assert.Equal(t, agrierr.KindMapping, agrierr.KindOf(err))
	})

	t.Run("no operator", func(t *testing.T) {
		_, err := p.ParseSpec("alert me about temperature 35", "s")
		require.Error(t, err)
		assert.Equal(t, agrierr.KindValidation, agrierr.KindOf(err))
	})

	t.Run("no threshold", func(t *testing.T) {
		_, err := p.ParseSpec("alert me if temperature goes above normal", "s")
		require.Error(t, err)
		assert.Equal(t, agrierr.KindValidation, agrierr.KindOf(err))
	})
}
