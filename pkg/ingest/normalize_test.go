package ingest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/ontology"
)

var normNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func normRegistry(t *testing.T) *ontology.Registry {
	t.Helper()
	r, err := ontology.LoadDefault()
	require.NoError(t, err)
	return r
}

func TestNormalizeAcceptsPlainReading(t *testing.T) {
	reading, err := normalizeAndValidate(normRegistry(t), RawRecord{
		Sensor: "temperature",
		Value:  23.456,
		Unit:   "°C",
	}, normNow)
	require.NoError(t, err)

	assert.Equal(t, "temperature", reading.SensorType)
	assert.Equal(t, 23.46, reading.Value) // rounded to stored resolution
	assert.Equal(t, "°C", reading.Unit)
	assert.Equal(t, "pipeline", reading.Source)
	assert.True(t, normNow.Equal(reading.Timestamp)) // absent timestamp defaults to now
	assert.NotEmpty(t, reading.Raw)
}

func TestNormalizeUnitConversions(t *testing.T) {
	cases := []struct {
		name   string
		record RawRecord
		want   float64
		unit   string
	}{
		{"fahrenheit to celsius", RawRecord{Sensor: "temperature", Value: 98.6, Unit: "°F"}, 37.0, "°C"},
		{"kelvin to celsius", RawRecord{Sensor: "temperature", Value: 300.15, Unit: "K"}, 27.0, "°C"},
		{"pascal to hectopascal", RawRecord{Sensor: "pressure", Value: 101325.0, Unit: "Pa"}, 1013.25, "hPa"},
		{"kmh to ms", RawRecord{Sensor: "wind_speed", Value: 36.0, Unit: "km/h"}, 10.0, "m/s"},
		{"inches to cm", RawRecord{Sensor: "rainfall", Value: 2.0, Unit: "in"}, 5.08, "cm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reading, err := normalizeAndValidate(normRegistry(t), tc.record, normNow)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, reading.Value, 0.01)
			assert.Equal(t, tc.unit, reading.Unit)
		})
	}
}

func TestNormalizeCoercesValueTypes(t *testing.T) {
	registry := normRegistry(t)

	reading, err := normalizeAndValidate(registry, RawRecord{Sensor: "humidity", Value: "55.5"}, normNow)
	require.NoError(t, err)
	assert.Equal(t, 55.5, reading.Value)

	reading, err = normalizeAndValidate(registry, RawRecord{Sensor: "humidity", Value: 60}, normNow)
	require.NoError(t, err)
	assert.Equal(t, 60.0, reading.Value)
}

func TestNormalizeTimestampForms(t *testing.T) {
	registry := normRegistry(t)

	t.Run("rfc3339", func(t *testing.T) {
		reading, err := normalizeAndValidate(registry, RawRecord{
			Sensor: "humidity", Value: 50.0, Timestamp: "2026-08-25T10:30:00+02:00",
		}, normNow)
		require.NoError(t, err)
		assert.True(t, time.Date(2026, 8, 25, 8, 30, 0, 0, time.UTC).Equal(reading.Timestamp))
	})

	t.Run("epoch seconds", func(t *testing.T) {
		epoch := float64(normNow.Unix())
		reading, err := normalizeAndValidate(registry, RawRecord{
			Sensor: "humidity", Value: 50.0, Timestamp: epoch,
		}, normNow)
		require.NoError(t, err)
		assert.True(t, normNow.Equal(reading.Timestamp))
	})

	t.Run("naive string is UTC", func(t *testing.T) {
		reading, err := normalizeAndValidate(registry, RawRecord{
			Sensor: "humidity", Value: 50.0, Timestamp: "2026-08-25 10:30:00",
		}, normNow)
		require.NoError(t, err)
		assert.True(t, time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC).Equal(reading.Timestamp))
	})
}

func TestNormalizeRejections(t *testing.T) {
	registry := normRegistry(t)

	cases := []struct {
		name   string
		record RawRecord
		reason RejectReason
	}{
		{"missing value", RawRecord{Sensor: "temperature"}, ReasonValueMissing},
		{"non-numeric value", RawRecord{Sensor: "temperature", Value: "warm"}, ReasonValueNotNumeric},
		{"nan", RawRecord{Sensor: "temperature", Value: math.NaN()}, ReasonValueNotFinite},
		{"unknown sensor", RawRecord{Sensor: "stock_price", Value: 1.0}, ReasonUnknownSensor},
		{"humidity above 100", RawRecord{Sensor: "humidity", Value: 120.0}, ReasonOutOfRange},
		{"ph above 14", RawRecord{Sensor: "ph", Value: 15.0}, ReasonOutOfRange},
		{"excess precision", RawRecord{Sensor: "temperature", Value: "23.123456789012"}, ReasonExcessPrecision},
		{"bad timestamp", RawRecord{Sensor: "temperature", Value: 20.0, Timestamp: "not a time"}, ReasonBadTimestamp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := normalizeAndValidate(registry, tc.record, normNow)
			require.Error(t, err)
			assert.Equal(t, tc.reason, ReasonOf(err))
		})
	}
}

func TestNormalizeSensorNameFolding(t *testing.T) {
	reading, err := normalizeAndValidate(normRegistry(t), RawRecord{
		Sensor: "  Temperature ", Value: 21.0,
	}, normNow)
	require.NoError(t, err)
	assert.Equal(t, "temperature", reading.SensorType)
}

func TestReasonOfNonRejection(t *testing.T) {
	assert.Equal(t, RejectReason(""), ReasonOf(assert.AnError))
}
