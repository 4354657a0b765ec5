package ingest

import (
	"math"
	"time"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
)

// sensorBounds are hard physical limits applied after unit conversion, in
// canonical units. Stricter than (or equal to) the catalog's plausible
// range for the sensors they name.
var sensorBounds = map[string][2]float64{
	"humidity":      {0, 100},
	"soil_moisture": {0, 100},
	"ph":            {0, 14},
	"pressure":      {800, 1200},
	"pest_count":    {0, math.MaxFloat64},
	"temperature":   {-50, 70},
}

const (
	maxMagnitude  = 1e6
	maxPrecision  = 10
	defaultSource = "pipeline"
)

// normalizeAndValidate turns a raw record into a committed-shape Reading or
// a typed rejection.
func normalizeAndValidate(registry *ontology.Registry, r RawRecord, now time.Time) (models.Reading, error) {
	value, text, err := parseValue(r.Value)
	if err != nil {
		return models.Reading{}, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return models.Reading{}, reject(ReasonValueNotFinite, "value is not finite")
	}
	if fractionalDigits(text) > maxPrecision {
		return models.Reading{}, reject(ReasonExcessPrecision, "value %s has more than %d fractional digits", text, maxPrecision)
	}

	sensorType := ontology.NormalizePhrase(r.Sensor)
	desc, ok := registry.Descriptor(sensorType)
	if !ok {
		return models.Reading{}, reject(ReasonUnknownSensor, "sensor %q is not registered", r.Sensor)
	}

	ts, err := parseTimestamp(r.Timestamp, now)
	if err != nil {
		return models.Reading{}, err
	}

	converted := unitConversion(value, r.Unit, desc.Unit)
	if math.Abs(converted) > maxMagnitude {
		return models.Reading{}, reject(ReasonExtremeMagnitude, "value %g exceeds magnitude limit", converted)
	}
	if converted < desc.Range.Min || converted > desc.Range.Max {
		return models.Reading{}, reject(ReasonOutOfRange,
			"value %g outside plausible range [%g, %g] for %s", converted, desc.Range.Min, desc.Range.Max, sensorType)
	}
	if bounds, has := sensorBounds[sensorType]; has {
		if converted < bounds[0] || converted > bounds[1] {
			return models.Reading{}, reject(ReasonOutOfRange,
				"value %g outside bounds [%g, %g] for %s", converted, bounds[0], bounds[1], sensorType)
		}
	}

	return models.Reading{
		Timestamp:  ts,
		SensorType: sensorType,
		Value:      round2(converted),
		Unit:       desc.Unit,
		Source:     defaultSource,
		Raw:        encodeRaw(r),
	}, nil
}
