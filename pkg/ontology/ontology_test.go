package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := LoadDefault()
	require.NoError(t, err)
	return r
}

func TestLoadDefaultCatalog(t *testing.T) {
	r := testRegistry(t)

	types := r.Types()
	assert.GreaterOrEqual(t, len(types), 13)
	for _, expected := range []string{
		"temperature", "humidity", "soil_moisture", "pressure", "co2",
		"light", "ph", "water_usage", "energy_usage", "wind_speed",
		"rainfall", "pest_count", "leaf_wetness",
	} {
		assert.True(t, r.Has(expected), "catalog missing %s", expected)
	}

	assert.Equal(t, "°C", r.CanonicalUnit("temperature"))
	assert.Equal(t, "%", r.CanonicalUnit("humidity"))
	assert.Equal(t, "hPa", r.CanonicalUnit("pressure"))

	rng, ok := r.PlausibleRange("ph")
	require.True(t, ok)
	assert.Equal(t, 0.0, rng.Min)
	assert.Equal(t, 14.0, rng.Max)
}

func TestLookupSynonymTiers(t *testing.T) {
	r := testRegistry(t)

	t.Run("exact english", func(t *testing.T) {
		m, ok := r.LookupSynonym("what is the temperature right now", "en")
		require.True(t, ok)
		assert.Equal(t, "temperature", m.Type)
		assert.Equal(t, MappingExact, m.Mapping)
		assert.InDelta(t, 0.95, m.Confidence, 0.001)
	})

	t.Run("exact persian", func(t *testing.T) {
		m, ok := r.LookupSynonym("دما چقدر است", "fa")
		require.True(t, ok)
		assert.Equal(t, "temperature", m.Type)
		assert.Equal(t, MappingExact, m.Mapping)
	})

	t.Run("longer synonym wins", func(t *testing.T) {
		m, ok := r.LookupSynonym("soil moisture level today", "en")
		require.True(t, ok)
		assert.Equal(t, "soil_moisture", m.Type)
	})

	t.Run("partial prefix", func(t *testing.T) {
		m, ok := r.LookupSynonym("average temperatures this week", "en")
		require.True(t, ok)
		assert.Equal(t, "temperature", m.Type)
	})

	t.Run("word stem", func(t *testing.T) {
		m, ok := r.LookupSynonym("how dry is the soil", "en")
		require.True(t, ok)
		assert.Equal(t, "soil_moisture", m.Type)
		assert.Equal(t, MappingPartial, m.Mapping)
		assert.InDelta(t, 0.7, m.Confidence, 0.001)
	})

	t.Run("context keyword", func(t *testing.T) {
		m, ok := r.LookupSynonym("how is the climate in the greenhouse", "en")
		require.True(t, ok)
		assert.Equal(t, "temperature", m.Type)
		assert.Equal(t, MappingContext, m.Mapping)
		assert.InDelta(t, 0.6, m.Confidence, 0.001)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := r.LookupSynonym("quarterly revenue forecast", "en")
		assert.False(t, ok)
	})
}

func TestFindAllOrdersByPosition(t *testing.T) {
	r := testRegistry(t)

	found := r.FindAll("compare humidity and temperature this week", "en")
	assert.Equal(t, []string{"humidity", "temperature"}, found)

	found = r.FindAll("temperature and humidity", "en")
	assert.Equal(t, []string{"temperature", "humidity"}, found)
}

func TestFindAllDoesNotMatchInsideWords(t *testing.T) {
	r := testRegistry(t)
	assert.Empty(t, r.FindAll("phantom overlight", "en"))
}

type memoryStore struct {
	saved map[string]string // phrase -> type
	load  map[string][]SavedSynonym
}

func (m *memoryStore) SaveSynonym(phrase, sensorType, locale string) error {
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	m.saved[phrase] = sensorType
	return nil
}

func (m *memoryStore) LoadSynonyms() (map[string][]SavedSynonym, error) {
	return m.load, nil
}

func TestRegisterSynonymPersists(t *testing.T) {
	r := testRegistry(t)
	store := &memoryStore{}
	require.NoError(t, r.AttachStore(store))

	require.NoError(t, r.RegisterSynonym("greenhouse warmth", "temperature", "en"))
	assert.Equal(t, "temperature", store.saved["greenhouse warmth"])

	m, ok := r.LookupSynonym("greenhouse warmth outside", "en")
	require.True(t, ok)
	assert.Equal(t, "temperature", m.Type)
}

func TestAttachStoreLoadsSavedSynonyms(t *testing.T) {
	r := testRegistry(t)
	store := &memoryStore{load: map[string][]SavedSynonym{
		"humidity": {{Phrase: "mugginess", Locale: "en"}},
	}}
	require.NoError(t, r.AttachStore(store))

	m, ok := r.LookupSynonym("mugginess in the barn", "en")
	require.True(t, ok)
	assert.Equal(t, "humidity", m.Type)
}

func TestRegisterSynonymRejectsUnknownType(t *testing.T) {
	r := testRegistry(t)
	assert.Error(t, r.RegisterSynonym("sparkle", "glitter_level", "en"))
}

func TestNormalizePhrase(t *testing.T) {
	assert.Equal(t, "soil moisture", NormalizePhrase("  Soil   Moisture "))
	// Arabic Yeh folds to Farsi Yeh.
	assert.Equal(t, NormalizePhrase("دمای"), NormalizePhrase("دماي"))
}
