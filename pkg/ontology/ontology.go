// Package ontology implements the canonical sensor catalog: multilingual
// synonyms, canonical units, plausible physical ranges, and runtime synonym
// registration. The registry is read-mostly; writes are serialized behind a
// mutex.
package ontology

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Range is the closed interval of plausible values for a sensor, with a
// representative average.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
	Avg float64 `yaml:"avg" json:"avg"`
}

// Descriptor is one canonical sensor entry.
type Descriptor struct {
	Type        string              `yaml:"type" json:"type"`
	Unit        string              `yaml:"unit" json:"unit"`
	Range       Range               `yaml:"range" json:"range"`
	Description string              `yaml:"description" json:"description"`
	Synonyms    map[string][]string `yaml:"synonyms" json:"synonyms"` // locale -> phrases
}

// MappingType identifies which lookup tier resolved a phrase.
type MappingType string

const (
	MappingExact       MappingType = "exact"
	MappingPartial     MappingType = "partial"
	MappingContext     MappingType = "context"
	MappingHeuristic   MappingType = "heuristic"
	MappingFeatureBias MappingType = "feature_bias"
	MappingLLM         MappingType = "llm"
	MappingFallback    MappingType = "fallback"
)

// Match is the outcome of a synonym lookup.
type Match struct {
	Type       string      `json:"type"`
	Mapping    MappingType `json:"mapping"`
	Confidence float64     `json:"confidence"`
}

// FallbackSensor is returned when no tier (including the LLM) can resolve a
// phrase.
const FallbackSensor = "temperature"

// contextKeywords resolve domain words that are not full synonyms on their
// own. Checked after exact and partial tiers.
var contextKeywords = map[string]string{
	"soil":    "soil_moisture",
	"خاک":     "soil_moisture",
	"wind":    "wind_speed",
	"باد":     "wind_speed",
	"rain":    "rainfall",
	"باران":   "rainfall",
	"water":   "water_usage",
	"آب":      "water_usage",
	"energy":  "energy_usage",
	"power":   "energy_usage",
	"برق":     "energy_usage",
	"light":   "light",
	"lux":     "light",
	"نور":     "light",
	"carbon":  "co2",
	"کربن":    "co2",
	"pest":    "pest_count",
	"insect":  "pest_count",
	"آفت":     "pest_count",
	"acid":    "ph",
	"leaf":    "leaf_wetness",
	"برگ":     "leaf_wetness",
	"باروم":   "pressure",
	"climate": "temperature",
}

// Registry holds the sensor catalog. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byType map[string]*Descriptor
	order  []string // registration order, breaks lookup ties

	persist SynonymStore // optional, may be nil
}

// SynonymStore persists runtime-discovered synonyms across restarts.
type SynonymStore interface {
	SaveSynonym(phrase, sensorType, locale string) error
	LoadSynonyms() (map[string][]SavedSynonym, error) // sensorType -> synonyms
}

// SavedSynonym is one persisted synonym row.
type SavedSynonym struct {
	Phrase string
	Locale string
}

// NewRegistry builds a registry from descriptors. Duplicate canonical types
// are rejected.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{byType: make(map[string]*Descriptor, len(descriptors))}
	for i := range descriptors {
		d := descriptors[i]
		if d.Type == "" {
			return nil, fmt.Errorf("ontology: descriptor %d has empty type", i)
		}
		if _, dup := r.byType[d.Type]; dup {
			return nil, fmt.Errorf("ontology: duplicate canonical type %q", d.Type)
		}
		if d.Synonyms == nil {
			d.Synonyms = map[string][]string{}
		}
		for locale, phrases := range d.Synonyms {
			for j, p := range phrases {
				phrases[j] = NormalizePhrase(p)
			}
			d.Synonyms[locale] = phrases
		}
		r.byType[d.Type] = &d
		r.order = append(r.order, d.Type)
	}
	return r, nil
}

// AttachStore wires synonym persistence and loads previously saved synonyms.
func (r *Registry) AttachStore(store SynonymStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist = store
	saved, err := store.LoadSynonyms()
	if err != nil {
		return fmt.Errorf("ontology: loading persisted synonyms: %w", err)
	}
	for sensorType, synonyms := range saved {
		d, ok := r.byType[sensorType]
		if !ok {
			continue
		}
		for _, s := range synonyms {
			d.Synonyms[s.Locale] = appendUnique(d.Synonyms[s.Locale], NormalizePhrase(s.Phrase))
		}
	}
	return nil
}

// Types returns the canonical type set in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether a canonical type is registered.
func (r *Registry) Has(sensorType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byType[sensorType]
	return ok
}

// Descriptor returns the catalog entry for a canonical type.
func (r *Registry) Descriptor(sensorType string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[sensorType]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Descriptors returns the full catalog in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, *r.byType[t])
	}
	return out
}

// CanonicalUnit returns the canonical unit string for a type, or "" when the
// type is unknown.
func (r *Registry) CanonicalUnit(sensorType string) string {
	d, ok := r.Descriptor(sensorType)
	if !ok {
		return ""
	}
	return d.Unit
}

// PlausibleRange returns the physical range for a type.
func (r *Registry) PlausibleRange(sensorType string) (Range, bool) {
	d, ok := r.Descriptor(sensorType)
	if !ok {
		return Range{}, false
	}
	return d.Range, true
}

// LookupSynonym resolves a free phrase to a canonical type. Tiers, in order:
// exact containment against the requested locale, exact containment against
// English, word-level partial match (minimum token length 3), then context
// keywords. Longer matches win; ties break on locale match, then on
// registration order. Returns ok=false when no tier resolves the phrase (the
// LLM tier is the caller's responsibility).
func (r *Registry) LookupSynonym(phrase, locale string) (Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	norm := NormalizePhrase(phrase)
	if norm == "" {
		return Match{}, false
	}

	if m, ok := r.exactMatch(norm, locale); ok {
		return m, true
	}
	if locale != "en" {
		if m, ok := r.exactMatch(norm, "en"); ok {
			return m, true
		}
	}
	if m, ok := r.partialMatch(norm); ok {
		return m, true
	}
	for _, word := range strings.Fields(norm) {
		if t, ok := contextKeywords[word]; ok {
			if _, registered := r.byType[t]; registered {
				return Match{Type: t, Mapping: MappingContext, Confidence: 0.6}, true
			}
		}
	}
	return Match{}, false
}

// FindAll returns every canonical type mentioned in the phrase, ordered by
// position of the first match. Used for compound queries.
func (r *Registry) FindAll(phrase, locale string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	norm := NormalizePhrase(phrase)
	type hit struct {
		sensorType string
		pos        int
	}
	var hits []hit
	seen := map[string]bool{}
	for _, t := range r.order {
		d := r.byType[t]
		best := -1
		for _, loc := range []string{locale, "en"} {
			for _, syn := range d.Synonyms[loc] {
				if pos := indexWord(norm, syn); pos >= 0 && (best < 0 || pos < best) {
					best = pos
				}
			}
		}
		if best >= 0 && !seen[t] {
			seen[t] = true
			hits = append(hits, hit{t, best})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.sensorType
	}
	return out
}

// RegisterSynonym adds a runtime-discovered synonym and persists it when a
// store is attached.
func (r *Registry) RegisterSynonym(phrase, sensorType, locale string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byType[sensorType]
	if !ok {
		return fmt.Errorf("ontology: unknown canonical type %q", sensorType)
	}
	norm := NormalizePhrase(phrase)
	if norm == "" {
		return fmt.Errorf("ontology: empty synonym phrase")
	}
	d.Synonyms[locale] = appendUnique(d.Synonyms[locale], norm)
	if r.persist != nil {
		if err := r.persist.SaveSynonym(norm, sensorType, locale); err != nil {
			return fmt.Errorf("ontology: persisting synonym: %w", err)
		}
	}
	return nil
}

func (r *Registry) exactMatch(phrase, locale string) (Match, bool) {
	bestLen := 0
	var best string
	for _, t := range r.order {
		for _, syn := range r.byType[t].Synonyms[locale] {
			if len(syn) <= bestLen {
				continue
			}
			if phrase == syn || indexWord(phrase, syn) >= 0 {
				best = t
				bestLen = len(syn)
			}
		}
	}
	if bestLen == 0 {
		return Match{}, false
	}
	return Match{Type: best, Mapping: MappingExact, Confidence: 0.95}, true
}

func (r *Registry) partialMatch(phrase string) (Match, bool) {
	words := strings.Fields(phrase)
	bestLen := 0
	var best string
	for _, t := range r.order {
		d := r.byType[t]
		for _, syns := range d.Synonyms {
			for _, syn := range syns {
				for _, sw := range strings.Fields(syn) {
					if len(sw) < 3 {
						continue
					}
					for _, w := range words {
						if len(w) < 3 {
							continue
						}
						if (strings.HasPrefix(w, sw) || strings.HasPrefix(sw, w)) && len(sw) > bestLen {
							best = t
							bestLen = len(sw)
						}
					}
				}
			}
		}
	}
	if bestLen == 0 {
		return Match{}, false
	}
	return Match{Type: best, Mapping: MappingPartial, Confidence: 0.7}, true
}

// indexWord finds sub in s at word boundaries; -1 when absent.
func indexWord(s, sub string) int {
	if sub == "" {
		return -1
	}
	start := 0
	for {
		i := strings.Index(s[start:], sub)
		if i < 0 {
			return -1
		}
		i += start
		leftOK := i == 0 || s[i-1] == ' '
		right := i + len(sub)
		rightOK := right == len(s) || s[right] == ' '
		if leftOK && rightOK {
			return i
		}
		start = i + 1
		if start >= len(s) {
			return -1
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// NormalizePhrase folds case, collapses whitespace, strips sentence
// punctuation, and normalizes the Arabic-script variants that appear in
// Persian user input (Arabic Yeh/Kaf, zero-width non-joiner).
func NormalizePhrase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"ي", "ی", // Arabic Yeh -> Farsi Yeh
		"ك", "ک", // Arabic Kaf -> Keheh
		"‌", " ", // ZWNJ -> space
		"ـ", "", // Tatweel
		"?", " ", "؟", " ", "!", " ", ".", " ", ",", " ", "،", " ",
	)
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
