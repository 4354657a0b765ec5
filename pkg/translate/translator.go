package translate

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/agrosense/agrosense/pkg/llm"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
)

// translationSystemPrompt carries the fixed few-shot examples for Persian
// translation. Time expressions and comparison cues must survive verbatim.
const translationSystemPrompt = `You translate Persian questions about farm sensors into plain English.
Keep time expressions and comparison words exact. Output only the translation.

Examples:
Q: دمای فعلی چقدر است؟
A: what is the current temperature
Q: میانگین رطوبت سه روز اخیر
A: average humidity last 3 days
Q: مقایسه رطوبت خاک این هفته با هفته گذشته
A: compare soil moisture this week vs last week
Q: حداکثر دما دیروز چند بود؟
A: what was the maximum temperature yesterday`

// Result is the translator's full output: the IR plus how the entity was
// resolved.
type Result struct {
	IR      models.SemanticIR
	Mapping ontology.MappingType
}

// Translator turns free-form questions into validated semantic IR.
type Translator struct {
	registry *ontology.Registry
	llm      llm.Client // nil disables LLM assistance
	nowFunc  func() time.Time
}

// New builds a translator. llmClient may be nil; every LLM use has a
// deterministic fallback.
func New(registry *ontology.Registry, llmClient llm.Client) *Translator {
	return &Translator{registry: registry, llm: llmClient, nowFunc: time.Now}
}

// NewAt pins the clock for tests.
func NewAt(registry *ontology.Registry, llmClient llm.Client, now func() time.Time) *Translator {
	return &Translator{registry: registry, llm: llmClient, nowFunc: now}
}

// Translate maps a question to semantic IR. It never fails outright: when
// the emitted IR does not validate, the minimal fallback IR is returned with
// its reason annotated.
func (t *Translator) Translate(ctx context.Context, query, featureContext string, comparisonHint bool) Result {
	lang := DetectLanguage(query)

	english := strings.ToLower(strings.TrimSpace(query))
	if lang == LangPersian {
		english = t.toEnglish(ctx, query)
	}

	now := t.nowFunc().UTC()
	parsed := ParseTime(english, now)
	comparison := comparisonHint || DetectComparison(english, len(parsed.Tokens))

	entities, mapping := t.resolveEntities(ctx, english, query, lang, featureContext)
	aggregation := detectAggregation(english, parsed.Found)
	format := detectFormat(english, comparison)

	ir := models.SemanticIR{
		Entities:        entities,
		Aggregation:     aggregation,
		TimeRanges:      parsed.Tokens,
		Grouping:        deriveGrouping(aggregation, parsed),
		Format:          format,
		Comparison:      comparison,
		TimeContext:     parsed.Context,
		Language:        string(lang),
		TranslatedQuery: english,
	}

	if comparison {
		if len(entities) >= 2 && len(parsed.Tokens) < 2 {
			// Entity-vs-entity comparison over one window: no range
			// expansion needed.
			ir.Format = models.FormatComparison
		} else {
			ir.TimeRanges = ExpandComparison(parsed.Tokens)
			ir.Grouping = ComparisonGrouping(ir.TimeRanges, parsed.Granularity)
			ir.Format = models.FormatComparison
			ir.TimeContext = nil
		}
		if ir.Aggregation == models.AggCurrent {
			ir.Aggregation = models.AggAverage
		}
	}

	if err := ir.Validate(); err != nil {
		slog.Warn("IR validation failed, using minimal fallback", "error", err, "query", query)
		fallbackEntity := ontology.FallbackSensor
		if len(entities) > 0 {
			fallbackEntity = entities[0]
		}
		minimal := models.MinimalIR(fallbackEntity, err.Error())
		minimal.Language = string(lang)
		minimal.TranslatedQuery = english
		return Result{IR: minimal, Mapping: mapping}
	}
	return Result{IR: ir, Mapping: mapping}
}

// toEnglish renders Persian into canonical English: LLM first, word
// substitution on failure.
func (t *Translator) toEnglish(ctx context.Context, query string) string {
	if t.llm != nil {
		out, err := t.llm.Chat(ctx, translationSystemPrompt, "Q: "+query+"\nA:")
		if err == nil && out != "" {
			return strings.ToLower(strings.TrimSpace(out))
		}
		slog.Warn("LLM translation unavailable, using substitution table", "error", err)
	}
	return strings.ToLower(FallbackTranslate(query))
}

// resolveEntities finds every canonical sensor mentioned; falls through the
// lookup tiers, then the LLM, then the fallback sensor.
func (t *Translator) resolveEntities(ctx context.Context, english, original string, lang Language, featureContext string) ([]string, ontology.MappingType) {
	if found := t.registry.FindAll(english, "en"); len(found) > 0 {
		return found, ontology.MappingExact
	}
	if lang == LangPersian {
		if found := t.registry.FindAll(original, "fa"); len(found) > 0 {
			return found, ontology.MappingExact
		}
	}
	if m, ok := t.registry.LookupSynonym(english, "en"); ok {
		return []string{m.Type}, m.Mapping
	}
	if featureContext != "" {
		if m, ok := t.registry.LookupSynonym(featureContext, "en"); ok {
			return []string{m.Type}, ontology.MappingFeatureBias
		}
	}
	if m, ok := t.mapWithLLM(ctx, english, lang); ok {
		return []string{m.Type}, m.Mapping
	}
	return []string{ontology.FallbackSensor}, ontology.MappingFallback
}

// nowPattern matches "now" only as its own word; "know" or "snow" are not
// requests for the latest reading.
var nowPattern = regexp.MustCompile(`\bnow\b`)

func detectAggregation(english string, timeFound bool) models.Aggregation {
	switch {
	case containsAny(english, "average", "avg", "mean"):
		return models.AggAverage
	case containsAny(english, "maximum", "highest", "peak", "max "):
		return models.AggMax
	case containsAny(english, "minimum", "lowest", "min "):
		return models.AggMin
	case containsAny(english, "how many", "number of", "count of"):
		return models.AggCount
	case containsAny(english, "current", "latest") || nowPattern.MatchString(english):
		return models.AggCurrent
	}
	if timeFound {
		return models.AggAverage
	}
	return models.AggCurrent
}

func detectFormat(english string, comparison bool) models.Format {
	switch {
	case comparison:
		return models.FormatComparison
	case containsAny(english, "distribution", "histogram", "pie", "share"):
		return models.FormatDistribution
	case containsAny(english, "trend", "over time", "chart", "graph", "plot"):
		return models.FormatTrend
	}
	return models.FormatValue
}

// deriveGrouping buckets aggregated queries by the parsed granularity;
// point lookups stay ungrouped.
func deriveGrouping(agg models.Aggregation, parsed ParsedTime) models.Grouping {
	if agg == models.AggCurrent {
		return models.GroupNone
	}
	g := parsed.Granularity.Grouping()
	if g == models.GroupNone {
		return models.GroupHour
	}
	return g
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
