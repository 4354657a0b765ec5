package format

import (
	"context"
	"time"

	"github.com/agrosense/agrosense/pkg/llm"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/sqlquery"
)

// Input carries everything the pipeline produced for one question.
type Input struct {
	IR             *models.SemanticIR
	Query          sqlquery.Query
	Result         *sqlquery.ResultSet
	Language       string
	Question       string // original user text, for chart cue detection
	FeatureContext string
	Mapping        ontology.MappingType
	FallbackUsed   int
	RefinedByLLM   bool
}

// Formatter assembles unified results. The LLM is optional; everything it
// contributes has a deterministic fallback.
type Formatter struct {
	registry *ontology.Registry
	llm      llm.Client
	nowFunc  func() time.Time
}

// New builds a formatter. llmClient may be nil.
func New(registry *ontology.Registry, llmClient llm.Client) *Formatter {
	return &Formatter{registry: registry, llm: llmClient, nowFunc: time.Now}
}

// NewAt pins the clock for tests.
func NewAt(registry *ontology.Registry, llmClient llm.Client, now func() time.Time) *Formatter {
	return &Formatter{registry: registry, llm: llmClient, nowFunc: now}
}

// Format assembles the unified success result. An empty result set is still a
// success: the summary says so plainly and no figures are fabricated.
func (f *Formatter) Format(ctx context.Context, in Input) *models.QueryResult {
	now := f.nowFunc().UTC()

	result := &models.QueryResult{
		Success:         true,
		Metrics:         map[string]models.SensorMetrics{},
		RawData:         []map[string]any{},
		Chart:           []models.ChartPoint{},
		SQL:             in.Query.String(),
		TranslatedQuery: in.IR.TranslatedQuery,
		FeatureContext:  in.FeatureContext,
		Timestamp:       now,
		Validation: models.Validation{
			QueryValid:       true,
			ExecutionSuccess: true,
			SensorTypes:      []string{},
			Mapping:          string(in.Mapping),
			FallbackUsed:     in.FallbackUsed,
			RefinedByLLM:     in.RefinedByLLM,
			SemanticJSON:     in.IR,
		},
	}

	chartRequested, chartType := DetectChart(in.IR.TranslatedQuery, in.Question, in.IR)
	result.Validation.ChartRequested = chartRequested

	if in.Result == nil || in.Result.Empty() {
		if in.Language == "fa" {
			result.Summary = errorCatalog[kindEmpty].fa
		} else {
			result.Summary = errorCatalog[kindEmpty].en
		}
		result.Validation.ErrorDetails = &models.ErrorDetails{
			Kind:      string(kindEmpty),
			Message:   errorCatalog[kindEmpty].en,
			MessageFa: errorCatalog[kindEmpty].fa,
		}
		return result
	}

	result.RawData = in.Result.Rows
	result.Validation.DataPoints = len(in.Result.Rows)
	result.Validation.SensorTypes = sensorsOf(in.Result)
	result.Metrics = ExtractMetrics(in.Result, f.registry)

	if in.IR.Comparison {
		result.Comparison = BuildComparison(in.Result, in.Query.RangeLabels, now)
	}

	if chartRequested {
		points, meta := BuildChart(in.Result, in.IR, f.registry)
		if len(points) > 0 {
			result.Chart = points
			result.ChartType = chartType
			result.ChartMetadata = meta
		}
	}

	result.Summary = f.summarize(ctx, in.IR, result.Metrics, result.Comparison, in.Language)
	return result
}
