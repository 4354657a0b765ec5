package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/translate"
)

const mixedSystemPrompt = `You are an agronomy assistant. Given sensor readings and a farmer's
question, answer with exactly these four sections, each on its own lines:
Summary:
Data:
Analysis:
Recommendations:
Use only the numbers provided. Answer in the same language as the question.`

// handleMixed answers advice questions: the data pipeline runs first, then
// the narrative is layered on top. Without an LLM the sections are filled
// from the catalog's plausible ranges.
func (s *Service) handleMixed(ctx context.Context, req AskRequest, tr translate.Result, lang string) *models.QueryResult {
	result := s.runDataQuery(ctx, tr, req, lang)
	if !result.Success {
		return result
	}

	digest := metricsDigest(result)
	if s.llm != nil {
		prompt := fmt.Sprintf("Question: %s\nReadings:\n%s", req.Question, digest)
		narrative, err := s.llm.Chat(ctx, mixedSystemPrompt, prompt)
		if err == nil && hasNarrativeSections(narrative) {
			result.Summary = strings.TrimSpace(narrative)
			return result
		}
		slog.Warn("LLM narrative unavailable, using catalog analysis", "error", err)
	}

	result.Summary = s.catalogNarrative(result, digest)
	return result
}

// streamNarrative layers the advice narrative onto a successful data result,
// forwarding model tokens as they arrive. The summary is replaced only after
// the whole narrative has streamed; a cancelled or abandoned stream discards
// the partial text. Returns false when the client went away.
func (s *Service) streamNarrative(ctx context.Context, question string, result *models.QueryResult, emit func(models.StreamEvent) bool) bool {
	digest := metricsDigest(result)
	if s.llm != nil {
		prompt := fmt.Sprintf("Question: %s\nReadings:\n%s", question, digest)
		tokens, errs := s.llm.ChatStream(ctx, mixedSystemPrompt, prompt)
		var accumulated strings.Builder
		for tok := range tokens {
			accumulated.WriteString(tok)
			if !emit(models.StreamEvent{Step: 4, Token: tok, Accumulated: accumulated.String(), Progress: 95}) {
				return false
			}
		}
		err := <-errs
		if bailoutKind(err) != nil {
			return false
		}
		if err == nil && hasNarrativeSections(accumulated.String()) {
			result.Summary = strings.TrimSpace(accumulated.String())
			return true
		}
		slog.Warn("LLM narrative stream unavailable, using catalog analysis", "error", err)
	}

	result.Summary = s.catalogNarrative(result, digest)
	return streamWords(ctx, result.Summary, emit)
}

// hasNarrativeSections verifies the fixed section headers survived.
func hasNarrativeSections(s string) bool {
	for _, h := range []string{"Summary:", "Data:", "Analysis:", "Recommendations:"} {
		if !strings.Contains(s, h) {
			return false
		}
	}
	return true
}

// catalogNarrative is the deterministic narrative: readings are judged
// against the catalog's plausible ranges.
func (s *Service) catalogNarrative(result *models.QueryResult, digest string) string {
	var analysis, recs []string
	for _, sensor := range sortedMetricKeys(result.Metrics) {
		m := result.Metrics[sensor]
		v, ok := representativeValue(m)
		if !ok {
			continue
		}
		r, found := s.registry.PlausibleRange(sensor)
		if !found {
			continue
		}
		switch {
		case v < r.Min || v > r.Max:
			analysis = append(analysis, fmt.Sprintf("%s reads %.2f, outside the plausible range %.0f..%.0f", sensor, v, r.Min, r.Max))
			recs = append(recs, fmt.Sprintf("inspect the %s sensor; the reading is not physically plausible", sensor))
		case v > r.Avg*1.2:
			analysis = append(analysis, fmt.Sprintf("%s reads %.2f, above the typical %.1f", sensor, v, r.Avg))
			recs = append(recs, fmt.Sprintf("monitor %s; it is running high", sensor))
		case v < r.Avg*0.8:
			analysis = append(analysis, fmt.Sprintf("%s reads %.2f, below the typical %.1f", sensor, v, r.Avg))
			recs = append(recs, fmt.Sprintf("monitor %s; it is running low", sensor))
		default:
			analysis = append(analysis, fmt.Sprintf("%s reads %.2f, near the typical %.1f", sensor, v, r.Avg))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "conditions look normal; keep the current regimen")
	}

	return fmt.Sprintf("Summary:\n%s\nData:\n%s\nAnalysis:\n- %s\nRecommendations:\n- %s",
		result.Summary, digest,
		strings.Join(analysis, "\n- "),
		strings.Join(recs, "\n- "))
}

func metricsDigest(result *models.QueryResult) string {
	var lines []string
	for _, sensor := range sortedMetricKeys(result.Metrics) {
		m := result.Metrics[sensor]
		var parts []string
		if m.Latest != nil {
			parts = append(parts, fmt.Sprintf("latest %.2f", *m.Latest))
		}
		if m.Average != nil {
			parts = append(parts, fmt.Sprintf("avg %.2f", *m.Average))
		}
		if m.Min != nil && m.Max != nil {
			parts = append(parts, fmt.Sprintf("range %.2f..%.2f", *m.Min, *m.Max))
		}
		parts = append(parts, fmt.Sprintf("%d readings", m.Count))
		unit := m.Unit
		if unit != "" {
			unit = " " + unit
		}
		lines = append(lines, fmt.Sprintf("- %s%s: %s", sensor, unit, strings.Join(parts, ", ")))
	}
	if len(lines) == 0 {
		return "- no readings available"
	}
	return strings.Join(lines, "\n")
}

func sortedMetricKeys(metrics map[string]models.SensorMetrics) []string {
	out := make([]string, 0, len(metrics))
	for s := range metrics {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func representativeValue(m models.SensorMetrics) (float64, bool) {
	switch {
	case m.Latest != nil:
		return *m.Latest, true
	case m.Average != nil:
		return *m.Average, true
	}
	return 0, false
}
