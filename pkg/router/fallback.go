package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/format"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/sqlquery"
	"github.com/agrosense/agrosense/pkg/translate"
)

// runDataQuery drives the fallback ladder: the primary compiled query, then
// a relaxed IR, then a restricted LLM-written SELECT, and finally the latest
// raw rows. The first attempt that yields data wins; the ladder position is
// reported as fallback_used.
func (s *Service) runDataQuery(ctx context.Context, tr translate.Result, req AskRequest, lang string) *models.QueryResult {
	ir := tr.IR
	input := format.Input{
		IR:             &ir,
		Language:       lang,
		Question:       req.Question,
		FeatureContext: req.FeatureContext,
		Mapping:        tr.Mapping,
	}

	// Primary path.
	q, err := s.builder.Build(ir)
	if err == nil {
		rs, execErr := s.executor.Execute(ctx, q)
		if execErr == nil && !rs.Empty() {
			input.Query, input.Result = q, rs
			return s.formatter.Format(ctx, input)
		}
		err = execErr
	}
	if bail := bailoutKind(err); bail != nil {
		return format.ErrorResult(bail, lang, &ir)
	}
	if err != nil {
		slog.Info("Primary query yielded nothing, relaxing", "session_id", req.SessionID, "error", err)
	}

	// Fallback 1: drop the grouping and comparison structure.
	relaxed := relaxIR(ir)
	if q, rerr := s.builder.Build(relaxed); rerr == nil {
		if rs, execErr := s.executor.Execute(ctx, q); execErr == nil && !rs.Empty() {
			input.IR = &relaxed
			input.Query, input.Result = q, rs
			input.FallbackUsed = 1
			return s.formatter.Format(ctx, input)
		} else if bail := bailoutKind(execErr); bail != nil {
			return format.ErrorResult(bail, lang, &relaxed)
		}
	}

	// Fallback 2: restricted LLM-generated SELECT, same validator.
	if q, ok := s.llmFallbackSQL(ctx, req.Question, ir); ok {
		if rs, execErr := s.executor.Execute(ctx, q); execErr == nil && !rs.Empty() {
			input.IR = &ir
			input.Query, input.Result = q, rs
			input.FallbackUsed = 2
			input.RefinedByLLM = true
			return s.formatter.Format(ctx, input)
		} else if bail := bailoutKind(execErr); bail != nil {
			return format.ErrorResult(bail, lang, &ir)
		}
	}

	// Fallback 3: latest raw rows.
	final := sqlquery.LatestRows()
	rs, execErr := s.executor.Execute(ctx, final)
	input.IR = &ir
	input.Query = final
	input.FallbackUsed = 3
	if execErr == nil && !rs.Empty() {
		input.Result = rs
		return s.formatter.Format(ctx, input)
	}
	if bail := bailoutKind(execErr); bail != nil {
		return format.ErrorResult(bail, lang, &ir)
	}
	if execErr != nil {
		return format.ErrorResult(execErr, lang, &ir)
	}

	// The store has nothing at all: a failed result naming what was asked.
	result := format.ErrorResult(
		agrierr.New(agrierr.KindEmptyResult, "no rows after exhausting fallbacks"), lang, &ir)
	result.Validation.FallbackUsed = 3
	if lang != "fa" && len(ir.Entities) > 0 {
		result.Summary = fmt.Sprintf("No %s data was found for %s.",
			strings.Join(ir.Entities, ", "), rangeText(ir))
	}
	return result
}

// rangeText renders the asked window for the empty-store message.
func rangeText(ir models.SemanticIR) string {
	if len(ir.TimeRanges) == 0 {
		return "the requested period"
	}
	labels := make([]string, len(ir.TimeRanges))
	for i, r := range ir.TimeRanges {
		labels[i] = strings.ReplaceAll(string(r), "_", " ")
	}
	return strings.Join(labels, " vs ")
}

// bailoutKind returns the error when retrying is pointless (cancelled or
// timed out); nil otherwise.
func bailoutKind(err error) error {
	if err == nil {
		return nil
	}
	switch agrierr.KindOf(err) {
	case agrierr.KindCancelled, agrierr.KindTimeout:
		return err
	}
	return nil
}

// relaxIR loosens an IR that found no data: grouping is dropped, an average
// demotes to the latest reading, a multi-entity set reduces to its first
// element. The requested window is kept.
func relaxIR(ir models.SemanticIR) models.SemanticIR {
	relaxed := ir
	if len(relaxed.Entities) > 1 {
		relaxed.Entities = relaxed.Entities[:1]
	}
	if relaxed.Aggregation == models.AggAverage {
		relaxed.Aggregation = models.AggCurrent
	}
	relaxed.Grouping = models.GroupNone
	relaxed.Format = models.FormatValue
	relaxed.Comparison = false
	return relaxed
}

const fallbackSQLPrompt = `You write one SQLite SELECT statement over this table:
sensor_data(ts TEXT, sensor_type TEXT, value REAL, unit TEXT)
Rules: SELECT only, single statement, no semicolon, filter sensor_type with a
quoted literal from the allowed list, timestamps are 'YYYY-MM-DD HH:MM:SS'
strings. Output the SQL only.`

// llmFallbackSQL asks the LLM for a restricted SELECT when the compiled
// query found nothing. The answer passes through the same validator as
// compiled SQL; anything outside the allow-list is discarded.
func (s *Service) llmFallbackSQL(ctx context.Context, question string, ir models.SemanticIR) (sqlquery.Query, bool) {
	if s.llm == nil {
		return sqlquery.Query{}, false
	}
	prompt := fmt.Sprintf("Allowed sensor types: %s\nQuestion: %s\nSemantic reading: entities=%v aggregation=%s ranges=%v",
		strings.Join(s.registry.Types(), ", "), question, ir.Entities, ir.Aggregation, ir.TimeRanges)

	answer, err := s.llm.Chat(ctx, fallbackSQLPrompt, prompt)
	if err != nil {
		slog.Warn("LLM SQL fallback unavailable", "error", err)
		return sqlquery.Query{}, false
	}
	sqlText := stripFence(answer)
	if sqlText == "" {
		return sqlquery.Query{}, false
	}
	return sqlquery.Query{SQL: sqlText}, true
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}
