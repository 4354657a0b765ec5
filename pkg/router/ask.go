package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/format"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/sqlquery"
	"github.com/agrosense/agrosense/pkg/translate"
)

// AskRequest is one question against a session.
type AskRequest struct {
	SessionID      string
	Question       string
	FeatureContext string
	ComparisonHint bool
}

// pipelineState is the front half of a processed question: detected
// language, the translation with inherited context, and its intent.
type pipelineState struct {
	lang   string
	tr     translate.Result
	intent Intent
}

// Ask runs the full pipeline and always returns a unified result; failures
// come back as typed error results, never as a bare error.
func (s *Service) Ask(ctx context.Context, req AskRequest) *models.QueryResult {
	st, early := s.prepare(ctx, req)
	if early != nil {
		return early
	}

	var result *models.QueryResult
	switch st.intent {
	case IntentAlert:
		result = s.handleAlert(ctx, req, st.lang)
	case IntentMixed:
		result = s.handleMixed(ctx, req, st.tr, st.lang)
	default:
		result = s.runDataQuery(ctx, st.tr, req, st.lang)
	}

	s.finish(ctx, req, result)
	return result
}

// prepare runs the stages shared by Ask and AskStream: language detection,
// the denylist gate, translation, context inheritance and intent
// classification. A non-nil result short-circuits the pipeline.
func (s *Service) prepare(ctx context.Context, req AskRequest) (pipelineState, *models.QueryResult) {
	logState(req.SessionID, stateReceived)

	lang := string(translate.DetectLanguage(req.Question))
	logState(req.SessionID, stateLangDetected, "language", lang)

	// Dangerous SQL keywords in the question never reach the pipeline.
	if sqlquery.ContainsDenylisted(req.Question) {
		logState(req.SessionID, stateFailed, "reason", "denylisted_keyword")
		return pipelineState{}, format.ErrorResult(
			agrierr.New(agrierr.KindValidation, "question contains a forbidden SQL keyword"),
			lang, nil)
	}

	tr := s.translator.Translate(ctx, req.Question, req.FeatureContext, req.ComparisonHint)
	logState(req.SessionID, stateTranslated, "translated_query", tr.IR.TranslatedQuery)

	prev := s.loadContext(ctx, req.SessionID)
	logState(req.SessionID, stateContextLoaded, "has_context", prev != nil)
	s.inheritContext(&tr, prev)

	normalized := strings.ToLower(translate.NormalizeDigits(req.Question))
	intent := classifyIntent(tr.IR.TranslatedQuery, normalized, s.registry)
	logState(req.SessionID, stateIntentClassified, "intent", string(intent))
	logState(req.SessionID, stateRouted, "intent", string(intent))

	return pipelineState{lang: lang, tr: tr, intent: intent}, nil
}

// finish records the terminal state of a fully processed question. Only
// successful results reach the conversation store.
func (s *Service) finish(ctx context.Context, req AskRequest, result *models.QueryResult) {
	if result.Success {
		s.persistTurn(ctx, req, result)
		logState(req.SessionID, stateResponded, "fallback_used", result.Validation.FallbackUsed)
		return
	}
	kind := ""
	if result.Validation.ErrorDetails != nil {
		kind = result.Validation.ErrorDetails.Kind
	}
	logState(req.SessionID, stateFailed, "kind", kind)
}

// loadContext returns the IR of the most recent turn, nil when the session
// has no usable history.
func (s *Service) loadContext(ctx context.Context, sessionID string) *models.SemanticIR {
	turns, err := s.sessions.RecentTurns(ctx, sessionID, s.contextTurns)
	if err != nil {
		slog.Warn("Failed to load conversation context", "session_id", sessionID, "error", err)
		return nil
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].SemanticIR == "" {
			continue
		}
		var ir models.SemanticIR
		if err := json.Unmarshal([]byte(turns[i].SemanticIR), &ir); err == nil && len(ir.Entities) > 0 {
			return &ir
		}
	}
	return nil
}

// followupCues mark questions that lean on the previous turn.
var followupCues = []string{"what about", "how about", "and for", "same for", "چطور", "چی"}

// inheritContext fills gaps in the current IR from the previous turn: an
// unresolved entity takes the prior sensors, and a follow-up question without
// its own time expression keeps the prior window.
func (s *Service) inheritContext(tr *translate.Result, prev *models.SemanticIR) {
	if prev == nil {
		return
	}
	english := tr.IR.TranslatedQuery
	followup := containsAny(english, followupCues...)

	if tr.Mapping == ontology.MappingFallback && len(prev.Entities) > 0 {
		tr.IR.Entities = append([]string(nil), prev.Entities...)
		tr.Mapping = ontology.MappingContext
		followup = true
	}

	defaultWindow := len(tr.IR.TimeRanges) == 1 && tr.IR.TimeRanges[0] == models.DefaultRange
	if followup && defaultWindow && len(prev.TimeRanges) > 0 {
		tr.IR.TimeRanges = append([]models.RangeToken(nil), prev.TimeRanges...)
		tr.IR.Grouping = prev.Grouping
		tr.IR.TimeContext = nil
		if len(tr.IR.TimeRanges) >= 2 {
			tr.IR.Comparison = true
			tr.IR.Format = models.FormatComparison
		} else {
			tr.IR.Comparison = tr.IR.Comparison && len(tr.IR.Entities) >= 2
		}
	}
}

// persistTurn stores the completed exchange. Only fully completed pipelines
// reach here; failures leave no trace in the conversation.
func (s *Service) persistTurn(ctx context.Context, req AskRequest, result *models.QueryResult) {
	turn := models.ConversationTurn{
		SessionID: req.SessionID,
		Query:     req.Question,
		Response:  result.Summary,
		SQL:       result.SQL,
	}
	if result.Validation.SemanticJSON != nil {
		if b, err := json.Marshal(result.Validation.SemanticJSON); err == nil {
			turn.SemanticIR = string(b)
		}
	}
	if len(result.Metrics) > 0 {
		if b, err := json.Marshal(result.Metrics); err == nil {
			turn.Metrics = string(b)
		}
	}
	if len(result.Chart) > 0 {
		if b, err := json.Marshal(result.Chart); err == nil {
			turn.Chart = string(b)
		}
	}
	if err := s.sessions.AppendTurn(ctx, turn); err != nil {
		slog.Error("Failed to persist conversation turn", "session_id", req.SessionID, "error", err)
	}
}
