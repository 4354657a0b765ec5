package router

import (
	"context"
	"strings"

	"github.com/agrosense/agrosense/pkg/models"
)

// streamSteps are the progress stations emitted before the answer body.
var streamSteps = []struct {
	message  string
	progress int
}{
	{"detecting language", 10},
	{"translating question", 25},
	{"loading conversation context", 40},
	{"classifying intent", 55},
	{"running query", 75},
	{"formatting answer", 90},
}

// AskStream runs the pipeline and emits progress frames interleaved with
// token frames, then a final complete frame carrying the full result. emit
// returning false stops the stream (client gone). The conversation store is
// only updated once the whole stream has been delivered; an abandoned stream
// leaves no trace.
func (s *Service) AskStream(ctx context.Context, req AskRequest, emit func(models.StreamEvent) bool) {
	st, early := s.prepare(ctx, req)
	if early != nil {
		emit(models.StreamEvent{Step: "complete", Progress: 100, Result: early})
		return
	}

	// Alert management never streams model output: one progress frame, then
	// the completed payload.
	if st.intent == IntentAlert {
		if !emit(models.StreamEvent{Step: 1, Message: "managing alerts", Progress: 50}) {
			return
		}
		result := s.handleAlert(ctx, req, st.lang)
		s.finish(ctx, req, result)
		emit(models.StreamEvent{Step: "complete", Progress: 100, Result: result})
		return
	}

	for i, step := range streamSteps[:len(streamSteps)-1] {
		if ctx.Err() != nil {
			return
		}
		if !emit(models.StreamEvent{Step: i + 1, Message: step.message, Progress: step.progress}) {
			return
		}
	}

	result := s.runDataQuery(ctx, st.tr, req, st.lang)

	last := streamSteps[len(streamSteps)-1]
	if !emit(models.StreamEvent{Step: len(streamSteps), Message: last.message, Progress: last.progress}) {
		return
	}

	if st.intent == IntentMixed && result.Success {
		// Narrative tokens arrive live from the model; the summary is final
		// only once that stream has drained.
		if !s.streamNarrative(ctx, req.Question, result, emit) {
			return
		}
	} else if !streamWords(ctx, result.Summary, emit) {
		return
	}

	s.finish(ctx, req, result)
	emit(models.StreamEvent{Step: "complete", Progress: 100, Result: result})
}

// streamWords replays a finished summary as token frames so clients can
// render progressively.
func streamWords(ctx context.Context, summary string, emit func(models.StreamEvent) bool) bool {
	var accumulated strings.Builder
	for _, word := range strings.Fields(summary) {
		if ctx.Err() != nil {
			return false
		}
		if accumulated.Len() > 0 {
			accumulated.WriteString(" ")
		}
		accumulated.WriteString(word)
		if !emit(models.StreamEvent{Token: word + " ", Accumulated: accumulated.String()}) {
			return false
		}
	}
	return true
}
