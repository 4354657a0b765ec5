// Package router is the query front door: it classifies intent, drives the
// translate/build/validate/execute pipeline with its fallback ladder, runs
// alert management requests, and persists completed turns.
package router

import "log/slog"

// state names the stations a query passes through. Every transition is
// logged with the session id so a slow or failed query can be traced.
type state string

const (
	stateReceived         state = "received"
	stateLangDetected     state = "lang_detected"
	stateTranslated       state = "translated"
	stateContextLoaded    state = "context_loaded"
	stateIntentClassified state = "intent_classified"
	stateRouted           state = "routed"
	stateResponded        state = "responded"
	stateFailed           state = "failed"
)

func logState(sessionID string, s state, attrs ...any) {
	args := append([]any{"session_id", sessionID, "state", string(s)}, attrs...)
	slog.Debug("Query pipeline transition", args...)
}
