package models

import "time"

// ConversationTurn is one completed query/response exchange within a session.
// Turns are insertion-ordered per session; only the most recent k (default
// 10) are loaded as conversation context.
type ConversationTurn struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	SQL        string    `json:"sql,omitempty"`
	SemanticIR string    `json:"semantic_ir,omitempty"` // serialized SemanticIR
	Metrics    string    `json:"metrics,omitempty"`     // serialized metrics map
	Chart      string    `json:"chart,omitempty"`       // serialized chart series
	CreatedAt  time.Time `json:"created_at"`
}

// SessionMetadata tracks per-session lifecycle state used by the sweeper.
type SessionMetadata struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	IsActive     bool      `json:"is_active"`
	TotalQueries int       `json:"total_queries"`
}
