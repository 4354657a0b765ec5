// Package api exposes the HTTP surface: query and streaming endpoints,
// ingestion, alert CRUD, session inspection, the sensor catalog, health, and
// Prometheus metrics.
package api

import (
	"github.com/agrosense/agrosense/pkg/ingest"
	"github.com/agrosense/agrosense/pkg/models"
)

// QueryRequest is the body of POST /api/v1/query and its streaming variant.
type QueryRequest struct {
	SessionID      string `json:"session_id" binding:"required"`
	Query          string `json:"query" binding:"required"`
	FeatureContext string `json:"feature_context,omitempty"`
	ComparisonMode bool   `json:"comparison_mode,omitempty"`
}

// IngestRequest accepts one record or a batch.
type IngestRequest struct {
	Records []ingest.RawRecord `json:"records"`
}

// RejectionDetail explains one rejected record.
type RejectionDetail struct {
	Index  int    `json:"index"`
	Sensor string `json:"sensor"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// IngestResponse summarizes a batch submission.
type IngestResponse struct {
	Accepted int               `json:"accepted"`
	Rejected []RejectionDetail `json:"rejected"`
}

// AlertCreateRequest creates a rule either from natural language or from a
// structured spec. Text wins when both are present.
type AlertCreateRequest struct {
	SessionID string            `json:"session_id" binding:"required"`
	Text      string            `json:"text,omitempty"`
	Spec      *models.AlertSpec `json:"spec,omitempty"`
}

// AlertActiveRequest toggles a rule.
type AlertActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SessionDetail is the metadata plus recent turns of one session.
type SessionDetail struct {
	Metadata models.SessionMetadata    `json:"metadata"`
	Turns    []models.ConversationTurn `json:"turns"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
