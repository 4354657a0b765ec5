package router

import (
	"database/sql"

	"github.com/agrosense/agrosense/pkg/alerts"
	"github.com/agrosense/agrosense/pkg/format"
	"github.com/agrosense/agrosense/pkg/llm"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/session"
	"github.com/agrosense/agrosense/pkg/sqlquery"
	"github.com/agrosense/agrosense/pkg/translate"
)

// Service wires the full question-answering pipeline.
type Service struct {
	registry    *ontology.Registry
	translator  *translate.Translator
	builder     *sqlquery.Builder
	executor    *sqlquery.Executor
	formatter   *format.Formatter
	sessions    *session.Service
	alertParser *alerts.Parser
	alertStore  *alerts.Service
	llm         llm.Client

	contextTurns int
}

// Options tunes the router.
type Options struct {
	// ContextTurns is how many previous turns are loaded as conversation
	// context. Zero means the default of 10.
	ContextTurns int
}

// NewService assembles the router over an open store. llmClient may be nil;
// the pipeline degrades to its deterministic paths.
func NewService(db *sql.DB, registry *ontology.Registry, llmClient llm.Client, opts Options) *Service {
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = 10
	}
	validator := sqlquery.NewValidator(registry.Has)
	return &Service{
		registry:     registry,
		translator:   translate.New(registry, llmClient),
		builder:      sqlquery.NewBuilder(),
		executor:     sqlquery.NewExecutor(db, validator),
		formatter:    format.New(registry, llmClient),
		sessions:     session.NewService(db),
		alertParser:  alerts.NewParser(registry),
		alertStore:   alerts.NewService(db),
		llm:          llmClient,
		contextTurns: opts.ContextTurns,
	}
}

// ParseAlert parses a natural-language alert rule without storing it.
func (s *Service) ParseAlert(text, sessionID string) (*models.AlertSpec, error) {
	return s.alertParser.ParseSpec(text, sessionID)
}

// Sessions exposes the conversation store for the API layer.
func (s *Service) Sessions() *session.Service { return s.sessions }

// Alerts exposes the alert store for the API layer.
func (s *Service) Alerts() *alerts.Service { return s.alertStore }
