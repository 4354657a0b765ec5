package router

import (
	"context"
	"fmt"
	"time"

	"github.com/agrosense/agrosense/pkg/format"
	"github.com/agrosense/agrosense/pkg/models"
)

// handleAlert parses and stores a standing rule from natural language.
func (s *Service) handleAlert(ctx context.Context, req AskRequest, lang string) *models.QueryResult {
	spec, err := s.alertParser.ParseSpec(req.Question, req.SessionID)
	if err != nil {
		return format.ErrorResult(err, lang, nil)
	}
	if err := s.alertStore.Create(ctx, spec); err != nil {
		return format.ErrorResult(err, lang, nil)
	}

	summary := fmt.Sprintf("Alert created: %s (severity %s, action %s)",
		spec.Name, spec.Severity, spec.Action)
	if spec.TimeWindowMinutes > 0 {
		summary = fmt.Sprintf("Alert created: %s averaged over %d minutes (severity %s, action %s)",
			spec.Name, spec.TimeWindowMinutes, spec.Severity, spec.Action)
	}
	if lang == "fa" {
		summary = fmt.Sprintf("هشدار ایجاد شد: %s", spec.Name)
	}

	return &models.QueryResult{
		Success:   true,
		Summary:   summary,
		Metrics:   map[string]models.SensorMetrics{},
		RawData:   []map[string]any{},
		Chart:     []models.ChartPoint{},
		Timestamp: time.Now().UTC(),
		Validation: models.Validation{
			QueryValid:       true,
			ExecutionSuccess: true,
			SensorTypes:      []string{spec.SensorType},
		},
	}
}
