package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agrosense/agrosense/pkg/models"
)

// ActionHandler performs one alert action. Handlers log delivery intent;
// real channel integrations hang off this interface.
type ActionHandler func(ctx context.Context, t models.TriggeredAlert) error

// defaultHandlers covers every action the parser can emit.
func defaultHandlers() map[string]ActionHandler {
	return map[string]ActionHandler{
		"email":        logIntent("email"),
		"sms":          logIntent("sms"),
		"notification": logIntent("notification"),
		"auto":         logIntent("auto"),
		"log":          logIntent("log"),
	}
}

func logIntent(channel string) ActionHandler {
	return func(_ context.Context, t models.TriggeredAlert) error {
		slog.Info("Dispatching alert action",
			"channel", channel,
			"alert_id", t.Alert.ID,
			"sensor_type", t.Alert.SensorType,
			"severity", t.Alert.Severity,
			"value", t.Value,
			"threshold", t.Alert.Threshold,
			"message", t.Message)
		return nil
	}
}

// dispatch runs the rule's action handler and records the outcome in the
// action history. Unknown actions fall back to "log".
func (e *Evaluator) dispatch(ctx context.Context, t models.TriggeredAlert) {
	action := t.Alert.Action
	handler, ok := e.handlers[action]
	if !ok {
		action = "log"
		handler = e.handlers[action]
	}

	status := "success"
	message := t.Message
	if err := handler(ctx, t); err != nil {
		status = "failed"
		message = fmt.Sprintf("%s: %v", t.Message, err)
		slog.Error("Alert action failed", "alert_id", t.Alert.ID, "action", action, "error", err)
	}
	actionsTotal.WithLabelValues(action, status).Inc()

	entry := &models.ActionLog{
		AlertID:     t.Alert.ID,
		SessionID:   t.Alert.SessionID,
		ActionType:  action,
		Status:      status,
		Message:     message,
		Timestamp:   t.TriggeredAt,
		CompletedAt: e.nowFunc().UTC(),
	}
	if err := e.store.RecordAction(ctx, entry); err != nil {
		slog.Error("Failed to record alert action", "alert_id", t.Alert.ID, "error", err)
	}
}
