package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
)

// DefaultSuppression is how long a rule stays quiet after firing.
const DefaultSuppression = 5 * time.Minute

// Evaluator checks active rules against live sensor data on a fixed tick.
type Evaluator struct {
	db       *sql.DB
	store    *Service
	handlers map[string]ActionHandler
	suppress time.Duration
	nowFunc  func() time.Time

	mu        sync.Mutex
	lastFired map[string]time.Time // (session_id, alert_id) key
}

// NewEvaluator wires the evaluator over the alert store. A suppress duration
// of zero uses the default.
func NewEvaluator(db *sql.DB, store *Service, suppress time.Duration) *Evaluator {
	if suppress <= 0 {
		suppress = DefaultSuppression
	}
	return &Evaluator{
		db:        db,
		store:     store,
		handlers:  defaultHandlers(),
		suppress:  suppress,
		nowFunc:   time.Now,
		lastFired: make(map[string]time.Time),
	}
}

// SetClock pins the evaluator's clock for tests.
func (e *Evaluator) SetClock(now func() time.Time) {
	e.nowFunc = now
}

// Monitor evaluates active rules once and dispatches actions for those that
// matched outside their suppression window. It returns the matches that
// actually fired. sessionID scopes the pass to one session's rules; the
// scheduled sweep passes "" to cover all of them.
func (e *Evaluator) Monitor(ctx context.Context, sessionID string) ([]models.TriggeredAlert, error) {
	specs, err := e.store.ListActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var fired []models.TriggeredAlert
	for i := range specs {
		spec := specs[i]
		value, observed, err := e.observe(ctx, &spec)
		if err != nil {
			if agrierr.KindOf(err) != agrierr.KindEmptyResult {
				slog.Warn("Alert evaluation failed", "alert_id", spec.ID, "error", err)
			}
			continue
		}
		if !spec.Operator.Apply(value, spec.Threshold) {
			continue
		}

		now := e.nowFunc().UTC()
		if e.suppressed(spec.SessionID, spec.ID, now) {
			suppressedTotal.Inc()
			continue
		}

		t := models.TriggeredAlert{
			Alert:       spec,
			Value:       value,
			Observed:    observed,
			TriggeredAt: now,
			Message: fmt.Sprintf("%s is %.2f, %s threshold %s %.2f",
				spec.SensorType, value, string(spec.Severity), string(spec.Operator), spec.Threshold),
		}
		triggeredTotal.WithLabelValues(string(spec.Severity)).Inc()
		e.dispatch(ctx, t)
		fired = append(fired, t)
	}
	return fired, nil
}

// observe reads the value a rule compares against: the latest point, or the
// window average when the rule carries a time window.
func (e *Evaluator) observe(ctx context.Context, spec *models.AlertSpec) (float64, time.Time, error) {
	if spec.TimeWindowMinutes == 0 {
		var value float64
		var ts string
		err := e.db.QueryRowContext(ctx, `
			SELECT value, ts FROM sensor_data
			WHERE sensor_type = ? ORDER BY ts DESC LIMIT 1`, spec.SensorType).Scan(&value, &ts)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, time.Time{}, agrierr.New(agrierr.KindEmptyResult,
				"no readings for %s", spec.SensorType)
		}
		if err != nil {
			return 0, time.Time{}, agrierr.Wrap(err, agrierr.KindExecution, "failed to read latest value")
		}
		observed, _ := database.ParseTime(ts)
		return value, observed, nil
	}

	since := e.nowFunc().UTC().Add(-time.Duration(spec.TimeWindowMinutes) * time.Minute)
	var avg sql.NullFloat64
	var n int
	err := e.db.QueryRowContext(ctx, `
		SELECT AVG(value), COUNT(*) FROM sensor_data
		WHERE sensor_type = ? AND ts >= ?`,
		spec.SensorType, database.FormatTime(since)).Scan(&avg, &n)
	if err != nil {
		return 0, time.Time{}, agrierr.Wrap(err, agrierr.KindExecution, "failed to read window average")
	}
	if n == 0 || !avg.Valid {
		return 0, time.Time{}, agrierr.New(agrierr.KindEmptyResult,
			"no readings for %s in the last %d minutes", spec.SensorType, spec.TimeWindowMinutes)
	}
	return avg.Float64, e.nowFunc().UTC(), nil
}

// suppressed reports whether the rule fired within its quiet window, marking
// the fire time when it did not.
func (e *Evaluator) suppressed(sessionID, alertID string, now time.Time) bool {
	key := sessionID + "/" + alertID
	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.lastFired[key]; ok && now.Sub(last) < e.suppress {
		return true
	}
	e.lastFired[key] = now
	return false
}
