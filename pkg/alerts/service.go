package alerts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
)

func newAlertID() string {
	return uuid.NewString()
}

// Service persists alert rules and their action history.
type Service struct {
	db *sql.DB
}

// NewService builds the alert store over an open database handle.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create validates and stores a new rule.
func (s *Service) Create(ctx context.Context, spec *models.AlertSpec) error {
	if err := spec.Validate(); err != nil {
		return agrierr.Wrap(err, agrierr.KindValidation, "alert spec rejected")
	}
	if spec.ID == "" {
		spec.ID = newAlertID()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_alerts
			(id, session_id, name, sensor_type, operator, threshold, severity, time_window, action, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spec.ID, spec.SessionID, spec.Name, spec.SensorType, string(spec.Operator),
		spec.Threshold, string(spec.Severity), spec.TimeWindowMinutes, spec.Action,
		boolToInt(spec.Active), database.FormatTime(spec.CreatedAt))
	if err != nil {
		return agrierr.Wrap(err, agrierr.KindInternal, "failed to store alert")
	}
	return nil
}

// Get returns one rule by id.
func (s *Service) Get(ctx context.Context, id string) (*models.AlertSpec, error) {
	row := s.db.QueryRowContext(ctx, selectAlertColumns+` WHERE id = ?`, id)
	spec, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, agrierr.New(agrierr.KindBadRequest, "alert %s not found", id)
	}
	if err != nil {
		return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to load alert")
	}
	return spec, nil
}

// List returns every rule owned by a session, newest first.
func (s *Service) List(ctx context.Context, sessionID string) ([]models.AlertSpec, error) {
	rows, err := s.db.QueryContext(ctx,
		selectAlertColumns+` WHERE session_id = ? ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to list alerts")
	}
	defer rows.Close()

	var out []models.AlertSpec
	for rows.Next() {
		spec, err := scanAlert(rows)
		if err != nil {
			return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to scan alert")
		}
		out = append(out, *spec)
	}
	return out, rows.Err()
}

// ListActive returns enabled rules for the evaluator. An empty sessionID
// covers every session; the scheduled sweep uses that, the monitor operation
// passes the caller's session.
func (s *Service) ListActive(ctx context.Context, sessionID string) ([]models.AlertSpec, error) {
	query := selectAlertColumns + ` WHERE active = 1`
	var args []any
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to list active alerts")
	}
	defer rows.Close()

	var out []models.AlertSpec
	for rows.Next() {
		spec, err := scanAlert(rows)
		if err != nil {
			return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to scan alert")
		}
		out = append(out, *spec)
	}
	return out, rows.Err()
}

// Delete removes a rule. The session must own the rule; another session's id
// comes back as not found.
func (s *Service) Delete(ctx context.Context, id, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_alerts WHERE id = ? AND session_id = ?`, id, sessionID)
	if err != nil {
		return agrierr.Wrap(err, agrierr.KindInternal, "failed to delete alert")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return agrierr.New(agrierr.KindBadRequest, "alert %s not found", id)
	}
	return nil
}

// SetActive enables or disables a rule without losing its definition. Scoped
// to the owning session like Delete.
func (s *Service) SetActive(ctx context.Context, id, sessionID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_alerts SET active = ? WHERE id = ? AND session_id = ?`,
		boolToInt(active), id, sessionID)
	if err != nil {
		return agrierr.Wrap(err, agrierr.KindInternal, "failed to update alert")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return agrierr.New(agrierr.KindBadRequest, "alert %s not found", id)
	}
	return nil
}

// RecordAction appends one entry to the action history.
func (s *Service) RecordAction(ctx context.Context, log *models.ActionLog) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO action_logs (alert_id, action_type, status, message, timestamp, completed_at, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.AlertID, log.ActionType, log.Status, log.Message,
		database.FormatTime(log.Timestamp), database.FormatTime(log.CompletedAt), log.SessionID)
	if err != nil {
		return agrierr.Wrap(err, agrierr.KindInternal, "failed to record alert action")
	}
	log.ID, _ = res.LastInsertId()
	return nil
}

// ListActions returns a session's action history, newest first.
func (s *Service) ListActions(ctx context.Context, sessionID string, limit int) ([]models.ActionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alert_id, action_type, status, COALESCE(message, ''), timestamp, COALESCE(completed_at, ''), session_id
		FROM action_logs WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to list alert actions")
	}
	defer rows.Close()

	var out []models.ActionLog
	for rows.Next() {
		var log models.ActionLog
		var ts, completed string
		if err := rows.Scan(&log.ID, &log.AlertID, &log.ActionType, &log.Status,
			&log.Message, &ts, &completed, &log.SessionID); err != nil {
			return nil, agrierr.Wrap(err, agrierr.KindInternal, "failed to scan alert action")
		}
		log.Timestamp, _ = database.ParseTime(ts)
		if completed != "" {
			log.CompletedAt, _ = database.ParseTime(completed)
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

const selectAlertColumns = `
	SELECT id, session_id, name, sensor_type, operator, threshold, severity,
	       time_window, COALESCE(action, 'log'), active, created_at
	FROM user_alerts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.AlertSpec, error) {
	var spec models.AlertSpec
	var op, severity, created string
	var active int
	if err := row.Scan(&spec.ID, &spec.SessionID, &spec.Name, &spec.SensorType,
		&op, &spec.Threshold, &severity, &spec.TimeWindowMinutes,
		&spec.Action, &active, &created); err != nil {
		return nil, err
	}
	spec.Operator = models.Operator(op)
	spec.Severity = models.Severity(severity)
	spec.Active = active != 0
	spec.CreatedAt, _ = database.ParseTime(created)
	return &spec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
