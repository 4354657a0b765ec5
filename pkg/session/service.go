// Package session implements the database-backed conversation store:
// per-session rolling turns used as LLM context, plus session metadata for
// the lifecycle sweeper. Restarts do not lose context and multiple workers
// share state.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
)

// Service provides conversation persistence. All writes are single-row
// inserts or idempotent upserts.
type Service struct {
	db *sql.DB
}

// NewService wraps the store pool.
func NewService(db *sql.DB) *Service {
	if db == nil {
		panic("session.NewService: db must not be nil")
	}
	return &Service{db: db}
}

// AppendTurn records a completed exchange and bumps session metadata.
// Called only after the full pipeline completed.
func (s *Service) AppendTurn(ctx context.Context, turn models.ConversationTurn) error {
	if turn.SessionID == "" {
		return fmt.Errorf("session: empty session_id")
	}
	now := time.Now().UTC()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_storage (session_id, query, response, sql, semantic_json, metrics, chart, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.SessionID, turn.Query, turn.Response, turn.SQL, turn.SemanticIR,
		turn.Metrics, turn.Chart, database.FormatTime(turn.CreatedAt))
	if err != nil {
		return fmt.Errorf("session: inserting turn: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_metadata (session_id, created_at, last_activity, is_active, total_queries)
		 VALUES (?, ?, ?, 1, 1)
		 ON CONFLICT(session_id) DO UPDATE SET
		   last_activity = excluded.last_activity,
		   is_active = 1,
		   total_queries = session_metadata.total_queries + 1`,
		turn.SessionID, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		return fmt.Errorf("session: updating metadata: %w", err)
	}
	return nil
}

// RecentTurns returns the latest k turns for a session in chronological
// order (oldest first), ready for prompt assembly.
func (s *Service) RecentTurns(ctx context.Context, sessionID string, k int) ([]models.ConversationTurn, error) {
	if k <= 0 {
		k = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, query, response, COALESCE(sql, ''), COALESCE(semantic_json, ''),
		        COALESCE(metrics, ''), COALESCE(chart, ''), created_at
		 FROM session_storage WHERE session_id = ?
		 ORDER BY id DESC LIMIT ?`, sessionID, k)
	if err != nil {
		return nil, fmt.Errorf("session: loading turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		var created string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Query, &t.Response, &t.SQL,
			&t.SemanticIR, &t.Metrics, &t.Chart, &created); err != nil {
			return nil, err
		}
		if ts, perr := database.ParseTime(created); perr == nil {
			t.CreatedAt = ts
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Metadata returns the lifecycle row for a session.
func (s *Service) Metadata(ctx context.Context, sessionID string) (models.SessionMetadata, error) {
	var m models.SessionMetadata
	var created, activity string
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, last_activity, is_active, total_queries
		 FROM session_metadata WHERE session_id = ?`, sessionID).
		Scan(&m.SessionID, &created, &activity, &active, &m.TotalQueries)
	if err != nil {
		return models.SessionMetadata{}, err
	}
	m.IsActive = active == 1
	if t, perr := database.ParseTime(created); perr == nil {
		m.CreatedAt = t
	}
	if t, perr := database.ParseTime(activity); perr == nil {
		m.LastActivity = t
	}
	return m, nil
}

// ListSessions returns session metadata ordered by most recent activity.
func (s *Service) ListSessions(ctx context.Context, limit int) ([]models.SessionMetadata, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, created_at, last_activity, is_active, total_queries
		 FROM session_metadata ORDER BY last_activity DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("session: listing sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionMetadata
	for rows.Next() {
		var m models.SessionMetadata
		var created, activity string
		var active int
		if err := rows.Scan(&m.SessionID, &created, &activity, &active, &m.TotalQueries); err != nil {
			return nil, err
		}
		m.IsActive = active == 1
		if t, perr := database.ParseTime(created); perr == nil {
			m.CreatedAt = t
		}
		if t, perr := database.ParseTime(activity); perr == nil {
			m.LastActivity = t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkInactive flags sessions idle longer than ttl. Returns the number of
// sessions flipped.
func (s *Service) MarkInactive(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := database.FormatTime(time.Now().UTC().Add(-ttl))
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_metadata SET is_active = 0 WHERE is_active = 1 AND last_activity < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: marking inactive: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOlderThan removes turns (and orphaned metadata) older than the
// retention window. Returns the number of turns removed.
func (s *Service) DeleteOlderThan(ctx context.Context, retainDays int) (int64, error) {
	cutoff := database.FormatTime(time.Now().UTC().AddDate(0, 0, -retainDays))
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM session_storage WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: deleting old turns: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_metadata WHERE last_activity < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("session: deleting old metadata: %w", err)
	}
	return res.RowsAffected()
}
