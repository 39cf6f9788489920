package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// ErrSessionNotFound is returned when a session lookup matches no row.
var ErrSessionNotFound = errors.New("database: session not found")

// SessionStore persists Session records (spec §3 Session).
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore returns a SessionStore backed by db.
func NewSessionStore(db *sql.DB) *SessionStore { return &SessionStore{db: db} }

// Create inserts a new session row in the pending state.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	agentConfigJSON, err := json.Marshal(session.AgentConfig)
	if err != nil {
		return fmt.Errorf("database: marshal agent_config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, task, status, max_steps, agent_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		session.ID, session.UserID, session.Task, session.Status, session.MaxSteps,
		agentConfigJSON, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("database: insert session: %w", err)
	}
	return nil
}

// Get fetches a session by id, excluding soft-deleted rows.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, task, status, max_steps, started_at, completed_at,
		       actions_count, result, title, summary, error_message, agent_config,
		       created_at, updated_at
		FROM sessions WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanSession(row)
}

// UpdateStatus transitions a session's status (e.g. active, paused,
// completed, failed, cancelled, stopped).
func (s *SessionStore) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("database: update session status: %w", err)
	}
	return requireRowAffected(result, ErrSessionNotFound)
}

// MarkStarted sets status=active and started_at=now.
func (s *SessionStore) MarkStarted(ctx context.Context, id string) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = $1, started_at = $2, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		models.SessionActive, now, id,
	)
	if err != nil {
		return fmt.Errorf("database: mark session started: %w", err)
	}
	return requireRowAffected(result, ErrSessionNotFound)
}

// Complete persists the terminal fields for a natural completion or
// replay fast-path exit.
func (s *SessionStore) Complete(ctx context.Context, id string, status models.SessionStatus, actionsCount int, result models.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("database: marshal result: %w", err)
	}
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = $1, actions_count = $2, result = $3, completed_at = $4, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL`,
		status, actionsCount, resultJSON, now, id,
	)
	if err != nil {
		return fmt.Errorf("database: complete session: %w", err)
	}
	return requireRowAffected(res, ErrSessionNotFound)
}

// Fail persists a failure outcome with the given error message.
func (s *SessionStore) Fail(ctx context.Context, id string, errMessage string) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = $1, error_message = $2, completed_at = $3, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL`,
		models.SessionFailed, errMessage, now, id,
	)
	if err != nil {
		return fmt.Errorf("database: fail session: %w", err)
	}
	return requireRowAffected(res, ErrSessionNotFound)
}

// SetSummary persists a session's title and summary. The Session Engine's
// termination sequence does not call it.
func (s *SessionStore) SetSummary(ctx context.Context, id, title, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title = $1, summary = $2, updated_at = $3 WHERE id = $4 AND deleted_at IS NULL`,
		title, summary, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("database: set session summary: %w", err)
	}
	return nil
}

// SoftDeleteOlderThan marks completed/terminal sessions older than
// retentionDays as deleted, for the retention sweep.
func (s *SessionStore) SoftDeleteOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET deleted_at = $6
		WHERE deleted_at IS NULL
		  AND status IN ($1, $2, $3, $4)
		  AND COALESCE(completed_at, created_at) < $5`,
		models.SessionCompleted, models.SessionFailed, models.SessionCancelled, models.SessionStopped,
		cutoff, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("database: soft-delete old sessions: %w", err)
	}
	return res.RowsAffected()
}

// SessionFilters narrows List's result set; zero values are unfiltered.
type SessionFilters struct {
	UserID string
	Status models.SessionStatus
	Limit  int
	Offset int
}

// List returns sessions matching filters, most recently created first,
// excluding soft-deleted rows, along with the total matching row count
// (ignoring Limit/Offset) for pagination.
func (s *SessionStore) List(ctx context.Context, filters SessionFilters) ([]models.Session, int, error) {
	where := "WHERE deleted_at IS NULL"
	args := []any{}
	if filters.UserID != "" {
		args = append(args, filters.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sessions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("database: count sessions: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, user_id, task, status, max_steps, started_at, completed_at,
		       actions_count, result, title, summary, error_message, agent_config,
		       created_at, updated_at
		FROM sessions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("database: list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		var sess models.Session
		var agentConfigJSON, resultJSON []byte
		if err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.Task, &sess.Status, &sess.MaxSteps,
			&sess.StartedAt, &sess.CompletedAt, &sess.ActionsCount, &resultJSON,
			&sess.Title, &sess.Summary, &sess.ErrorMessage, &agentConfigJSON,
			&sess.CreatedAt, &sess.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("database: scan session row: %w", err)
		}
		if len(agentConfigJSON) > 0 {
			if err := json.Unmarshal(agentConfigJSON, &sess.AgentConfig); err != nil {
				return nil, 0, fmt.Errorf("database: unmarshal agent_config: %w", err)
			}
		}
		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &sess.Result); err != nil {
				return nil, 0, fmt.Errorf("database: unmarshal result: %w", err)
			}
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("database: iterate sessions: %w", err)
	}
	return out, total, nil
}

func scanSession(row *sql.Row) (*models.Session, error) {
	var sess models.Session
	var agentConfigJSON []byte
	var resultJSON []byte

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Task, &sess.Status, &sess.MaxSteps,
		&sess.StartedAt, &sess.CompletedAt, &sess.ActionsCount, &resultJSON,
		&sess.Title, &sess.Summary, &sess.ErrorMessage, &agentConfigJSON,
		&sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database: scan session: %w", err)
	}

	if len(agentConfigJSON) > 0 {
		if err := json.Unmarshal(agentConfigJSON, &sess.AgentConfig); err != nil {
			return nil, fmt.Errorf("database: unmarshal agent_config: %w", err)
		}
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &sess.Result); err != nil {
			return nil, fmt.Errorf("database: unmarshal result: %w", err)
		}
	}
	return &sess, nil
}

func requireRowAffected(result sql.Result, notFoundErr error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database: rows affected: %w", err)
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
