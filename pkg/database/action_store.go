package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// ActionStore persists the append-only Action Record log for a session
// (spec §3 Action Record). Records are never mutated once written.
type ActionStore struct {
	db *sql.DB
}

// NewActionStore returns an ActionStore backed by db.
func NewActionStore(db *sql.DB) *ActionStore { return &ActionStore{db: db} }

// Append inserts one Action Record, returning its assigned id.
func (s *ActionStore) Append(ctx context.Context, record *models.ActionRecord) (int64, error) {
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return 0, fmt.Errorf("database: marshal action metadata: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO action_records
			(session_id, step, action_type, target_description, target_selector,
			 input_value, output_value, success, duration_ms, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		record.SessionID, record.Step, record.ActionType, record.TargetDescription,
		record.TargetSelector, record.InputValue, record.OutputValue, record.Success,
		record.DurationMs, metadataJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("database: append action record: %w", err)
	}
	return id, nil
}

// ListBySession returns every Action Record for sessionID in step order.
func (s *ActionStore) ListBySession(ctx context.Context, sessionID string) ([]models.ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, step, action_type, target_description, target_selector,
		       input_value, output_value, success, duration_ms, metadata
		FROM action_records
		WHERE session_id = $1
		ORDER BY step ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("database: list action records: %w", err)
	}
	defer rows.Close()

	var records []models.ActionRecord
	for rows.Next() {
		var rec models.ActionRecord
		var metadataJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.Step, &rec.ActionType, &rec.TargetDescription,
			&rec.TargetSelector, &rec.InputValue, &rec.OutputValue, &rec.Success,
			&rec.DurationMs, &metadataJSON,
		); err != nil {
			return nil, fmt.Errorf("database: scan action record: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("database: unmarshal action metadata: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
