package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// EventPublisher publishes events for WebSocket delivery. Persistent events
// (see IsPersisted) are stored in the events table then broadcast via
// NOTIFY; transient events (the frame stream) are broadcast via NOTIFY only.
//
// Each public method accepts a specific typed payload struct — see
// payloads.go. Internally, payloads are marshaled to JSON and routed to the
// session's channel via persistAndNotify or notifyOnly. Publish is best
// effort toward the caller: a missing or empty room is never an error (the
// room check lives in ConnectionManager.Broadcast, not here). Persistence
// and NOTIFY failures are logged and also returned; most Session Engine call
// sites discard the returned error.
type EventPublisher struct {
	db *sql.DB
}

// NewEventPublisher creates a new EventPublisher.
// The db parameter should be the *sql.DB backing the events table.
func NewEventPublisher(db *sql.DB) *EventPublisher {
	return &EventPublisher{db: db}
}

// --- Typed public methods, one per event name in spec §4.1 ---

func (p *EventPublisher) PublishSessionStart(ctx context.Context, sessionID string, payload SessionStartPayload) error {
	return p.publish(ctx, sessionID, EventSessionStart, payload)
}

func (p *EventPublisher) PublishSessionUpdate(ctx context.Context, sessionID string, payload SessionUpdatePayload) error {
	return p.publish(ctx, sessionID, EventSessionUpdate, payload)
}

func (p *EventPublisher) PublishSessionComplete(ctx context.Context, sessionID string, payload SessionCompletePayload) error {
	return p.publish(ctx, sessionID, EventSessionComplete, payload)
}

func (p *EventPublisher) PublishSessionStopped(ctx context.Context, sessionID string, payload SessionStoppedPayload) error {
	return p.publish(ctx, sessionID, EventSessionStopped, payload)
}

func (p *EventPublisher) PublishError(ctx context.Context, sessionID string, payload ErrorPayload) error {
	return p.publish(ctx, sessionID, EventError, payload)
}

func (p *EventPublisher) PublishIntervention(ctx context.Context, sessionID string, payload InterventionPayload) error {
	return p.publish(ctx, sessionID, EventIntervention, payload)
}

func (p *EventPublisher) PublishActionLog(ctx context.Context, sessionID string, payload ActionLogPayload) error {
	return p.publish(ctx, sessionID, EventActionLog, payload)
}

func (p *EventPublisher) PublishScreenshot(ctx context.Context, sessionID string, payload ScreenshotPayload) error {
	return p.publish(ctx, sessionID, EventScreenshot, payload)
}

func (p *EventPublisher) PublishOwlVision(ctx context.Context, sessionID string, payload OwlVisionPayload) error {
	return p.publish(ctx, sessionID, EventOwlVision, payload)
}

func (p *EventPublisher) PublishClickByMark(ctx context.Context, sessionID string, payload ClickByMarkPayload) error {
	return p.publish(ctx, sessionID, EventClickByMark, payload)
}

// PublishStreamFrame broadcasts a stream_frame transient event (no DB
// persistence). High frequency — lost on disconnect, which is fine since a
// reconnecting subscriber only needs the newest frame, not the backlog.
func (p *EventPublisher) PublishStreamFrame(ctx context.Context, sessionID string, payload StreamFramePayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal StreamFramePayload: %w", err)
	}
	return p.notifyOnly(ctx, SessionChannel(sessionID), payloadJSON)
}

// PublishStreamError broadcasts a stream_error transient event (no DB
// persistence).
func (p *EventPublisher) PublishStreamError(ctx context.Context, sessionID string, payload StreamErrorPayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal StreamErrorPayload: %w", err)
	}
	return p.notifyOnly(ctx, SessionChannel(sessionID), payloadJSON)
}

// publish marshals a persisted-event payload and routes it through
// persistAndNotify, logging any failure and returning it to the caller.
func (p *EventPublisher) publish(ctx context.Context, sessionID, eventName string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventName, err)
	}
	if err := p.persistAndNotify(ctx, sessionID, SessionChannel(sessionID), payloadJSON); err != nil {
		slog.Warn("failed to publish event", "event", eventName, "session_id", sessionID, "error", err)
		return err
	}
	return nil
}

// --- Internal core methods ---

// persistAndNotify persists a pre-marshaled event to the database and
// broadcasts via NOTIFY in a single transaction (pg_notify is transactional
// — held until COMMIT).
func (p *EventPublisher) persistAndNotify(ctx context.Context, sessionID, channel string, payloadJSON []byte) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var eventID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO events (session_id, channel, payload, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		sessionID, channel, payloadJSON, time.Now(),
	).Scan(&eventID)
	if err != nil {
		return fmt.Errorf("persist event: %w", err)
	}

	notifyPayload, err := injectDBEventIDAndTruncate(payloadJSON, eventID)
	if err != nil {
		return err
	}

	// pg_notify within the same transaction — held until COMMIT.
	_, err = tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload)
	if err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event transaction: %w", err)
	}
	return nil
}

// notifyOnly broadcasts a pre-marshaled event via NOTIFY without persisting to DB.
func (p *EventPublisher) notifyOnly(ctx context.Context, channel string, payloadJSON []byte) error {
	notifyPayload, err := truncateIfNeeded(string(payloadJSON))
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload)
	if err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// --- Internal helpers ---

// injectDBEventIDAndTruncate adds dbEventId to the JSON payload for NOTIFY
// delivery and applies truncation if the result exceeds PostgreSQL's limit.
func injectDBEventIDAndTruncate(payloadJSON []byte, dbEventID int64) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(payloadJSON, &m); err != nil {
		return "", fmt.Errorf("unmarshal payload for dbEventId injection: %w", err)
	}
	m["dbEventId"] = dbEventID

	enrichedBytes, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal enriched NOTIFY payload: %w", err)
	}
	return truncateIfNeeded(string(enrichedBytes))
}

// truncateIfNeeded returns the payload string as-is if it fits within
// PostgreSQL's 8000-byte NOTIFY limit, otherwise returns a minimal
// truncation envelope with only routing fields.
func truncateIfNeeded(payloadStr string) (string, error) {
	if len(payloadStr) <= 7900 {
		return payloadStr, nil
	}
	return buildTruncatedPayload([]byte(payloadStr))
}

// buildTruncatedPayload creates a minimal truncation envelope from the full
// JSON payload bytes, extracting only the routing fields the client needs to
// fetch the complete event from the database.
func buildTruncatedPayload(payloadBytes []byte) (string, error) {
	var routing struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		DBEventID *int64 `json:"dbEventId,omitempty"`
	}
	if err := json.Unmarshal(payloadBytes, &routing); err != nil {
		return "", fmt.Errorf("extract routing fields for truncation: %w", err)
	}

	truncated := map[string]any{
		"type":      routing.Type,
		"sessionId": routing.SessionID,
		"truncated": true,
	}
	if routing.DBEventID != nil {
		truncated["dbEventId"] = *routing.DBEventID
	}

	truncBytes, err := json.Marshal(truncated)
	if err != nil {
		return "", fmt.Errorf("marshal truncated payload: %w", err)
	}
	return string(truncBytes), nil
}
