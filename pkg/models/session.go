// Package models defines the shared data shapes owned by the Session
// Execution Engine: sessions, action records, cached plans, marked
// elements, frames, and step telemetry. Persistence is out of scope for
// this package — see pkg/database for the storage-layer implementations
// of the Store interfaces these types are built around.
package models

import "time"

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

// Session lifecycle states, per the state machine:
// pending → active → {paused ↔ active} → {completed|failed|cancelled|stopped}.
const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
	SessionStopped   SessionStatus = "stopped"
)

// Terminal reports whether status is one from which no further transition
// is possible.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionCancelled, SessionStopped:
		return true
	default:
		return false
	}
}

// AgentConfig is the per-session override of engine defaults, set at
// session creation (spec §6 "agent_config.*").
type AgentConfig struct {
	MaxSteps        int  `json:"maxSteps"`
	EnableOwlVision bool `json:"enableOwlVision"`
}

// DefaultAgentConfig returns the documented defaults (maxSteps=50,
// enableOwlVision=true).
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{MaxSteps: 50, EnableOwlVision: true}
}

// Result is the free-form terminal payload attached to a session on
// completion (e.g. {"success":true,"method":"replay"}).
type Result map[string]any

// Session is the top-level unit of work: a natural-language task bound to
// a user, driven through the browser by the Agent loop.
type Session struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Task          string        `json:"task"`
	Status        SessionStatus `json:"status"`
	MaxSteps      int           `json:"max_steps"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	ActionsCount  int           `json:"actions_count"`
	Result        Result        `json:"result,omitempty"`
	Title         string        `json:"title,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	AgentConfig   AgentConfig   `json:"agent_config"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateSessionRequest is the validated input to SessionService.CreateSession
// (spec §6 POST /sessions).
type CreateSessionRequest struct {
	UserID      string      `json:"user_id"`
	Task        string      `json:"task"`
	AgentConfig AgentConfig `json:"agent_config"`
}

// SessionListFilters narrows SessionService.ListSessions's result set; zero
// values are unfiltered.
type SessionListFilters struct {
	UserID string
	Status SessionStatus
	Limit  int
	Offset int
}

// SessionListResponse is the paginated result of SessionService.ListSessions.
type SessionListResponse struct {
	Sessions   []Session `json:"sessions"`
	TotalCount int       `json:"total_count"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
}

// ChatMessage is a conversational view of one Agent step, derived from
// its Action Record for the GET /sessions/{id}/messages endpoint (spec
// §6) — this workspace has no separate chat_messages table; see
// DESIGN.md's "pkg/services" entry for why the view is derived rather
// than separately persisted.
type ChatMessage struct {
	Step    int    `json:"step"`
	Role    string `json:"role"` // "agent" or "user" (an Intervention)
	Content string `json:"content"`
}
