package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/engine"
	"github.com/codeready-toolchain/tarsy/pkg/models"
	"github.com/google/uuid"
)

// SessionService manages Session lifecycle: creation, lookup, listing,
// and delegating start/pause/resume/cancel/intervene/click-by-mark to
// the Session Engine. Thin wrapper, matching the teacher's
// services.SessionService split over one ent.Client generalized to one
// *database.SessionStore + one *engine.Engine.
type SessionService struct {
	sessions *database.SessionStore
	engine   *engine.Engine
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions *database.SessionStore, eng *engine.Engine) *SessionService {
	return &SessionService{sessions: sessions, engine: eng}
}

// CreateSession validates req and persists a new pending session.
func (s *SessionService) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	if req.Task == "" {
		return nil, NewValidationError("task", "required")
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	cfg := req.AgentConfig
	if cfg.MaxSteps == 0 {
		cfg = models.DefaultAgentConfig()
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	session := &models.Session{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Task:        req.Task,
		Status:      models.SessionPending,
		MaxSteps:    cfg.MaxSteps,
		AgentConfig: cfg,
		CreatedAt:   time.Now(),
	}
	if err := s.sessions.Create(writeCtx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by id.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if err == database.ErrSessionNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions lists sessions with filtering and pagination.
func (s *SessionService) ListSessions(ctx context.Context, filters models.SessionListFilters) (*models.SessionListResponse, error) {
	rows, total, err := s.sessions.List(ctx, database.SessionFilters{
		UserID: filters.UserID, Status: filters.Status, Limit: filters.Limit, Offset: filters.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	return &models.SessionListResponse{Sessions: rows, TotalCount: total, Limit: limit, Offset: filters.Offset}, nil
}

// StartSession transitions a pending session to active and kicks off
// the Session Engine's Agent loop (spec §4.7 "Start sequence").
func (s *SessionService) StartSession(ctx context.Context, sessionID string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.engine.Start(ctx, session)
}

func (s *SessionService) PauseSession(ctx context.Context, sessionID string) error {
	return s.engine.Pause(ctx, sessionID)
}

func (s *SessionService) ResumeSession(ctx context.Context, sessionID string) error {
	return s.engine.Resume(ctx, sessionID)
}

// CancelSession requests cooperative cancellation. userStop distinguishes
// an explicit user-driven stop (status=stopped) from any other
// cancellation (status=cancelled), per spec §4.7.
func (s *SessionService) CancelSession(ctx context.Context, sessionID string, userStop bool) error {
	return s.engine.Cancel(ctx, sessionID, userStop)
}

func (s *SessionService) Intervene(ctx context.Context, sessionID, message string) error {
	return s.engine.Intervene(ctx, sessionID, message)
}

func (s *SessionService) ClickByMark(ctx context.Context, sessionID string, markID int) error {
	return s.engine.ClickByMark(ctx, sessionID, markID)
}

// SoftDeleteOldSessions soft-deletes terminal sessions older than
// retentionDays, for the retention sweep (pkg/cleanup).
func (s *SessionService) SoftDeleteOldSessions(ctx context.Context, retentionDays int) (int64, error) {
	writeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.sessions.SoftDeleteOlderThan(writeCtx, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to soft-delete old sessions: %w", err)
	}
	return count, nil
}
