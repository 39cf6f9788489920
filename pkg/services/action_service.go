package services

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// ActionService reads the append-only Action Record log for a session,
// and projects it into the conversational view GET /sessions/{id}/messages
// returns. Thin wrapper over database.ActionStore, matching the
// teacher's services split of one narrow Store per entity.
type ActionService struct {
	actions *database.ActionStore
}

// NewActionService creates a new ActionService.
func NewActionService(actions *database.ActionStore) *ActionService {
	return &ActionService{actions: actions}
}

// ListActions returns every Action Record for sessionID in step order.
func (s *ActionService) ListActions(ctx context.Context, sessionID string) ([]models.ActionRecord, error) {
	records, err := s.actions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list action records: %w", err)
	}
	return records, nil
}

// ListMessages derives a chat-style transcript from sessionID's Action
// Records: each step's goal becomes an "agent" message, each recorded
// intervention (action_type "intervene") becomes a "user" message. See
// DESIGN.md's "pkg/services" entry for why this is a view rather than a
// separately persisted chat_messages table.
func (s *ActionService) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	records, err := s.ListActions(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messages := make([]models.ChatMessage, 0, len(records))
	for _, rec := range records {
		role := "agent"
		content := rec.Metadata.Goal
		if rec.ActionType == "intervene" {
			role = "user"
			content = rec.Metadata.Memory
		}
		messages = append(messages, models.ChatMessage{Step: rec.Step, Role: role, Content: content})
	}
	return messages, nil
}
