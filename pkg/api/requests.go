package api

import "github.com/codeready-toolchain/tarsy/pkg/models"

// CreateSessionHTTPRequest is the HTTP request body for POST /sessions
// (spec §6: `{task_description, agent_config?}`).
type CreateSessionHTTPRequest struct {
	TaskDescription string              `json:"task_description"`
	AgentConfig     *models.AgentConfig `json:"agent_config,omitempty"`
}

// InterveneRequest is the HTTP request body for POST /sessions/:id/intervene.
type InterveneRequest struct {
	Message string `json:"message"`
}

// ClickByMarkRequest is the HTTP request body for POST /sessions/:id/click-by-mark.
type ClickByMarkRequest struct {
	MarkID int `json:"mark_id"`
}

// CreateBrowserRequest is the HTTP request body for POST /browser/create.
// Image is stored on the record as given; when it is omitted the record's
// image is empty (no configured default is substituted).
type CreateBrowserRequest struct {
	Image string `json:"image,omitempty"`
}
