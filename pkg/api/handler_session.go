package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// createSessionHandler handles POST /sessions (spec §6).
func (s *Server) createSessionHandler(c *echo.Context) error {
	var req CreateSessionHTTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cfg := models.DefaultAgentConfig()
	if req.AgentConfig != nil {
		cfg = *req.AgentConfig
	}

	session, err := s.sessionService.CreateSession(c.Request().Context(), models.CreateSessionRequest{
		UserID:      extractUserID(c),
		Task:        req.TaskDescription,
		AgentConfig: cfg,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, session)
}

// getSessionHandler handles GET /sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	session, err := s.sessionService.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, session)
}

// listSessionsHandler handles GET /sessions.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	filters := models.SessionListFilters{
		UserID: c.QueryParam("user_id"),
		Status: models.SessionStatus(c.QueryParam("status")),
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filters.Offset = n
		}
	}

	resp, err := s.sessionService.ListSessions(c.Request().Context(), filters)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// startSessionHandler handles POST /sessions/:id/start.
func (s *Server) startSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if err := s.sessionService.StartSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusAccepted, &ActionResponse{SessionID: sessionID, Message: "session started"})
}

// pauseSessionHandler handles POST /sessions/:id/pause.
func (s *Server) pauseSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if err := s.sessionService.PauseSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &ActionResponse{SessionID: sessionID, Message: "session paused"})
}

// resumeSessionHandler handles POST /sessions/:id/resume.
func (s *Server) resumeSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if err := s.sessionService.ResumeSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &ActionResponse{SessionID: sessionID, Message: "session resumed"})
}

// cancelSessionHandler handles POST /sessions/:id/cancel.
func (s *Server) cancelSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if err := s.sessionService.CancelSession(c.Request().Context(), sessionID, true); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &CancelResponse{SessionID: sessionID, Message: "session cancellation requested"})
}

// interveneHandler handles POST /sessions/:id/intervene.
func (s *Server) interveneHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	var req InterveneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	if err := s.sessionService.Intervene(c.Request().Context(), sessionID, req.Message); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &ActionResponse{SessionID: sessionID, Message: "intervention queued"})
}

// clickByMarkHandler handles POST /sessions/:id/click-by-mark.
func (s *Server) clickByMarkHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	var req ClickByMarkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.sessionService.ClickByMark(c.Request().Context(), sessionID, req.MarkID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &ActionResponse{SessionID: sessionID, Message: "click dispatched"})
}

// listActionsHandler handles GET /sessions/:id/actions.
func (s *Server) listActionsHandler(c *echo.Context) error {
	records, err := s.actionService.ListActions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, records)
}

// listMessagesHandler handles GET /sessions/:id/messages.
func (s *Server) listMessagesHandler(c *echo.Context) error {
	messages, err := s.actionService.ListMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, messages)
}
