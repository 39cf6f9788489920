package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	goslack "github.com/slack-go/slack"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string

	// EscalationThreshold is the intervention count (spec §4.7
	// "Intervention") at which NotifyEscalation fires. Zero disables
	// escalation notices entirely.
	EscalationThreshold int
}

// FailureInput contains data for a session-failed escalation notice.
type FailureInput struct {
	SessionID    string
	Task         string
	ErrorMessage string
}

// EscalationInput contains data for a repeated-intervention escalation
// notice.
type EscalationInput struct {
	SessionID         string
	Task              string
	InterventionCount int
	Threshold         int
}

// Service handles Slack escalation notification delivery. Nil-safe: all
// methods are no-ops when service is nil.
type Service struct {
	client       *Client
	dashboardURL string
	threshold    int
	logger       *slog.Logger

	mu      sync.Mutex
	threads map[string]string // sessionID -> root message ts, so repeated notices for the same session thread together
}

// NewService creates a new escalation notification service. Returns nil
// if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return newService(NewClient(cfg.Token, cfg.Channel), cfg.DashboardURL, cfg.EscalationThreshold)
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string, escalationThreshold int) *Service {
	return newService(client, dashboardURL, escalationThreshold)
}

func newService(client *Client, dashboardURL string, escalationThreshold int) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		threshold:    escalationThreshold,
		logger:       slog.Default().With("component", "notify-service"),
		threads:      make(map[string]string),
	}
}

// NotifyFailure sends a session-failed escalation notice. Fail-open:
// errors are logged, never returned.
func (s *Service) NotifyFailure(ctx context.Context, input FailureInput) {
	if s == nil {
		return
	}
	blocks := BuildFailureMessage(input, s.dashboardURL)
	s.post(ctx, input.SessionID, blocks, 10*time.Second, "failure")
}

// NotifyEscalation sends a repeated-intervention escalation notice if
// interventionCount has reached the configured threshold. A threshold of
// zero disables escalation notices. Fail-open: errors are logged, never
// returned.
func (s *Service) NotifyEscalation(ctx context.Context, sessionID, task string, interventionCount int) {
	if s == nil || s.threshold <= 0 || interventionCount < s.threshold {
		return
	}
	blocks := BuildEscalationMessage(EscalationInput{
		SessionID: sessionID, Task: task, InterventionCount: interventionCount, Threshold: s.threshold,
	}, s.dashboardURL)
	s.post(ctx, sessionID, blocks, 5*time.Second, "escalation")
}

func (s *Service) post(ctx context.Context, sessionID string, blocks []goslack.Block, timeout time.Duration, kind string) {
	s.mu.Lock()
	threadTS := s.threads[sessionID]
	s.mu.Unlock()

	ts, err := s.client.PostMessage(ctx, blocks, threadTS, timeout)
	if err != nil {
		s.logger.Error("Failed to send Slack notification", "session_id", sessionID, "kind", kind, "error", err)
		return
	}
	if threadTS == "" && ts != "" {
		s.mu.Lock()
		s.threads[sessionID] = ts
		s.mu.Unlock()
	}
}
