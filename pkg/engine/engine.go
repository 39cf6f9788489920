package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/agent"
	"github.com/codeready-toolchain/tarsy/pkg/browser"
	"github.com/codeready-toolchain/tarsy/pkg/cache"
	"github.com/codeready-toolchain/tarsy/pkg/cdp"
	"github.com/codeready-toolchain/tarsy/pkg/config"
	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/events"
	"github.com/codeready-toolchain/tarsy/pkg/framepump"
	"github.com/codeready-toolchain/tarsy/pkg/masking"
	"github.com/codeready-toolchain/tarsy/pkg/models"
	"github.com/codeready-toolchain/tarsy/pkg/notify"
	"github.com/codeready-toolchain/tarsy/pkg/vision"
)

// cdpReadyTimeout is the fixed page-readiness timeout spec §5 "Timeouts"
// names; terminationBudget bounds the termination sequence's cache and
// persistence calls.
const (
	cdpReadyTimeout   = 15 * time.Second
	terminationBudget = 5 * time.Second
)

// completionPhrase lines used in the system prompt; kept here (rather than
// in pkg/agent) since only the engine composes the full prompt text.
const systemPromptTemplate = `You are a browser automation agent. Your task: %s

On every turn, respond with these tagged lines, in order:
GOAL: <the next immediate goal>
EVALUATION: <how the previous action went, or "task completed" / "goal achieved" once the task is fully done>
MEMORY: <anything worth remembering for later steps>

Then, if more work remains, call exactly one tool. If the task is complete, respond with the tagged lines only and no tool call.`

// Dependencies bundles everything the Engine needs that is shared across
// all sessions (config, stores, publisher, Frame Pump, Registry).
type Dependencies struct {
	Config        *config.Config
	Sessions      *database.SessionStore
	Actions       *database.ActionStore
	Cache         *cache.ActionCache
	Events        *events.EventPublisher
	Pump          *framepump.Pump
	Registry      *Registry
	HTTPClient    *http.Client
	NewLLMClient  func(ctx context.Context, cfg *config.Config) (agent.LLMClient, error)
	NewDetector   func() (vision.Detector, vision.Detector, bool) // primary, fallback, enabled
	CDPBaseURL    string
	LLMBackend    config.LLMBackend
	Masking       *masking.Service
	Notify        *notify.Service
}

// Engine drives sessions from pending to a terminal state (spec §4.7).
type Engine struct {
	deps Dependencies
}

// New returns an Engine using deps. HTTPClient and CDPBaseURL default to a
// plain http.Client and "http://127.0.0.1:9222" respectively when zero.
func New(deps Dependencies) *Engine {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: cdpReadyTimeout}
	}
	if deps.CDPBaseURL == "" {
		deps.CDPBaseURL = "http://127.0.0.1:9222"
	}
	if deps.Masking == nil {
		deps.Masking = masking.NewService()
	}
	return &Engine{deps: deps}
}

// Start launches session's Agent loop in the background (spec §4.7 "Start
// sequence"). It returns once the session is registered as running;
// completion is asynchronous and observed via events and the persisted
// Session row.
func (e *Engine) Start(ctx context.Context, session *models.Session) error {
	if session.Task == "" {
		return fmt.Errorf("engine: task is required")
	}
	runCtx, cancel := context.WithCancel(context.Background())
	e.deps.Registry.Register(session.ID, nil, cancel)

	if err := e.deps.Sessions.MarkStarted(ctx, session.ID); err != nil {
		cancel()
		e.deps.Registry.Unregister(session.ID)
		return fmt.Errorf("mark session started: %w", err)
	}

	maxSteps := session.MaxSteps
	if maxSteps == 0 {
		maxSteps = models.DefaultAgentConfig().MaxSteps
	}
	_ = e.deps.Events.PublishSessionStart(ctx, session.ID, events.SessionStartPayload{
		Type: string(events.EventSessionStart), SessionID: session.ID, Status: "active",
		MaxSteps: maxSteps, Timestamp: nowRFC3339(),
	})

	go e.run(runCtx, session, maxSteps)
	return nil
}

// Pause marks a session paused: no new Agent steps are initiated, but the
// in-flight step completes (spec §4.7 "active→paused"). Implemented as a
// status update only; the running loop observes status via Sessions.Get
// at the top of each iteration.
func (e *Engine) Pause(ctx context.Context, sessionID string) error {
	return e.deps.Sessions.UpdateStatus(ctx, sessionID, models.SessionPaused)
}

// Resume reverts a paused session back to active so its Agent loop
// continues stepping.
func (e *Engine) Resume(ctx context.Context, sessionID string) error {
	return e.deps.Sessions.UpdateStatus(ctx, sessionID, models.SessionActive)
}

// Cancel requests cooperative termination of sessionID's Agent loop
// (spec §5 "Cancellation"). userStop selects the status/event pair used
// at termination: stopped for an explicit user stop, cancelled otherwise.
func (e *Engine) Cancel(ctx context.Context, sessionID string, userStop bool) error {
	status := models.SessionCancelled
	if userStop {
		status = models.SessionStopped
	}
	if !e.deps.Registry.RequestStop(sessionID, status) {
		return fmt.Errorf("engine: session %s is not running", sessionID)
	}
	return nil
}

// Intervene appends message as a new task on sessionID's running Agent and
// publishes an intervention event (spec §4.7 "Intervention").
func (e *Engine) Intervene(ctx context.Context, sessionID, message string) error {
	if err := e.deps.Registry.Intervene(sessionID, message); err != nil {
		return err
	}
	if _, err := e.deps.Actions.Append(ctx, &models.ActionRecord{
		SessionID: sessionID, Step: e.deps.Registry.currentStep(sessionID), ActionType: "intervene", Success: true,
		Metadata: models.ActionMetadata{Memory: message, Action: "intervene"},
	}); err != nil {
		slog.Warn("persist intervention record failed", "session_id", sessionID, "error", err)
	}

	if count := e.deps.Registry.IncrementIntervention(sessionID); count > 0 && e.deps.Notify != nil {
		task := ""
		if session, err := e.deps.Sessions.Get(ctx, sessionID); err == nil {
			task = session.Task
		}
		e.deps.Notify.NotifyEscalation(ctx, sessionID, task, count)
	}

	return e.deps.Events.PublishIntervention(ctx, sessionID, events.InterventionPayload{
		Type: string(events.EventIntervention), SessionID: sessionID, Message: message, Timestamp: nowRFC3339(),
	})
}

// ClickByMark resolves markID against sessionID's current Vision marks and
// dispatches a click at the resolved coordinates (spec §4.7 "Click-by-
// mark").
func (e *Engine) ClickByMark(ctx context.Context, sessionID string, markID int) error {
	grounder, client, ok := e.deps.Registry.grounderFor(sessionID)
	if !ok {
		return fmt.Errorf("engine: session %s is not running", sessionID)
	}
	if grounder == nil || client == nil {
		return fmt.Errorf("engine: vision unavailable for session %s", sessionID)
	}
	point, err := grounder.Resolve(markID)
	if err != nil {
		return err
	}
	dispatcher := browser.NewDispatcher(client)
	if err := dispatcher.Click(ctx, point.X, point.Y, browser.MouseButtonLeft, 1); err != nil {
		return err
	}
	return e.deps.Events.PublishClickByMark(ctx, sessionID, events.ClickByMarkPayload{
		Type: string(events.EventClickByMark), SessionID: sessionID, MarkID: markID,
		CenterX: point.X, CenterY: point.Y, Timestamp: nowRFC3339(),
	})
}

// run is the full per-session lifecycle: cache-hit fast path, browser
// start sequence, Agent loop, and termination. It always runs the
// termination sequence exactly once, regardless of how the session ends.
func (e *Engine) run(ctx context.Context, session *models.Session, maxSteps int) {
	var (
		client    *cdp.Client
		outcome   models.SessionStatus
		errMsg    string
		result    models.Result
		cacheable []models.CachedAction
		step      int
	)

	defer func() {
		e.terminate(session.ID, client, outcome, errMsg, result, step, cacheable, session.Task)
	}()

	// Cache-hit fast path (spec §4.7 "Cache-hit fast path").
	if plan, err := e.deps.Cache.Get(ctx, session.Task, "about:blank"); err == nil && plan != nil && len(plan.Actions) > 0 {
		if ok := e.tryReplay(ctx, session, plan); ok {
			outcome = models.SessionCompleted
			result = models.Result{"success": true, "method": "replay"}
			step = len(plan.Actions)
			return
		}
		// Replay failure: proceed to the Agent loop without caching, per spec.
	}

	var err error
	client, err = e.connectBrowser(ctx)
	if err != nil {
		outcome, errMsg = models.SessionFailed, err.Error()
		_ = e.deps.Events.PublishError(ctx, session.ID, events.ErrorPayload{
			Type: string(events.EventError), SessionID: session.ID, Message: errMsg, Timestamp: nowRFC3339(),
		})
		return
	}
	e.deps.Registry.SetBrowser(session.ID, client)

	surface := browser.NewSurface(client)
	dispatcher := browser.NewDispatcher(client)
	e.deps.Pump.Start(ctx, session.ID, client, surface)

	var grounder *vision.Grounder
	if session.AgentConfig.EnableOwlVision && e.deps.NewDetector != nil {
		if primary, fallback, enabled := e.deps.NewDetector(); enabled {
			grounder = vision.New(primary, fallback)
			e.deps.Registry.SetGrounder(session.ID, grounder)
		}
	}

	currentURL := "about:blank" // best-effort; updated as navigate/click results report one
	tools := NewBrowserToolExecutor(surface, dispatcher, func() *vision.Grounder { return grounder }, func() string { return currentURL })

	llmClient, err := e.deps.NewLLMClient(ctx, e.deps.Config)
	if err != nil {
		outcome, errMsg = models.SessionFailed, fmt.Errorf("construct LLM client: %w", err).Error()
		return
	}
	defer llmClient.Close()

	var llmConfig *config.LLMProviderConfig
	if e.deps.Config != nil && e.deps.Config.Defaults != nil && e.deps.Config.Defaults.LLMProvider != "" {
		llmConfig, _ = e.deps.Config.GetLLMProvider(e.deps.Config.Defaults.LLMProvider)
	}
	backend := e.deps.LLMBackend
	if backend == "" {
		backend = config.LLMBackendNativeGemini
	}

	execCtx := &agent.ExecutionContext{
		SessionID: session.ID, Task: session.Task, MaxSteps: maxSteps,
		LLMClient: llmClient, ToolExecutor: tools, LLMConfig: llmConfig, Backend: backend,
	}
	a := agent.NewReActAgent(execCtx, fmt.Sprintf(systemPromptTemplate, session.Task))
	e.deps.Registry.SetAgent(session.ID, a)

	for step = 1; step <= maxSteps; step++ {
		e.deps.Registry.SetStep(session.ID, step)
		if stopped, status := e.deps.Registry.StopRequested(session.ID); stopped {
			outcome = status
			return
		}

		current, getErr := e.deps.Sessions.Get(ctx, session.ID)
		if getErr == nil && current.Status == models.SessionPaused {
			for current != nil && current.Status == models.SessionPaused {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-ctx.Done():
					if _, status := e.deps.Registry.StopRequested(session.ID); status != "" {
						outcome = status
					} else {
						outcome = models.SessionCancelled
					}
					return
				}
				current, _ = e.deps.Sessions.Get(ctx, session.ID)
			}
		}

		obs, stepOutcome, stepErr := a.Step(ctx)
		if stepErr != nil {
			outcome, errMsg = models.SessionFailed, stepErr.Error()
			_ = e.deps.Events.PublishError(ctx, session.ID, events.ErrorPayload{
				Type: string(events.EventError), SessionID: session.ID, Message: errMsg, Timestamp: nowRFC3339(),
			})
			return
		}

		if obs.URL != "" {
			currentURL = obs.URL
		}

		maskedInput := e.deps.Masking.MaskValue(obs.InputValue, obs.TargetSelector)
		maskedOutput := e.deps.Masking.MaskValue(obs.OutputValue, obs.TargetSelector)

		if _, err := e.deps.Actions.Append(ctx, &models.ActionRecord{
			SessionID: session.ID, Step: step, ActionType: obs.Action, Success: true,
			TargetSelector: obs.TargetSelector, InputValue: maskedInput, OutputValue: maskedOutput,
			Metadata: models.ActionMetadata{Goal: obs.Goal, Evaluation: obs.Evaluation, Memory: obs.Memory, Result: obs.Result, URL: obs.URL, Action: obs.Action},
		}); err != nil {
			slog.Warn("persist action record failed", "session_id", session.ID, "step", step, "error", err)
		}

		e.publishStepEvents(ctx, session.ID, step, maxSteps, obs, surface, grounder)

		if ca, ok := cacheableFromObservation(obs); ok {
			cacheable = append(cacheable, ca)
		}

		switch stepOutcome {
		case agent.Stop:
			outcome = models.SessionCompleted
			result = models.Result{"success": true, "final_result": obs.Result}
			return
		case agent.Cancel:
			if _, status := e.deps.Registry.StopRequested(session.ID); status != "" {
				outcome = status
			} else {
				outcome = models.SessionCancelled
			}
			return
		}
	}

	// max_steps exhausted without a Stop outcome: still a natural
	// completion, not a failure.
	outcome = models.SessionCompleted
	result = models.Result{"success": true, "final_result": "max_steps reached"}
}

// publishStepEvents runs the per-step screenshot/vision pipeline and emits
// action_log / session_update (and, when enabled, screenshot / owl_vision)
// events (spec §4.7 "Agent loop" steps 5-7).
func (e *Engine) publishStepEvents(ctx context.Context, sessionID string, step, maxSteps int, obs agent.StepObservation, surface *browser.Surface, grounder *vision.Grounder) {
	shot, err := captureScreenshot(ctx, surface)
	if err != nil {
		slog.Warn("screenshot capture failed", "session_id", sessionID, "step", step, "error", err)
	} else if len(shot) > 0 {
		if grounder != nil {
			if vr, err := grounder.Run(ctx, shot); err == nil {
				_ = e.deps.Events.PublishScreenshot(ctx, sessionID, events.ScreenshotPayload{
					Type: string(events.EventScreenshot), SessionID: sessionID, Step: step,
					ImageBase64: base64.StdEncoding.EncodeToString(shot), Timestamp: nowRFC3339(),
				})
				_ = e.deps.Events.PublishOwlVision(ctx, sessionID, events.OwlVisionPayload{
					Type: string(events.EventOwlVision), SessionID: sessionID, Step: step,
					AnnotatedImageBase64: vr.AnnotatedImageBase64, Marks: toMarkPayloads(vr.Marks),
					MarksCount: len(vr.Marks), Description: vr.Description, Timestamp: nowRFC3339(),
				})
			} else {
				slog.Warn("vision grounding failed", "session_id", sessionID, "step", step, "error", err)
			}
		} else {
			_ = e.deps.Events.PublishScreenshot(ctx, sessionID, events.ScreenshotPayload{
				Type: string(events.EventScreenshot), SessionID: sessionID, Step: step,
				ImageBase64: base64.StdEncoding.EncodeToString(shot), Timestamp: nowRFC3339(),
			})
		}
	}

	_ = e.deps.Events.PublishActionLog(ctx, sessionID, events.ActionLogPayload{
		Type: string(events.EventActionLog), SessionID: sessionID, Step: step,
		Goal: obs.Goal, Action: obs.Action, Result: obs.Result, Evaluation: obs.Evaluation,
		Memory: obs.Memory, URL: obs.URL, Timestamp: nowRFC3339(),
	})
	_ = e.deps.Events.PublishSessionUpdate(ctx, sessionID, events.SessionUpdatePayload{
		Type: string(events.EventSessionUpdate), SessionID: sessionID,
		Message: fmt.Sprintf("step %d/%d: %s", step, maxSteps, obs.Goal), Timestamp: nowRFC3339(),
	})
}

func toMarkPayloads(marks []models.MarkedElement) []events.MarkPayload {
	out := make([]events.MarkPayload, len(marks))
	for i, m := range marks {
		out[i] = events.MarkPayload{
			MarkID: m.MarkID, ElementType: m.ElementType, CenterX: m.Center.X, CenterY: m.Center.Y,
			Text: m.Text, Confidence: m.Confidence,
		}
	}
	return out
}

// tryReplay runs the cached plan's low-level actions against a freshly
// connected browser. Returns true on full success.
func (e *Engine) tryReplay(ctx context.Context, session *models.Session, plan *models.CachedPlan) bool {
	_ = e.deps.Events.PublishSessionUpdate(ctx, session.ID, events.SessionUpdatePayload{
		Type: string(events.EventSessionUpdate), SessionID: session.ID,
		Message: "Instant Replay: reusing a cached action plan", Timestamp: nowRFC3339(),
	})

	client, err := e.connectBrowser(ctx)
	if err != nil {
		return false
	}
	defer client.Close()
	e.deps.Registry.SetBrowser(session.ID, client)

	dispatcher := browser.NewDispatcher(client)
	if err := browser.Replay(ctx, dispatcher, plan.Actions); err != nil {
		slog.Warn("cached plan replay failed, falling back to Agent loop", "session_id", session.ID, "error", err)
		return false
	}
	return true
}

// connectBrowser implements spec §4.7 "Start sequence" steps 3-4: probe
// CDP readiness, then discover the page-level DevTools WebSocket URL.
func (e *Engine) connectBrowser(ctx context.Context) (*cdp.Client, error) {
	if err := browser.ProbeReady(ctx, e.deps.HTTPClient, e.deps.CDPBaseURL, cdpReadyTimeout); err != nil {
		return nil, fmt.Errorf("CDP not ready: %w", err)
	}
	page, err := browser.DiscoverPage(ctx, e.deps.HTTPClient, e.deps.CDPBaseURL)
	if err != nil {
		return nil, fmt.Errorf("discover page: %w", err)
	}
	return cdp.Connect(ctx, page.WSURL)
}

// terminate runs spec §4.7's always-run termination sequence exactly once:
// cache put of a completed session's cacheable actions, Frame Pump stop,
// registry cleanup, browser close, and persisting the session's terminal
// state. It generates no session title or summary.
func (e *Engine) terminate(sessionID string, client *cdp.Client, outcome models.SessionStatus, errMsg string, result models.Result, actionsCount int, cacheable []models.CachedAction, task string) {
	ctx, cancel := context.WithTimeout(context.Background(), terminationBudget)
	defer cancel()

	if outcome == models.SessionCompleted && len(cacheable) > 0 {
		if err := e.deps.Cache.Put(ctx, task, "about:blank", cacheable, 0); err != nil {
			slog.Warn("cache put failed", "session_id", sessionID, "error", err)
		}
	}

	e.deps.Pump.Stop(sessionID)
	e.deps.Registry.Unregister(sessionID)

	if client != nil {
		if err := client.Close(); err != nil {
			slog.Warn("CDP client close failed", "session_id", sessionID, "error", err)
		}
	}

	switch outcome {
	case models.SessionFailed:
		if err := e.deps.Sessions.Fail(ctx, sessionID, errMsg); err != nil {
			slog.Error("persist session failure failed", "session_id", sessionID, "error", err)
		}
		_ = e.deps.Events.PublishError(ctx, sessionID, events.ErrorPayload{
			Type: string(events.EventError), SessionID: sessionID, Message: errMsg, Timestamp: nowRFC3339(),
		})
		if e.deps.Notify != nil {
			e.deps.Notify.NotifyFailure(ctx, notify.FailureInput{SessionID: sessionID, Task: task, ErrorMessage: errMsg})
		}
	case models.SessionCancelled, models.SessionStopped:
		if err := e.deps.Sessions.Complete(ctx, sessionID, outcome, actionsCount, nil); err != nil {
			slog.Error("persist session stop failed", "session_id", sessionID, "error", err)
		}
		_ = e.deps.Events.PublishSessionStopped(ctx, sessionID, events.SessionStoppedPayload{
			Type: string(events.EventSessionStopped), SessionID: sessionID, Status: string(outcome), Timestamp: nowRFC3339(),
		})
	default:
		if outcome == "" {
			outcome = models.SessionFailed
			errMsg = "engine: session terminated without a recorded outcome"
		}
		if err := e.deps.Sessions.Complete(ctx, sessionID, outcome, actionsCount, result); err != nil {
			slog.Error("persist session completion failed", "session_id", sessionID, "error", err)
		}
		_ = e.deps.Events.PublishSessionComplete(ctx, sessionID, events.SessionCompletePayload{
			Type: string(events.EventSessionComplete), SessionID: sessionID, Status: string(outcome),
			ActionsCount: actionsCount, Result: result, Timestamp: nowRFC3339(),
		})
	}
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339Nano) }
