// Package engine implements the Session Engine: the per-session lifecycle
// controller that wires the Agent loop, the browser control surface, the
// Frame Pump, Vision Grounding, and the Action Cache together (spec §4.7).
//
// There is no teacher analog for a literal pkg/queue/worker-pool package in
// this workspace (the teacher's own pkg/api still imports one, but no such
// package exists here — see DESIGN.md). Registry is grounded directly on
// spec §5's "Shared resources" paragraph instead: a single process-wide,
// mutex-guarded set of maps keyed by session id.
package engine

import (
	"context"
	"sync"

	"github.com/codeready-toolchain/tarsy/pkg/agent"
	"github.com/codeready-toolchain/tarsy/pkg/cdp"
	"github.com/codeready-toolchain/tarsy/pkg/models"
	"github.com/codeready-toolchain/tarsy/pkg/vision"
)

// runningSession is the bookkeeping Registry keeps for one active session.
type runningSession struct {
	agent      agent.Agent
	cancel     context.CancelFunc
	browser    *cdp.Client
	grounder   *vision.Grounder
	stop              bool
	stopStatus        models.SessionStatus // SessionCancelled or SessionStopped, set by RequestStop
	step              int                  // last step started, for Intervene's Action Record
	interventionCount int                  // count of Intervene calls, for pkg/notify escalation
}

// Registry is the process-wide set of per-session maps spec §5 describes:
// running_agents, running_browsers, stop_flags, streaming_tasks (the Frame
// Pump is tracked by framepump.Pump itself; Registry only needs to know a
// session is active), active_tasks (the Agent loop's own cancel func).
// All access is guarded by a single mutex, per spec §5's "implementations
// on a true thread-parallel runtime must guard them with a single mutex".
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*runningSession
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*runningSession)}
}

// Register records a newly started session's Agent and cancel func; its
// CDP client and Grounder are attached later by SetBrowser/SetGrounder.
// Overwrites any prior entry for the same session id.
func (r *Registry) Register(sessionID string, a agent.Agent, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &runningSession{agent: a, cancel: cancel}
}

// SetAgent attaches the session's Agent once it is constructed, without
// disturbing the cancel func Register already stored. The Agent is built
// after the browser/LLM client are wired, but the registry entry (and its
// stop-flag/cancel) must exist from the moment the session is accepted.
func (r *Registry) SetAgent(sessionID string, a agent.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.agent = a
	}
}

// SetBrowser attaches the session's CDP client, used later by ClickByMark
// to dispatch against it.
func (r *Registry) SetBrowser(sessionID string, client *cdp.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.browser = client
	}
}

// SetGrounder attaches the session's Vision Grounder, used by ClickByMark
// to resolve a mark_id to page coordinates.
func (r *Registry) SetGrounder(sessionID string, g *vision.Grounder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.grounder = g
	}
}

// SetStep records sessionID's current step, read back by Intervene so an
// injected task's Action Record carries the step it interrupted.
func (r *Registry) SetStep(sessionID string, step int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.step = step
	}
}

// currentStep returns sessionID's last-started step, or 0 if unknown.
func (r *Registry) currentStep(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s.step
	}
	return 0
}

// Unregister removes sessionID's bookkeeping entirely. Called once from the
// Session Engine's termination sequence (spec §4.7 "Termination" step 3).
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// RequestStop sets sessionID's stop-flag and cancels its Agent loop
// context. status distinguishes an explicit user-driven stop
// (models.SessionStopped) from any other cooperative cancellation
// (models.SessionCancelled) for the terminal status/event pair spec §4.7
// "*→stopped" describes. No-op (returns false) if the session is not
// running.
func (r *Registry) RequestStop(sessionID string, status models.SessionStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	s.stop = true
	s.stopStatus = status
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

// StopRequested reports whether sessionID's cooperative stop-flag is set
// (spec §4.7 "Agent loop" step 3, checked at the top of step_end), and if
// so which terminal status to use.
func (r *Registry) StopRequested(sessionID string) (bool, models.SessionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || !s.stop {
		return false, ""
	}
	return true, s.stopStatus
}

// Running reports whether sessionID currently has a registered Agent.
func (r *Registry) Running(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok
}

// errNoAgent is returned by Intervene when sessionID has no
// running Agent — the success/no-agent discriminator spec §4.7
// "Intervention" calls for.
type errNoAgent struct{ sessionID string }

func (e *errNoAgent) Error() string { return "engine: no running agent for session " + e.sessionID }

// Intervene appends message as a new task on sessionID's running Agent.
// Returns errNoAgent if the session has no running Agent, matching the
// no-op contract spec §4.7 describes for an Agent without a task-append
// capability.
func (r *Registry) Intervene(sessionID, message string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok || s.agent == nil {
		return &errNoAgent{sessionID: sessionID}
	}
	s.agent.AppendTask(message)
	return nil
}

// IncrementIntervention bumps sessionID's intervention counter and
// returns the new count (0 if the session isn't running), for
// pkg/notify's repeated-intervention escalation notice.
func (r *Registry) IncrementIntervention(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return 0
	}
	s.interventionCount++
	return s.interventionCount
}

// grounderFor returns sessionID's Vision Grounder and CDP client, or nil
// values if the session is not running or has no Grounder attached.
func (r *Registry) grounderFor(sessionID string) (*vision.Grounder, *cdp.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil, false
	}
	return s.grounder, s.browser, true
}
