// Package framepump implements the Frame Pump: a long-running per-session
// task that continuously delivers a visual stream of the active page to
// Notification Fabric subscribers (spec §4.4).
package framepump

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/cdp"
	"github.com/codeready-toolchain/tarsy/pkg/events"
)

// pollInterval is the fallback-algorithm capture cadence and the primary
// algorithm's idle-sleep between stop-flag/liveness checks (spec §4.4).
const pollInterval = 500 * time.Millisecond

// maxConsecutivePollFailures bails the fallback loop after this many
// back-to-back capture failures.
const maxConsecutivePollFailures = 10

// Screenshotter captures a still PNG of the active page, used by the
// polling fallback when CDP screencast is unavailable.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// task is the single long-running goroutine for one session's Frame Pump.
type task struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
}

// Pump manages at most one Frame Pump task per session.
type Pump struct {
	publisher *events.EventPublisher

	mu    sync.Mutex
	tasks map[string]*task
}

// New returns a Pump publishing frames through publisher.
func New(publisher *events.EventPublisher) *Pump {
	return &Pump{
		publisher: publisher,
		tasks:     make(map[string]*task),
	}
}

// Start launches the Frame Pump for sessionID against the given CDP client
// and screenshotter fallback. It is a no-op if a task is already running
// for this session.
func (p *Pump) Start(ctx context.Context, sessionID string, client *cdp.Client, shots Screenshotter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, running := p.tasks[sessionID]; running {
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{sessionID: sessionID, cancel: cancel, done: make(chan struct{})}
	p.tasks[sessionID] = t

	go p.run(taskCtx, t, client, shots)

	slog.Info("Frame Pump started", "session_id", sessionID)
}

// Stop cancels the Frame Pump task for sessionID and awaits its teardown.
// No-op if no task is running.
func (p *Pump) Stop(sessionID string) {
	p.mu.Lock()
	t, running := p.tasks[sessionID]
	if running {
		delete(p.tasks, sessionID)
	}
	p.mu.Unlock()

	if !running {
		return
	}

	t.cancel()
	<-t.done
	slog.Info("Frame Pump stopped", "session_id", sessionID)
}

func (p *Pump) run(ctx context.Context, t *task, client *cdp.Client, shots Screenshotter) {
	defer close(t.done)

	if client != nil {
		err := p.runScreencast(ctx, t.sessionID, client)
		if err == nil {
			return
		}
		slog.Warn("Frame Pump: screencast failed, falling back to polling",
			"session_id", t.sessionID, "error", err)
	}

	p.runPolling(ctx, t.sessionID, shots)
}
