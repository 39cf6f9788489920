package agent

import (
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/config"
)

// ExecutionContext carries all dependencies and state an Agent needs for
// one session: the task, the LLM sidecar connection, and the browser
// tool set. Event publishing (action_log / session_update / ...) and
// Action Record persistence happen one level up, in pkg/engine's
// step_end callback (spec.md §4.7 "Agent loop") — the Agent only
// reports a StepObservation, it never publishes events itself.
type ExecutionContext struct {
	SessionID string
	Task      string
	MaxSteps  int

	LLMClient    LLMClient
	ToolExecutor ToolExecutor

	LLMConfig        *config.LLMProviderConfig
	Backend          config.LLMBackend
	IterationTimeout time.Duration // per-step LLM call timeout; 0 = no timeout
}
