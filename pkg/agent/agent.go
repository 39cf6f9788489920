// Package agent provides the Session Execution Engine's Agent loop: an
// LLM-planned browser task runner, driven one iteration at a time so the
// caller (pkg/engine) can interleave a screenshot, a vision pass, and a
// cooperative stop-flag check between each step (spec.md §4.7 "Agent
// loop").
package agent

import "context"

// StepOutcome tells the caller what to do after a Step call.
type StepOutcome int

const (
	// Continue means the Agent loop should call Step again.
	Continue StepOutcome = iota
	// Stop means the Agent reached a natural completion (including the
	// early-stop completion-phrase match at step >= 3) and the loop
	// should end normally.
	Stop
	// Cancel means ctx was cancelled mid-step; the loop should end
	// without treating this as a failure.
	Cancel
)

func (o StepOutcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// StepObservation is the defined callback contract an Agent reports
// after every iteration, replacing the source's dynamic attribute
// probing of an internal LLM-framework agent object (spec.md REDESIGN
// FLAGS). Field names mirror models.ActionMetadata / models.StepTelemetry
// so pkg/engine can copy one into the other without translation.
type StepObservation struct {
	Goal       string
	Action     string
	Evaluation string
	Memory     string
	Result     string
	URL        string

	// TargetSelector, InputValue and OutputValue mirror the CSS selector
	// and typed/extracted value of a type_text or extract_text tool call
	// this step, for pkg/masking's Action Record credential screening.
	TargetSelector string
	InputValue     string
	OutputValue    string
}

// Agent drives one browser-automation task. A single Agent instance is
// created per session and is not safe for concurrent Step calls — the
// Session Engine's Agent loop task is the only caller.
type Agent interface {
	// Step runs at most one batch of tool-calls and returns the
	// resulting observation plus what the loop should do next. Step
	// must not be called again once it has returned Stop or Cancel.
	Step(ctx context.Context) (StepObservation, StepOutcome, error)

	// AppendTask appends message as a new task for the next Step call,
	// supporting mid-run intervention (spec.md §4.7 "Intervention").
	AppendTask(message string)

	// Close releases any resources (LLM client is owned by the caller
	// and is not closed here).
	Close()
}
