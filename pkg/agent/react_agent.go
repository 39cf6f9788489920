package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// completionEvaluationPhrases and completionGoalPhrases implement the
// early-stop rule from spec.md §6: for step >= 3, a case-insensitive
// match of any of these in the step's evaluation or next_goal ends the
// Agent loop normally instead of as a failure.
var (
	completionEvaluationPhrases = []string{
		"task completed", "goal achieved", "successfully finished",
		"completed successfully", "task is complete", "finished successfully",
	}
	completionGoalPhrases = []string{
		"none", "no further", "task complete", "done",
	}
	earlyStopMinStep = 3
)

func matchesAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Section tags the LLM is instructed to emit at the start of every
// response, one per StepObservation field the LLM (rather than tool
// execution) is responsible for reporting.
var sectionPattern = regexp.MustCompile(`(?im)^\s*(GOAL|EVALUATION|MEMORY)\s*:\s*(.*)$`)

func extractSections(text string) (goal, evaluation, memory string) {
	for _, m := range sectionPattern.FindAllStringSubmatch(text, -1) {
		switch strings.ToUpper(m[1]) {
		case "GOAL":
			goal = strings.TrimSpace(m[2])
		case "EVALUATION":
			evaluation = strings.TrimSpace(m[2])
		case "MEMORY":
			memory = strings.TrimSpace(m[2])
		}
	}
	return goal, evaluation, memory
}

// ReActAgent drives one browser-automation task: build a prompt, call
// the LLM, execute at most one batch of tool calls, report a
// StepObservation. Grounded on pkg/agent/controller/react.go's
// ReActController.Run loop shape (iterate-call-LLM / parse / act /
// continue-or-finalize), generalized from ReAct-specific text parsing
// (Thought/Action/Final Answer) to the tool-call/StepObservation
// contract spec.md REDESIGN FLAGS calls for.
type ReActAgent struct {
	execCtx *ExecutionContext

	mu       sync.Mutex
	messages []ConversationMessage
	step     int
	done     bool
}

// NewReActAgent builds a ReActAgent for one session. The tool set the
// LLM may call is listed from execCtx.ToolExecutor on every step and
// re-sent on every Generate call since the teacher's provider sidecar is
// stateless per call.
func NewReActAgent(execCtx *ExecutionContext, systemPrompt string) *ReActAgent {
	return &ReActAgent{
		execCtx:  execCtx,
		messages: []ConversationMessage{{Role: RoleSystem, Content: systemPrompt}},
	}
}

// AppendTask implements Agent.
func (a *ReActAgent) AppendTask(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, ConversationMessage{Role: RoleUser, Content: message})
}

// Close implements Agent. The LLM client and tool executor are owned by
// the caller (pkg/engine) and are not closed here.
func (a *ReActAgent) Close() {}

// Step implements Agent.
func (a *ReActAgent) Step(ctx context.Context) (StepObservation, StepOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return StepObservation{}, Stop, fmt.Errorf("agent: Step called after a terminal outcome")
	}
	a.step++

	stepCtx := ctx
	var cancel context.CancelFunc
	if a.execCtx.IterationTimeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, a.execCtx.IterationTimeout)
		defer cancel()
	}

	tools, err := a.listTools(stepCtx)
	if err != nil {
		return StepObservation{}, Continue, fmt.Errorf("list tools: %w", err)
	}

	text, toolCalls, usageErr, err := a.callLLM(stepCtx, tools)
	if err != nil {
		if ctx.Err() != nil {
			a.done = true
			return StepObservation{}, Cancel, nil
		}
		return StepObservation{}, Continue, err
	}
	if usageErr != nil {
		return StepObservation{}, Continue, usageErr
	}

	goal, evaluation, memory := extractSections(text)
	a.messages = append(a.messages, ConversationMessage{Role: RoleAssistant, Content: text, ToolCalls: toolCalls})

	obs := StepObservation{Goal: goal, Evaluation: evaluation, Memory: memory}

	if len(toolCalls) == 0 {
		// No tool call this turn: the LLM is reporting completion (or a
		// malformed turn). Either way the loop has nothing further to
		// act on, so it ends — not as a failure, spec.md §6 "Step".
		obs.Result = text
		a.done = true
		return obs, Stop, nil
	}

	var actionNames []string
	for _, tc := range toolCalls {
		result, execErr := a.execCtx.ToolExecutor.Execute(stepCtx, tc)
		actionNames = append(actionNames, tc.Name)
		content := ""
		if execErr != nil {
			content = execErr.Error()
		} else if result != nil {
			content = result.Content
			if url := extractURL(result.Content); url != "" {
				obs.URL = url
			}
		}
		obs.Result = content

		switch tc.Name {
		case "type_text":
			obs.TargetSelector = extractJSONStringField(tc.Arguments, selectorFieldPattern)
			obs.InputValue = extractJSONStringField(tc.Arguments, textFieldPattern)
		case "extract_text":
			obs.TargetSelector = extractJSONStringField(tc.Arguments, selectorFieldPattern)
			obs.OutputValue = extractJSONStringField(content, textFieldPattern)
		}
		a.messages = append(a.messages, ConversationMessage{
			Role: RoleTool, Content: content, ToolCallID: tc.ID, ToolName: tc.Name,
		})
	}
	obs.Action = strings.Join(actionNames, ",")

	if a.step >= earlyStopMinStep && (matchesAny(evaluation, completionEvaluationPhrases) || matchesAny(goal, completionGoalPhrases)) {
		a.done = true
		return obs, Stop, nil
	}
	if a.step >= a.execCtx.MaxSteps {
		a.done = true
		return obs, Stop, nil
	}
	return obs, Continue, nil
}

func (a *ReActAgent) listTools(ctx context.Context) ([]ToolDefinition, error) {
	if a.execCtx.ToolExecutor == nil {
		return nil, nil
	}
	return a.execCtx.ToolExecutor.ListTools(ctx)
}

// callLLM drains the Generate stream, returning the concatenated text,
// any tool calls requested, and separately an ErrorChunk (if the sidecar
// reported a provider-level failure) versus a transport-level error.
func (a *ReActAgent) callLLM(ctx context.Context, tools []ToolDefinition) (string, []ToolCall, error, error) {
	input := &GenerateInput{
		SessionID:   a.execCtx.SessionID,
		ExecutionID: a.execCtx.SessionID,
		Messages:    append([]ConversationMessage(nil), a.messages...),
		Config:      a.execCtx.LLMConfig,
		Tools:       tools,
		Backend:     a.execCtx.Backend,
	}

	chunks, err := a.execCtx.LLMClient.Generate(ctx, input)
	if err != nil {
		return "", nil, nil, err
	}

	var text strings.Builder
	var toolCalls []ToolCall
	var chunkErr error
	for c := range chunks {
		switch v := c.(type) {
		case *TextChunk:
			text.WriteString(v.Content)
		case *ToolCallChunk:
			toolCalls = append(toolCalls, ToolCall{ID: v.CallID, Name: v.Name, Arguments: v.Arguments})
		case *ErrorChunk:
			chunkErr = fmt.Errorf("llm: %s", v.Message)
		}
	}
	return text.String(), toolCalls, chunkErr, nil
}

var (
	urlFieldPattern      = regexp.MustCompile(`"url"\s*:\s*"([^"]*)"`)
	selectorFieldPattern = regexp.MustCompile(`"selector"\s*:\s*"([^"]*)"`)
	textFieldPattern     = regexp.MustCompile(`"text"\s*:\s*"([^"]*)"`)
)

// extractURL pulls a "url" field out of a tool result's content without
// requiring the whole content to be valid JSON (tool output is
// frequently a mix of a status line plus a JSON tail).
func extractURL(content string) string {
	return extractJSONStringField(content, urlFieldPattern)
}

// extractJSONStringField pulls a single string field out of a JSON blob
// (tool call arguments or tool result content) without requiring the
// whole content to parse as JSON.
func extractJSONStringField(content string, pattern *regexp.Regexp) string {
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	if unquoted, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
		return unquoted
	}
	return m[1]
}
