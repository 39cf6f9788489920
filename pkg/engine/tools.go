package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/tarsy/pkg/agent"
	"github.com/codeready-toolchain/tarsy/pkg/browser"
	"github.com/codeready-toolchain/tarsy/pkg/vision"
)

// browserToolDefinitions is the fixed tool set exposed to every session's
// Agent, grounded on spec §4.2 "High-level actions" (navigate, click, type,
// scroll, extract text, screenshot, evaluate JS, highlight) plus key_press
// (§4.2 dispatcher primitive) and click_by_mark (§4.6 "Coordinate
// resolution").
var browserToolDefinitions = []agent.ToolDefinition{
	{Name: "navigate", Description: "Navigate the active page to a URL.", ParametersSchema: `{"type":"object","properties":{"url":{"type":"string"}},"required":["url"]}`},
	{Name: "click", Description: "Click the element matching a CSS selector.", ParametersSchema: `{"type":"object","properties":{"selector":{"type":"string"}},"required":["selector"]}`},
	{Name: "type_text", Description: "Type text into the element matching a CSS selector.", ParametersSchema: `{"type":"object","properties":{"selector":{"type":"string"},"text":{"type":"string"}},"required":["selector","text"]}`},
	{Name: "scroll", Description: "Scroll the active page by a pixel offset.", ParametersSchema: `{"type":"object","properties":{"dx":{"type":"number"},"dy":{"type":"number"}},"required":["dy"]}`},
	{Name: "extract_text", Description: "Extract the visible text of the element matching a CSS selector.", ParametersSchema: `{"type":"object","properties":{"selector":{"type":"string"}},"required":["selector"]}`},
	{Name: "screenshot", Description: "Capture a PNG screenshot of the active page.", ParametersSchema: `{"type":"object","properties":{}}`},
	{Name: "evaluate", Description: "Evaluate a JavaScript expression on the active page.", ParametersSchema: `{"type":"object","properties":{"expression":{"type":"string"}},"required":["expression"]}`},
	{Name: "highlight", Description: "Draw a highlight border around the element matching a CSS selector.", ParametersSchema: `{"type":"object","properties":{"selector":{"type":"string"}},"required":["selector"]}`},
	{Name: "key_press", Description: "Dispatch a single key press to the active page.", ParametersSchema: `{"type":"object","properties":{"key":{"type":"string"}},"required":["key"]}`},
	{Name: "click_by_mark", Description: "Click the element at a Vision Grounding mark_id from the most recent screenshot.", ParametersSchema: `{"type":"object","properties":{"mark_id":{"type":"integer"}},"required":["mark_id"]}`},
}

// toolResult is the JSON shape returned as agent.ToolResult.Content for
// every browser tool call. Action.extractURL (pkg/agent) mines the "url"
// field back out of this for StepObservation.URL.
type toolResult struct {
	Success bool    `json:"success"`
	URL     string  `json:"url,omitempty"`
	Text    string  `json:"text,omitempty"`
	Key     string  `json:"key,omitempty"`
	Value   any     `json:"value,omitempty"`
	MarkID  int     `json:"mark_id,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Error   string  `json:"error,omitempty"`
}

func okResult(callID, name string, r toolResult) *agent.ToolResult {
	r.Success = true
	b, _ := json.Marshal(r)
	return &agent.ToolResult{CallID: callID, Name: name, Content: string(b)}
}

func errResult(callID, name string, err error) *agent.ToolResult {
	r := toolResult{Success: false, Error: err.Error()}
	b, _ := json.Marshal(r)
	return &agent.ToolResult{CallID: callID, Name: name, Content: string(b), IsError: true}
}

// BrowserToolExecutor implements agent.ToolExecutor over one session's
// browser.Surface and browser.Dispatcher, plus an optional Vision Grounder
// for click_by_mark. Grounded on pkg/mcp/executor.go's ToolExecutor shape
// (call-by-name dispatch over a fixed registry, structured error results
// rather than Go errors for tool-level failures) generalized from MCP
// server calls to the browser control surface.
type BrowserToolExecutor struct {
	surface    *browser.Surface
	dispatcher *browser.Dispatcher
	grounder   func() *vision.Grounder // nil-safe accessor; Vision may attach after construction
	currentURL func() string
}

// NewBrowserToolExecutor builds a BrowserToolExecutor. grounder and
// currentURL may be nil/return "" if Vision or URL tracking are unavailable.
func NewBrowserToolExecutor(surface *browser.Surface, dispatcher *browser.Dispatcher, grounder func() *vision.Grounder, currentURL func() string) *BrowserToolExecutor {
	return &BrowserToolExecutor{surface: surface, dispatcher: dispatcher, grounder: grounder, currentURL: currentURL}
}

func (e *BrowserToolExecutor) ListTools(_ context.Context) ([]agent.ToolDefinition, error) {
	return browserToolDefinitions, nil
}

func (e *BrowserToolExecutor) Close() error { return nil }

func (e *BrowserToolExecutor) Execute(ctx context.Context, call agent.ToolCall) (*agent.ToolResult, error) {
	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return errResult(call.ID, call.Name, fmt.Errorf("parse arguments: %w", err)), nil
		}
	}
	str := func(k string) string { v, _ := args[k].(string); return v }
	num := func(k string) float64 { v, _ := args[k].(float64); return v }

	switch call.Name {
	case "navigate":
		url := str("url")
		if err := e.surface.Navigate(ctx, url); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{URL: url}), nil

	case "click":
		if err := e.surface.Click(ctx, str("selector")); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{URL: e.url()}), nil

	case "type_text":
		text := str("text")
		if err := e.surface.Type(ctx, str("selector"), text); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{Text: text, URL: e.url()}), nil

	case "scroll":
		if err := e.surface.Scroll(ctx, num("dx"), num("dy")); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{URL: e.url()}), nil

	case "extract_text":
		text, err := e.surface.ExtractText(ctx, str("selector"))
		if err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{Text: text, URL: e.url()}), nil

	case "screenshot":
		if _, err := e.surface.Screenshot(ctx); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{URL: e.url()}), nil

	case "evaluate":
		v, err := e.surface.Evaluate(ctx, str("expression"))
		if err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{Value: v, URL: e.url()}), nil

	case "highlight":
		if err := e.surface.Highlight(ctx, str("selector")); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{URL: e.url()}), nil

	case "key_press":
		if e.dispatcher == nil {
			return errResult(call.ID, call.Name, fmt.Errorf("key_press: no dispatcher attached")), nil
		}
		key := str("key")
		if err := e.dispatcher.KeyPress(ctx, key); err != nil {
			return errResult(call.ID, call.Name, err), nil
		}
		return okResult(call.ID, call.Name, toolResult{Key: key, URL: e.url()}), nil

	case "click_by_mark":
		return e.clickByMark(ctx, call, int(num("mark_id")))

	default:
		return errResult(call.ID, call.Name, fmt.Errorf("unknown tool %q", call.Name)), nil
	}
}

func (e *BrowserToolExecutor) clickByMark(ctx context.Context, call agent.ToolCall, markID int) (*agent.ToolResult, error) {
	if e.grounder == nil || e.grounder() == nil {
		return errResult(call.ID, call.Name, fmt.Errorf("click_by_mark: vision unavailable")), nil
	}
	if e.dispatcher == nil {
		return errResult(call.ID, call.Name, fmt.Errorf("click_by_mark: no dispatcher attached")), nil
	}
	point, err := e.grounder().Resolve(markID)
	if err != nil {
		return errResult(call.ID, call.Name, err), nil
	}
	if err := e.dispatcher.Click(ctx, point.X, point.Y, browser.MouseButtonLeft, 1); err != nil {
		return errResult(call.ID, call.Name, err), nil
	}
	return okResult(call.ID, call.Name, toolResult{MarkID: markID, X: point.X, Y: point.Y, URL: e.url()}), nil
}

func (e *BrowserToolExecutor) url() string {
	if e.currentURL == nil {
		return ""
	}
	return e.currentURL()
}
