package engine

import (
	"encoding/json"
	"strings"

	"github.com/codeready-toolchain/tarsy/pkg/agent"
	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// cacheableFromObservation derives zero or one models.CachedAction from one
// Agent step, per spec §4.7 "Cacheable-action extraction policy". It reads
// the tool's own JSON result (produced by BrowserToolExecutor) rather than
// re-parsing the LLM's call arguments, per spec REDESIGN FLAGS
// "Replay-as-CDP-commands": coordinates for click_by_mark must come from
// the dispatcher's resolved click, not from heuristic mining. Navigation
// actions are intentionally excluded (the cache_key already constrains
// URL).
func cacheableFromObservation(obs agent.StepObservation) (models.CachedAction, bool) {
	// obs.Action is a comma-joined list of tool names for this step (see
	// ReActAgent.Step); only the common single-tool-call case is cacheable.
	if strings.Contains(obs.Action, ",") {
		return models.CachedAction{}, false
	}
	var r toolResult
	if err := json.Unmarshal([]byte(obs.Result), &r); err != nil || !r.Success {
		return models.CachedAction{}, false
	}
	switch obs.Action {
	case "click_by_mark":
		return models.CachedAction{Type: models.CachedActionClick, X: r.X, Y: r.Y, WaitMs: 1000}, true
	case "type_text":
		return models.CachedAction{Type: models.CachedActionTypeText, Text: r.Text, WaitMs: 500}, true
	case "key_press":
		return models.CachedAction{Type: models.CachedActionKeyPress, Key: r.Key, WaitMs: 300}, true
	default:
		return models.CachedAction{}, false
	}
}
