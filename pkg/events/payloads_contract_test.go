package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSessionChannelPayloads_ContainSessionID is a contract test: any payload
// broadcast on a session-specific channel (session:{id}) must include a
// non-empty "sessionId" field, or a client routing incoming WS events by
// inspecting that field will silently drop the event.
//
// If you add a new payload type that flows through SessionChannel(sessionID),
// add it here — the test fails if sessionId is missing.
func TestSessionChannelPayloads_ContainSessionID(t *testing.T) {
	const testSessionID = "sess-contract-test"

	tests := []struct {
		name    string
		payload any
	}{
		{name: "SessionStartPayload", payload: SessionStartPayload{Type: EventSessionStart, SessionID: testSessionID, Status: "active", MaxSteps: 50, Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "SessionUpdatePayload", payload: SessionUpdatePayload{Type: EventSessionUpdate, SessionID: testSessionID, Message: "Instant Replay", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "SessionCompletePayload", payload: SessionCompletePayload{Type: EventSessionComplete, SessionID: testSessionID, Status: "completed", ActionsCount: 3, Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "SessionStoppedPayload", payload: SessionStoppedPayload{Type: EventSessionStopped, SessionID: testSessionID, Status: "cancelled", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "ErrorPayload", payload: ErrorPayload{Type: EventError, SessionID: testSessionID, Message: "Could not connect", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "InterventionPayload", payload: InterventionPayload{Type: EventIntervention, SessionID: testSessionID, Message: "now open example.org", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "ActionLogPayload", payload: ActionLogPayload{Type: EventActionLog, SessionID: testSessionID, Step: 1, Goal: "click login", Action: "click", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "ScreenshotPayload", payload: ScreenshotPayload{Type: EventScreenshot, SessionID: testSessionID, Step: 1, ImageBase64: "Zm9v", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "OwlVisionPayload", payload: OwlVisionPayload{Type: EventOwlVision, SessionID: testSessionID, Step: 1, MarksCount: 2, Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "ClickByMarkPayload", payload: ClickByMarkPayload{Type: EventClickByMark, SessionID: testSessionID, MarkID: 1, CenterX: 10, CenterY: 20, Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "StreamFramePayload", payload: StreamFramePayload{Type: EventStreamFrame, SessionID: testSessionID, FrameID: 1, Format: "jpeg", Timestamp: "2026-01-01T00:00:00Z"}},
		{name: "StreamErrorPayload", payload: StreamErrorPayload{Type: EventStreamError, SessionID: testSessionID, Message: "capture failed", Timestamp: "2026-01-01T00:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.payload)
			require.NoError(t, err, "failed to marshal %s", tt.name)

			var parsed map[string]any
			require.NoError(t, json.Unmarshal(data, &parsed), "failed to unmarshal %s", tt.name)

			sid, ok := parsed["sessionId"]
			assert.True(t, ok,
				"%s JSON is missing \"sessionId\" field — WS routing will silently drop this event", tt.name)
			assert.Equal(t, testSessionID, sid, "%s sessionId has wrong value", tt.name)
		})
	}
}

// TestPersistedEventSet_MatchesSpec locks down the event names that must be
// replayable via catchup, per spec §4.1's event list and the "Instant Replay"
// seed scenario, which relies on session_update reaching a late subscriber.
func TestPersistedEventSet_MatchesSpec(t *testing.T) {
	mustPersist := []string{
		EventSessionStart, EventSessionUpdate, EventSessionComplete,
		EventSessionStopped, EventError, EventIntervention, EventActionLog,
		EventScreenshot, EventOwlVision, EventClickByMark,
	}
	for _, name := range mustPersist {
		assert.True(t, IsPersisted(name), "%s should be persisted for catchup", name)
	}

	mustNotPersist := []string{EventStreamFrame, EventStreamError}
	for _, name := range mustNotPersist {
		assert.False(t, IsPersisted(name), "%s is high-frequency and must not be persisted", name)
	}
}
