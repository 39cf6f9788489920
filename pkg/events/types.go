// Package events is the Notification Fabric: a process-wide, room-based
// publish/subscribe hub that delivers typed events to every WebSocket
// subscriber of a given session_id. It is shared across all sessions and is
// write-only from the Session Engine's perspective — publish never blocks on,
// or fails because of, a missing or empty room.
//
// Delivery rides on PostgreSQL LISTEN/NOTIFY so a publish from any process in
// a multi-pod deployment reaches every ConnectionManager holding a
// subscriber for that channel. Persistent events are additionally written to
// the events table (in the same transaction as the NOTIFY) so a client
// reconnecting mid-session can catch up on what it missed; purely transient
// events (the frame stream) skip persistence entirely — see IsPersisted.
package events

// Event names, per spec §4.1. EventScreenshotStream is defined but no
// package publishes it; the Frame Pump publishes EventStreamFrame.
const (
	EventSessionStart     = "session_start"
	EventSessionUpdate    = "session_update"
	EventSessionComplete  = "session_complete"
	EventSessionStopped   = "session_stopped"
	EventError            = "error"
	EventIntervention     = "intervention"
	EventActionLog        = "action_log"
	EventScreenshot       = "screenshot"
	EventScreenshotStream = "screenshot_stream"
	EventOwlVision        = "owl_vision"
	EventClickByMark      = "click_by_mark"
	EventStreamFrame      = "stream_frame"
	EventStreamError      = "stream_error"
)

// persistedEvents is the set of event names written to the events table
// before being broadcast via NOTIFY. Everything else (the live frame stream)
// is NOTIFY-only: high frequency, ephemeral, never replayed on catchup.
var persistedEvents = map[string]bool{
	EventSessionStart:    true,
	EventSessionUpdate:   true,
	EventSessionComplete: true,
	EventSessionStopped:  true,
	EventError:           true,
	EventIntervention:    true,
	EventActionLog:       true,
	EventScreenshot:      true,
	EventOwlVision:       true,
	EventClickByMark:     true,
}

// IsPersisted reports whether events named eventName are stored in the
// events table (and therefore available via catchup) in addition to being
// broadcast.
func IsPersisted(eventName string) bool {
	return persistedEvents[eventName]
}

// GlobalSessionsChannel is the channel for process-wide session-list events.
const GlobalSessionsChannel = "sessions"

// SessionChannel returns the room name for a specific session's events.
// Format: "session:{session_id}".
func SessionChannel(sessionID string) string {
	return "session:" + sessionID
}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                   // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`        // channel name (e.g. "session:abc-123")
	LastEventID *int   `json:"last_event_id,omitempty"`  // for catchup
}
