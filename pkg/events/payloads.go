package events

// SessionStartPayload is the payload for session_start events.
// Published once, at the beginning of a session's Agent loop.
type SessionStartPayload struct {
	Type      string `json:"type"` // always EventSessionStart
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`   // "active"
	MaxSteps  int    `json:"maxSteps"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// SessionUpdatePayload is the payload for session_update events: a
// human-readable progress line, emitted at various points in the Agent loop
// (including "Instant Replay" when a cached plan is being replayed).
type SessionUpdatePayload struct {
	Type      string `json:"type"` // always EventSessionUpdate
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SessionCompletePayload is the payload for session_complete events.
type SessionCompletePayload struct {
	Type         string         `json:"type"` // always EventSessionComplete
	SessionID    string         `json:"sessionId"`
	Status       string         `json:"status"` // "completed"
	ActionsCount int            `json:"actionsCount"`
	Result       map[string]any `json:"result,omitempty"`
	Timestamp    string         `json:"timestamp"`
}

// SessionStoppedPayload is the payload for session_stopped events: published
// for both cancel (status=cancelled) and explicit stop (status=stopped).
type SessionStoppedPayload struct {
	Type      string `json:"type"` // always EventSessionStopped
	SessionID string `json:"sessionId"`
	Status    string `json:"status"` // "cancelled" or "stopped"
	Timestamp string `json:"timestamp"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Type      string `json:"type"` // always EventError
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// InterventionPayload is the payload for intervention events, published when
// a caller injects a new task mid-session via intervene().
type InterventionPayload struct {
	Type      string `json:"type"` // always EventIntervention
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ActionLogPayload is the payload for action_log events: one entry per Agent
// step, mirroring the persisted ActionRecord.
type ActionLogPayload struct {
	Type       string `json:"type"` // always EventActionLog
	SessionID  string `json:"sessionId"`
	Step       int    `json:"step"`
	Goal       string `json:"goal"`
	Action     string `json:"action"`
	Result     string `json:"result"`
	Evaluation string `json:"evaluation"`
	Memory     string `json:"memory"`
	URL        string `json:"url"`
	Timestamp  string `json:"timestamp"`
}

// ScreenshotPayload is the payload for screenshot events: the raw PNG
// captured ahead of a Vision Grounding pass, base64-encoded.
type ScreenshotPayload struct {
	Type         string `json:"type"` // always EventScreenshot
	SessionID    string `json:"sessionId"`
	Step         int    `json:"step"`
	ImageBase64  string `json:"imageBase64"`
	Timestamp    string `json:"timestamp"`
}

// OwlVisionPayload is the payload for owl_vision events: the annotated
// image plus the dense mark list from one Vision Grounding pass.
type OwlVisionPayload struct {
	Type                 string         `json:"type"` // always EventOwlVision
	SessionID            string         `json:"sessionId"`
	Step                 int            `json:"step"`
	AnnotatedImageBase64 string         `json:"annotatedImageBase64"`
	Marks                []MarkPayload  `json:"marks"`
	MarksCount           int            `json:"marksCount"`
	Description          string         `json:"description"`
	Timestamp            string         `json:"timestamp"`
}

// MarkPayload is one numbered overlay in an OwlVisionPayload.
type MarkPayload struct {
	MarkID      int     `json:"markId"`
	ElementType string  `json:"elementType"`
	CenterX     float64 `json:"centerX"`
	CenterY     float64 `json:"centerY"`
	Text        string  `json:"text,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ClickByMarkPayload is the payload for click_by_mark events.
type ClickByMarkPayload struct {
	Type      string  `json:"type"` // always EventClickByMark
	SessionID string  `json:"sessionId"`
	MarkID    int     `json:"markId"`
	CenterX   float64 `json:"centerX"`
	CenterY   float64 `json:"centerY"`
	Timestamp string  `json:"timestamp"`
}

// StreamFramePayload is the payload for stream_frame transient events: one
// Frame Pump tick, never persisted.
type StreamFramePayload struct {
	Type        string `json:"type"` // always EventStreamFrame
	SessionID   string `json:"sessionId"`
	FrameID     int64  `json:"frameId"`
	Format      string `json:"format"` // "jpeg" or "png"
	DataBase64  string `json:"dataBase64"`
	Timestamp   string `json:"timestamp"`
}

// StreamErrorPayload is the payload for stream_error transient events: the
// Frame Pump reporting a non-fatal capture failure.
type StreamErrorPayload struct {
	Type      string `json:"type"` // always EventStreamError
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
