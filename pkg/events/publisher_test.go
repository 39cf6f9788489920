package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateIfNeeded(t *testing.T) {
	t.Run("passes through normal payload", func(t *testing.T) {
		payload, _ := json.Marshal(ActionLogPayload{
			Type:      EventActionLog,
			SessionID: "abc-123",
			Goal:      "click login button",
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.Contains(t, result, EventActionLog)
		assert.Contains(t, result, "abc-123")
	})

	t.Run("truncates oversized payload", func(t *testing.T) {
		longDesc := make([]byte, 8000)
		for i := range longDesc {
			longDesc[i] = 'a'
		}
		payload, _ := json.Marshal(OwlVisionPayload{
			Type:        EventOwlVision,
			SessionID:   "abc-123",
			Description: string(longDesc),
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.Contains(t, result, "truncated")
		assert.Less(t, len(result), 8000)
	})

	t.Run("does not truncate small payload", func(t *testing.T) {
		payload, _ := json.Marshal(StreamFramePayload{Type: EventStreamFrame, SessionID: "abc-123"})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.NotContains(t, result, "truncated")
	})

	t.Run("truncated payload preserves key fields", func(t *testing.T) {
		longDesc := make([]byte, 8000)
		for i := range longDesc {
			longDesc[i] = 'x'
		}
		payload, _ := json.Marshal(OwlVisionPayload{
			Type:        EventOwlVision,
			SessionID:   "sess-789",
			Description: string(longDesc),
		})

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)

		assert.Contains(t, result, EventOwlVision)
		assert.Contains(t, result, "sess-789")
		assert.Contains(t, result, `"truncated":true`)
		assert.NotContains(t, result, "xxxx")
	})

	t.Run("boundary: payload just under limit is not truncated", func(t *testing.T) {
		// Build a payload whose JSON is just under 7900 bytes. Measure the
		// overhead of the struct's fixed fields first, then size the
		// variable content so the whole marshal lands under the limit. The
		// 20-byte safety margin absorbs JSON encoding variability if new
		// fields with non-zero defaults are added to OwlVisionPayload.
		base, _ := json.Marshal(OwlVisionPayload{Type: "t"})
		contentSize := 7900 - len(base) - 20
		content := make([]byte, contentSize)
		for i := range content {
			content[i] = 'b'
		}
		payload, _ := json.Marshal(OwlVisionPayload{Type: "t", Description: string(content)})
		require.LessOrEqual(t, len(payload), 7900, "test payload should be under limit")

		result, err := truncateIfNeeded(string(payload))
		require.NoError(t, err)
		assert.NotContains(t, result, "truncated")
	})

	t.Run("empty JSON object", func(t *testing.T) {
		result, err := truncateIfNeeded("{}")
		require.NoError(t, err)
		assert.Equal(t, "{}", result)
	})
}

func TestInjectDBEventIDAndTruncate(t *testing.T) {
	t.Run("injects dbEventId into normal payload", func(t *testing.T) {
		payload, _ := json.Marshal(ActionLogPayload{
			Type:      EventActionLog,
			SessionID: "sess-1",
			Goal:      "hello",
		})

		result, err := injectDBEventIDAndTruncate(payload, 42)
		require.NoError(t, err)
		assert.Contains(t, result, `"dbEventId":42`)
		assert.Contains(t, result, "sess-1")
	})

	t.Run("truncated payload preserves dbEventId", func(t *testing.T) {
		longDesc := make([]byte, 8000)
		for i := range longDesc {
			longDesc[i] = 'x'
		}
		payload, _ := json.Marshal(OwlVisionPayload{
			Type:        EventOwlVision,
			SessionID:   "sess-789",
			Description: string(longDesc),
		})

		result, err := injectDBEventIDAndTruncate(payload, 42)
		require.NoError(t, err)
		assert.Contains(t, result, `"truncated":true`)
		assert.Contains(t, result, `"dbEventId":42`)
		assert.Contains(t, result, "sess-789")
	})

	t.Run("truncated payload without sessionId keeps dbEventId", func(t *testing.T) {
		longDesc := make([]byte, 8000)
		for i := range longDesc {
			longDesc[i] = 'x'
		}
		payload, _ := json.Marshal(OwlVisionPayload{Type: EventOwlVision, Description: string(longDesc)})

		result, err := injectDBEventIDAndTruncate(payload, 99)
		require.NoError(t, err)
		assert.Contains(t, result, `"truncated":true`)
		assert.Contains(t, result, `"dbEventId":99`)
	})
}

func TestNewEventPublisher(t *testing.T) {
	publisher := NewEventPublisher(nil)
	assert.NotNil(t, publisher)
	assert.Nil(t, publisher.db)
}

func TestSessionStartPayload_JSON(t *testing.T) {
	payload := SessionStartPayload{
		Type:      EventSessionStart,
		SessionID: "sess-123",
		Status:    "active",
		MaxSteps:  50,
		Timestamp: "2026-02-10T12:00:00Z",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded SessionStartPayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventSessionStart, decoded.Type)
	assert.Equal(t, "sess-123", decoded.SessionID)
	assert.Equal(t, "active", decoded.Status)
	assert.Equal(t, 50, decoded.MaxSteps)
	assert.Equal(t, "2026-02-10T12:00:00Z", decoded.Timestamp)
}

func TestActionLogPayload_JSON(t *testing.T) {
	payload := ActionLogPayload{
		Type:      EventActionLog,
		SessionID: "sess-123",
		Step:      2,
		Goal:      "click the search box",
		Action:    "click",
		Result:    "clicked",
		URL:       "https://example.com",
		Timestamp: "2026-02-10T12:00:05Z",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded ActionLogPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded.Step)
	assert.Equal(t, "click", decoded.Action)
	assert.Equal(t, "https://example.com", decoded.URL)
}
