package framepump

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/cdp"
	"github.com/codeready-toolchain/tarsy/pkg/events"
)

// screencastFrameEvent is the subset of Page.screencastFrame's params this
// package needs.
type screencastFrameEvent struct {
	Data      string `json:"data"`
	SessionID int    `json:"sessionId"`
}

// runScreencast is the primary Frame Pump algorithm (spec §4.4): register
// a Page.screencastFrame listener, start the browser's screencast capped
// at ~15fps, ack every inbound frame for flow control, and idle-sleep
// checking the stop-flag and client liveness until the context is
// cancelled.
func (p *Pump) runScreencast(ctx context.Context, sessionID string, client *cdp.Client) error {
	frames := make(chan screencastFrameEvent, 8)
	client.OnEvent("Page.screencastFrame", func(params json.RawMessage) {
		var evt screencastFrameEvent
		if err := json.Unmarshal(params, &evt); err != nil {
			return
		}
		select {
		case frames <- evt:
		default:
			// subscriber absorbs or drops; the browser must never be
			// back-pressured by a slow consumer.
		}
	})

	startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := client.Send(startCtx, "Page.startScreencast", map[string]any{
		"format":        "jpeg",
		"quality":       60,
		"maxWidth":      1280,
		"maxHeight":     720,
		"everyNthFrame": 2,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("framepump: startScreencast: %w", err)
	}
	defer stopScreencastBestEffort(client)

	var frameID int64
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// liveness/stop-flag check point; nothing to do if still alive.
		case evt := <-frames:
			frameID++
			data, decodeErr := base64.StdEncoding.DecodeString(evt.Data)
			if decodeErr != nil {
				continue
			}
			if pubErr := p.publisher.PublishStreamFrame(ctx, sessionID, events.StreamFramePayload{
				Type:       events.EventStreamFrame,
				SessionID:  sessionID,
				FrameID:    frameID,
				Format:     "jpeg",
				DataBase64: base64.StdEncoding.EncodeToString(data),
				Timestamp:  time.Now().Format(time.RFC3339Nano),
			}); pubErr != nil {
				_ = p.publisher.PublishStreamError(ctx, sessionID, events.StreamErrorPayload{
					Type:      events.EventStreamError,
					SessionID: sessionID,
					Message:   pubErr.Error(),
					Timestamp: time.Now().Format(time.RFC3339Nano),
				})
			}
			ackCtx, ackCancel := context.WithTimeout(ctx, 2*time.Second)
			_, _ = client.Send(ackCtx, "Page.screencastFrameAck", map[string]int{"sessionId": evt.SessionID})
			ackCancel()
		}
	}
}

func stopScreencastBestEffort(client *cdp.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	_, _ = client.Send(ctx, "Page.stopScreencast", nil)
}
