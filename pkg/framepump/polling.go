package framepump

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/events"
)

// runPolling is the fallback Frame Pump algorithm (spec §4.4), used when
// CDP screencast is unavailable (no remote browser, or the primary
// algorithm failed to start): capture a PNG through the Screenshotter
// every pollInterval and only
// publish when its content actually changed, bailing after
// maxConsecutivePollFailures in a row.
func (p *Pump) runPolling(ctx context.Context, sessionID string, shots Screenshotter) {
	if shots == nil {
		return
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var frameID int64
	var lastHash [32]byte
	var haveHash bool
	var consecutiveFailures int

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := shots.Screenshot(ctx)
			if err != nil {
				consecutiveFailures++
				if consecutiveFailures >= maxConsecutivePollFailures {
					_ = p.publisher.PublishStreamError(ctx, sessionID, events.StreamErrorPayload{
						Type:      events.EventStreamError,
						SessionID: sessionID,
						Message:   "frame pump: too many consecutive capture failures: " + err.Error(),
						Timestamp: time.Now().Format(time.RFC3339Nano),
					})
					return
				}
				continue
			}
			consecutiveFailures = 0

			leading := data
			if len(leading) > 1024 {
				leading = leading[:1024]
			}
			hash := sha256.Sum256(leading)
			if haveHash && hash == lastHash {
				continue
			}
			lastHash = hash
			haveHash = true

			frameID++
			_ = p.publisher.PublishStreamFrame(ctx, sessionID, events.StreamFramePayload{
				Type:       events.EventStreamFrame,
				SessionID:  sessionID,
				FrameID:    frameID,
				Format:     "png",
				DataBase64: base64.StdEncoding.EncodeToString(data),
				Timestamp:  time.Now().Format(time.RFC3339Nano),
			})
		}
	}
}
