package models

// FrameFormat is the image encoding of a Frame.
type FrameFormat string

const (
	FrameJPEG FrameFormat = "jpeg"
	FramePNG  FrameFormat = "png"
)

// Frame is one ephemeral image delivered by the Frame Pump. Never
// persisted.
type Frame struct {
	SessionID string      `json:"session_id"`
	Data      []byte      `json:"data"`
	Format    FrameFormat `json:"format"`
	FrameID   int64       `json:"frame_id"`
}
