package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/cdp"
)

// MouseButton is the CDP Input.dispatchMouseEvent button name.
type MouseButton string

const (
	MouseButtonLeft   MouseButton = "left"
	MouseButtonRight  MouseButton = "right"
	MouseButtonMiddle MouseButton = "middle"
)

// Dispatcher issues the low-level CDP input commands the Action Cache
// replays byte-for-byte (spec §4.3 "CDP Action Dispatcher"): it exists so
// that deterministic replay reproduces the original actions' effect
// without re-planning.
type Dispatcher struct {
	client *cdp.Client
}

// NewDispatcher wraps an already-connected CDP client with the low-level
// input dispatcher.
func NewDispatcher(client *cdp.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Click dispatches Input.dispatchMouseEvent in the sequence
// moved → pressed → released, repeating the press/release pair count
// times at the same (x, y).
func (d *Dispatcher) Click(ctx context.Context, x, y float64, button MouseButton, count int) error {
	if count < 1 {
		count = 1
	}

	if _, err := d.client.Send(ctx, "Input.dispatchMouseEvent", map[string]any{
		"type": "mouseMoved",
		"x":    x,
		"y":    y,
	}); err != nil {
		return fmt.Errorf("browser: dispatch mouseMoved: %w", err)
	}

	for i := 0; i < count; i++ {
		if _, err := d.client.Send(ctx, "Input.dispatchMouseEvent", map[string]any{
			"type":       "mousePressed",
			"x":          x,
			"y":          y,
			"button":     button,
			"clickCount": i + 1,
		}); err != nil {
			return fmt.Errorf("browser: dispatch mousePressed: %w", err)
		}
		if _, err := d.client.Send(ctx, "Input.dispatchMouseEvent", map[string]any{
			"type":       "mouseReleased",
			"x":          x,
			"y":          y,
			"button":     button,
			"clickCount": i + 1,
		}); err != nil {
			return fmt.Errorf("browser: dispatch mouseReleased: %w", err)
		}
	}
	return nil
}

// TypeText emits Input.insertText as a single atomic command.
func (d *Dispatcher) TypeText(ctx context.Context, text string) error {
	if _, err := d.client.Send(ctx, "Input.insertText", map[string]string{"text": text}); err != nil {
		return fmt.Errorf("browser: dispatch insertText: %w", err)
	}
	return nil
}

// KeyPress emits Input.dispatchKeyEvent keyDown then keyUp for key (a CDP
// key name, e.g. "Enter", "Tab").
func (d *Dispatcher) KeyPress(ctx context.Context, key string) error {
	if _, err := d.client.Send(ctx, "Input.dispatchKeyEvent", map[string]any{
		"type": "keyDown",
		"key":  key,
	}); err != nil {
		return fmt.Errorf("browser: dispatch keyDown: %w", err)
	}
	if _, err := d.client.Send(ctx, "Input.dispatchKeyEvent", map[string]any{
		"type": "keyUp",
		"key":  key,
	}); err != nil {
		return fmt.Errorf("browser: dispatch keyUp: %w", err)
	}
	return nil
}

// Default post-action delays for cached-plan replay (spec §4.5).
const (
	ClickReplayDelay = 500 * time.Millisecond
	TypeReplayDelay  = 100 * time.Millisecond
	KeyReplayDelay   = 100 * time.Millisecond
)
