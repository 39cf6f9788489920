package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// Replay drives the dispatcher through a cached low-level plan in order
// (spec §4.5 "Replay algorithm"). It stops and returns the first error
// encountered; the caller is responsible for falling back to the full
// Agent loop without altering the cached plan, per the spec's replay
// policy.
func Replay(ctx context.Context, d *Dispatcher, actions []models.CachedAction) error {
	for i, action := range actions {
		delay, err := replayOne(ctx, d, action)
		if err != nil {
			return fmt.Errorf("browser: replay step %d (%s): %w", i, action.Type, err)
		}

		if action.WaitMs > 0 {
			delay = time.Duration(action.WaitMs) * time.Millisecond
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func replayOne(ctx context.Context, d *Dispatcher, action models.CachedAction) (time.Duration, error) {
	switch action.Type {
	case models.CachedActionClick:
		if err := d.Click(ctx, action.X, action.Y, MouseButtonLeft, 1); err != nil {
			return 0, err
		}
		return ClickReplayDelay, nil
	case models.CachedActionTypeText:
		if err := d.TypeText(ctx, action.Text); err != nil {
			return 0, err
		}
		return TypeReplayDelay, nil
	case models.CachedActionKeyPress:
		if err := d.KeyPress(ctx, action.Key); err != nil {
			return 0, err
		}
		return KeyReplayDelay, nil
	default:
		return 0, fmt.Errorf("unknown cached action type %q", action.Type)
	}
}
