package engine

import (
	"context"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/browser"
)

// screenshotAttemptTimeout caps each individual strategy attempt (spec
// §4.7 "Screenshot capture", "each capped at 3 s").
const screenshotAttemptTimeout = 3 * time.Second

// captureScreenshot tries up to four strategies in order, the first that
// yields bytes wins; if all fail it is logged by the caller and does not
// abort the step (spec §4.7 "Screenshot capture").
func captureScreenshot(ctx context.Context, surface *browser.Surface) ([]byte, error) {
	attempt := func() ([]byte, error) {
		actx, cancel := context.WithTimeout(ctx, screenshotAttemptTimeout)
		defer cancel()
		return surface.Screenshot(actx)
	}

	// a. Immediate capture of the active page.
	if b, err := attempt(); err == nil {
		return b, nil
	}

	// b. After a short pause, retry.
	select {
	case <-time.After(300 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if b, err := attempt(); err == nil {
		return b, nil
	}

	// c. Wait for the page to report a settled ready state, then capture.
	readyCtx, readyCancel := context.WithTimeout(ctx, screenshotAttemptTimeout)
	_, _ = surface.Evaluate(readyCtx, "document.readyState")
	readyCancel()
	if b, err := attempt(); err == nil {
		return b, nil
	}

	// d. One more short delay, then a final attempt.
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return attempt()
}
