package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // decode JPEG screenshots passed to Run
	"image/png"
	"sync"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// ErrNoMarks is returned by Resolve when no marking pass has run yet, or
// the most recent pass produced no marks.
var ErrNoMarks = fmt.Errorf("vision: no marks available")

// ErrMarkOutOfRange is returned by Resolve for a mark_id outside the most
// recent pass's range.
type ErrMarkOutOfRange struct {
	MarkID int
}

func (e *ErrMarkOutOfRange) Error() string {
	return fmt.Sprintf("vision: mark_id %d is out of range", e.MarkID)
}

// Grounder runs the Vision Grounding pipeline for one session: decode,
// detect, mark, overlay (spec §4.6). It also tracks the most recent
// marks so Resolve can answer click_by_mark coordinate lookups.
//
// Grounded on no teacher equivalent (the teacher has no vision stage);
// built directly from spec.md §4.6's five-step pipeline.
type Grounder struct {
	primary  Detector
	fallback Detector

	mu    sync.Mutex
	marks []models.MarkedElement
}

// New returns a Grounder. primary is tried first (typically an
// MCPDetector); fallback runs only if primary is nil or returns an error
// (typically a ContourDetector).
func New(primary, fallback Detector) *Grounder {
	return &Grounder{primary: primary, fallback: fallback}
}

// Run executes the marking pipeline against a raw screenshot (PNG or
// JPEG bytes) and returns the annotated result. It also replaces the
// Grounder's current mark set, invalidating any marks from a prior pass
// (spec §4.6 invariant: marks are valid only until the next screenshot).
func (g *Grounder) Run(ctx context.Context, screenshot []byte) (models.VisionResult, error) {
	img, _, err := image.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return models.VisionResult{}, fmt.Errorf("decode screenshot: %w", err)
	}

	boxes, err := g.detect(ctx, img)
	if err != nil {
		return models.VisionResult{}, err
	}

	marks := assignMarks(boxes)

	g.mu.Lock()
	g.marks = marks
	g.mu.Unlock()

	annotated := drawOverlay(img, marks)
	var buf bytes.Buffer
	if err := png.Encode(&buf, annotated); err != nil {
		return models.VisionResult{}, fmt.Errorf("encode annotated screenshot: %w", err)
	}

	return models.VisionResult{
		AnnotatedImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Marks:                marks,
		Description:          describe(marks),
	}, nil
}

// detect tries the primary detector first, falling back on error or when
// no primary detector is configured. The class+confidence filter (spec
// §4.6 step 2) applies only to the primary detector's output; the
// fallback's own size/count limits are its filter.
func (g *Grounder) detect(ctx context.Context, img image.Image) ([]Box, error) {
	var primaryErr error
	if g.primary != nil {
		boxes, err := g.primary.Detect(ctx, img)
		if err == nil {
			return filterPrimary(boxes), nil
		}
		primaryErr = err
	}

	if g.fallback == nil {
		if primaryErr != nil {
			return nil, fmt.Errorf("vision: primary detector failed and no fallback configured: %w", primaryErr)
		}
		return nil, fmt.Errorf("vision: no detector configured")
	}

	boxes, err := g.fallback.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("vision: fallback detector failed: %w", err)
	}
	return boxes, nil
}

func filterPrimary(boxes []Box) []Box {
	out := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < MinConfidence {
			continue
		}
		if !AllowedClasses[b.ElementType] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// assignMarks assigns dense 1-indexed mark_ids in detection order (spec
// §4.6 step 3).
func assignMarks(boxes []Box) []models.MarkedElement {
	marks := make([]models.MarkedElement, 0, len(boxes))
	for i, b := range boxes {
		marks = append(marks, models.MarkedElement{
			MarkID:      i + 1,
			ElementType: b.ElementType,
			BoundingBox: b.BoundingBox,
			Center:      b.BoundingBox.Center(),
			Text:        b.Text,
			Confidence:  b.Confidence,
		})
	}
	return marks
}

// Resolve returns the stored center coordinate for markID from the most
// recent Run (spec §4.6 "Coordinate resolution").
func (g *Grounder) Resolve(markID int) (models.Point, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.marks) == 0 {
		return models.Point{}, ErrNoMarks
	}
	for _, m := range g.marks {
		if m.MarkID == markID {
			return m.Center, nil
		}
	}
	return models.Point{}, &ErrMarkOutOfRange{MarkID: markID}
}

// CurrentMarks returns a copy of the most recent pass's marks.
func (g *Grounder) CurrentMarks() []models.MarkedElement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.MarkedElement(nil), g.marks...)
}
