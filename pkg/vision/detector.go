// Package vision implements Vision Grounding: overlaying numbered marks on
// a screenshot so an LLM (or caller) can select interactive elements
// visually, and resolving a mark back to page coordinates (spec §4.6).
package vision

import (
	"context"
	"image"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// AllowedClasses is the interactive-element class filter applied to the
// primary (remote) detector's output (spec §4.6 step 2).
var AllowedClasses = map[string]bool{
	"button":     true,
	"input":      true,
	"link":       true,
	"checkbox":   true,
	"radio":      true,
	"dropdown":   true,
	"slider":     true,
	"tab":        true,
	"menu":       true,
	"navigation": true,
}

// MinConfidence is the confidence threshold applied to the primary
// detector's output (spec §4.6 step 2).
const MinConfidence = 0.5

// MinBoxWidth and MinBoxHeight are the fallback detector's minimum box
// dimensions; smaller boxes are discarded (spec §4.6 step 2 fallback).
const (
	MinBoxWidth  = 30
	MinBoxHeight = 15
)

// MaxFallbackBoxes caps how many boxes the fallback detector keeps.
const MaxFallbackBoxes = 20

// Box is one detected element before mark-id assignment.
type Box struct {
	ElementType string
	Confidence  float64
	BoundingBox models.BoundingBox
	Text        string
}

// Detector locates interactive elements in a decoded screenshot.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Box, error)
}
