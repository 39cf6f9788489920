package vision

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rectImage returns a white canvas with a single filled black rectangle,
// which should produce one strong edge-bounded component.
func rectImage(w, h, rx0, ry0, rx1, ry1 int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := ry0; y < ry1; y++ {
		for x := rx0; x < rx1; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestContourDetector_FindsARectangularRegion(t *testing.T) {
	img := rectImage(200, 120, 40, 30, 120, 80)
	d := NewContourDetector()

	boxes, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	require.NotEmpty(t, boxes)

	found := false
	for _, b := range boxes {
		if b.BoundingBox.W >= MinBoxWidth && b.BoundingBox.H >= MinBoxHeight {
			found = true
		}
	}
	assert.True(t, found, "expected at least one box meeting the minimum size")
}

func TestContourDetector_DiscardsBoxesSmallerThanMinimum(t *testing.T) {
	img := rectImage(100, 100, 10, 10, 20, 15) // 10x5, below MinBoxWidth/MinBoxHeight
	d := NewContourDetector()

	boxes, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	for _, b := range boxes {
		assert.GreaterOrEqual(t, b.BoundingBox.W, float64(MinBoxWidth))
		assert.GreaterOrEqual(t, b.BoundingBox.H, float64(MinBoxHeight))
	}
}

func TestContourDetector_CapsAtMaxFallbackBoxes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.White)
		}
	}
	// Lay out more than MaxFallbackBoxes disjoint rectangles on a grid.
	for row := 0; row < 6; row++ {
		for col := 0; col < 6; col++ {
			x0, y0 := col*130+5, row*130+5
			for y := y0; y < y0+40; y++ {
				for x := x0; x < x0+60; x++ {
					img.Set(x, y, color.Black)
				}
			}
		}
	}

	d := NewContourDetector()
	boxes, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(boxes), MaxFallbackBoxes)
}
