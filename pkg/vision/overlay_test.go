package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

func TestColorFor_CyclesThroughEightColorPaletteByMarkIDModEight(t *testing.T) {
	assert.Equal(t, colorFor(1), colorFor(9))
	assert.Equal(t, colorFor(8), colorFor(16))
	assert.NotEqual(t, colorFor(1), colorFor(2))
}

func TestDrawOverlay_ProducesAnImageOfTheSameBounds(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			base.Set(x, y, color.White)
		}
	}
	marks := []models.MarkedElement{
		{MarkID: 1, ElementType: "button", BoundingBox: models.BoundingBox{X: 10, Y: 10, W: 30, H: 20}},
	}

	out := drawOverlay(base, marks)
	assert.Equal(t, base.Bounds(), out.Bounds())
}

func TestDescribe_FormatsNewlineJoinedMarkTable(t *testing.T) {
	marks := []models.MarkedElement{
		{MarkID: 1, ElementType: "button", Text: "Submit"},
		{MarkID: 2, ElementType: "", Text: "hello"},
	}
	desc := describe(marks)
	assert.Equal(t, "[1] button \"Submit\"\n[2] unknown \"hello\"", desc)
}

func TestDescribe_TruncatesLongText(t *testing.T) {
	longText := "this is a very long label that should be truncated at forty characters exactly"
	marks := []models.MarkedElement{{MarkID: 1, ElementType: "link", Text: longText}}
	desc := describe(marks)
	assert.Contains(t, desc, "…")
}
