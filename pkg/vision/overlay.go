package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// markCircleDiameter is the diameter, in pixels, of the filled circle
// drawn at an element's top-left corner (spec §4.6 step 4).
const markCircleDiameter = 24

// palette is the 8-color cycle keyed by mark_id % 8 (spec §4.6 step 4).
var palette = []color.RGBA{
	{R: 0xE6, G: 0x19, B: 0x4B, A: 0xFF}, // red
	{R: 0x3C, G: 0xB4, B: 0x4B, A: 0xFF}, // green
	{R: 0x43, G: 0x63, B: 0xD8, A: 0xFF}, // blue
	{R: 0xF5, G: 0x82, B: 0x31, A: 0xFF}, // orange
	{R: 0x91, G: 0x1E, B: 0xB4, A: 0xFF}, // purple
	{R: 0x00, G: 0xB4, B: 0xB4, A: 0xFF}, // teal
	{R: 0xF4, G: 0xCE, B: 0x0A, A: 0xFF}, // yellow
	{R: 0xA0, G: 0x52, B: 0x2D, A: 0xFF}, // brown
}

func colorFor(markID int) color.RGBA {
	return palette[(markID-1)%len(palette)]
}

// drawOverlay renders bounding rectangles, numbered mark circles, and
// optional label strips onto a copy of img, per spec §4.6 step 4.
func drawOverlay(img image.Image, marks []models.MarkedElement) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	for _, m := range marks {
		c := colorFor(m.MarkID)
		drawRect(out, m.BoundingBox, c)
		drawMarkCircle(out, m.BoundingBox.X, m.BoundingBox.Y, c, m.MarkID)
		if m.ElementType != "" {
			drawLabelStrip(out, m.BoundingBox, c, m.ElementType)
		}
	}
	return out
}

func drawRect(img *image.RGBA, box models.BoundingBox, c color.RGBA) {
	x0, y0 := int(box.X), int(box.Y)
	x1, y1 := int(box.X+box.W), int(box.Y+box.H)
	for x := x0; x < x1; x++ {
		setIfIn(img, x, y0, c)
		setIfIn(img, x, y1-1, c)
	}
	for y := y0; y < y1; y++ {
		setIfIn(img, x0, y, c)
		setIfIn(img, x1-1, y, c)
	}
}

func drawMarkCircle(img *image.RGBA, cx, cy float64, c color.RGBA, markID int) {
	r := markCircleDiameter / 2
	centerX, centerY := int(cx)+r, int(cy)+r

	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setIfIn(img, centerX+dx, centerY+dy, c)
			}
		}
	}
	drawCenteredLabel(img, centerX, centerY, strconv.Itoa(markID), color.White)
}

func drawLabelStrip(img *image.RGBA, box models.BoundingBox, c color.RGBA, label string) {
	stripHeight := 14
	x0 := int(box.X)
	y0 := int(box.Y + box.H)
	x1 := x0 + len(label)*7 + 6
	y1 := y0 + stripHeight

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			setIfIn(img, x, y, c)
		}
	}
	drawLabel(img, x0+3, y0+stripHeight-3, label, color.White)
}

func setIfIn(img *image.RGBA, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}.In(img.Bounds())) {
		img.Set(x, y, c)
	}
}

var labelFace = basicfont.Face7x13

func drawLabel(img *image.RGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: labelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawCenteredLabel(img *image.RGBA, centerX, centerY int, text string, c color.Color) {
	width := font.MeasureString(labelFace, text).Ceil()
	drawLabel(img, centerX-width/2, centerY+4, text, c)
}

// describe renders the newline-joined `[N] type "text…"` table (spec §4.6
// step 5).
func describe(marks []models.MarkedElement) string {
	out := ""
	for i, m := range marks {
		if i > 0 {
			out += "\n"
		}
		text := m.Text
		if len(text) > 40 {
			text = text[:40] + "…"
		}
		out += fmt.Sprintf("[%d] %s %q", m.MarkID, elementTypeOrUnknown(m.ElementType), text)
	}
	return out
}

func elementTypeOrUnknown(t string) string {
	if t == "" {
		return "unknown"
	}
	return t
}
