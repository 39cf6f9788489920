package vision

import (
	"context"
	"image"
	"sort"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// ContourDetector is the local fallback element detector: a Sobel-gradient
// edge map followed by flood-fill connected-component extraction (spec
// §4.6 step 2 fallback). No ecosystem contour/edge-detection library
// appeared anywhere in the retrieved pack, so this is a justified stdlib
// implementation (see DESIGN.md).
//
// EdgeThreshold is the minimum Sobel gradient magnitude (|gx|+|gy|, where
// each axis gradient ranges 0-1020 on 8-bit input) for a pixel to be
// considered an edge.
type ContourDetector struct {
	EdgeThreshold int
}

// NewContourDetector returns a ContourDetector with a sensible default
// edge threshold.
func NewContourDetector() *ContourDetector {
	return &ContourDetector{EdgeThreshold: 120}
}

// Detect runs edge detection + connected-component extraction. It never
// classifies elements (ElementType is left empty) - classification is the
// primary detector's job; this path only localizes candidate regions.
func (d *ContourDetector) Detect(_ context.Context, img image.Image) ([]Box, error) {
	gray := toGray(img)
	edges := sobelEdgeMap(gray, d.threshold())
	boxes := floodFillComponents(edges)

	filtered := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.W < MinBoxWidth || b.H < MinBoxHeight {
			continue
		}
		filtered = append(filtered, Box{Confidence: 1.0, BoundingBox: b})
	}

	// Largest-area first: a fixed 20-box cap should keep the most salient
	// regions, not an arbitrary scan-order prefix.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].BoundingBox.W*filtered[i].BoundingBox.H >
			filtered[j].BoundingBox.W*filtered[j].BoundingBox.H
	})
	if len(filtered) > MaxFallbackBoxes {
		filtered = filtered[:MaxFallbackBoxes]
	}
	return filtered, nil
}

func (d *ContourDetector) threshold() int {
	if d.EdgeThreshold <= 0 {
		return 120
	}
	return d.EdgeThreshold
}

// toGray converts img to an 8-bit grayscale raster.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

var sobelX = [3][3]int{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}

var sobelY = [3][3]int{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

// sobelEdgeMap returns a boolean grid (indexed [y][x], relative to the
// image bounds) marking pixels whose Sobel gradient magnitude is at least
// threshold.
func sobelEdgeMap(gray *image.Gray, threshold int) [][]bool {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	edges := make([][]bool, h)
	for y := range edges {
		edges[y] = make([]bool, w)
	}

	at := func(x, y int) int {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return int(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := at(x+kx, y+ky)
					gx += sobelX[ky+1][kx+1] * v
					gy += sobelY[ky+1][kx+1] * v
				}
			}
			if abs(gx)+abs(gy) >= threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// floodFillComponents extracts axis-aligned bounding boxes for each
// 4-connected component of true cells in edges.
func floodFillComponents(edges [][]bool) []models.BoundingBox {
	if len(edges) == 0 {
		return nil
	}
	h := len(edges)
	w := len(edges[0])
	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, w)
	}

	var boxes []models.BoundingBox
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !edges[y][x] || visited[y][x] {
				continue
			}
			minX, minY, maxX, maxY := x, y, x, y
			stack := [][2]int{{x, y}}
			visited[y][x] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := p[0], p[1]
				if px < minX {
					minX = px
				}
				if px > maxX {
					maxX = px
				}
				if py < minY {
					minY = py
				}
				if py > maxY {
					maxY = py
				}
				for _, n := range [][2]int{{px + 1, py}, {px - 1, py}, {px, py + 1}, {px, py - 1}} {
					nx, ny := n[0], n[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					if visited[ny][nx] || !edges[ny][nx] {
						continue
					}
					visited[ny][nx] = true
					stack = append(stack, [2]int{nx, ny})
				}
			}
			boxes = append(boxes, models.BoundingBox{
				X: float64(minX),
				Y: float64(minY),
				W: float64(maxX - minX + 1),
				H: float64(maxY - minY + 1),
			})
		}
	}
	return boxes
}
