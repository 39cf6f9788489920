package models

// BoundingBox is an axis-aligned pixel rectangle on a screenshot.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a pixel coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// MarkedElement is one numbered overlay produced for a single screenshot.
// Valid only until the next screenshot is taken (spec §4.6 invariant).
type MarkedElement struct {
	MarkID      int         `json:"mark_id"`
	ElementType string      `json:"element_type"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Center      Point       `json:"center"`
	Text        string      `json:"text,omitempty"`
	Confidence  float64     `json:"confidence"`
}

// VisionResult is the output of one Vision Grounding pass: the annotated
// image, the dense mark list, and a human-readable table description.
type VisionResult struct {
	AnnotatedImageBase64 string          `json:"annotated_image_base64"`
	Marks                []MarkedElement `json:"marks"`
	Description          string          `json:"description"`
}
