package analyzer

import (
	"errors"
	"image"

	"github.com/ivlev/kenburns/internal/geometry"
)

// ErrEmptyImage is returned when an image has no pixels to analyze
var ErrEmptyImage = errors.New("image has no pixels")

// FaceDetector finds faces (or other subjects) in an upright image.
//
// Detect returns bounding boxes normalized to the unit square with a
// bottom-left origin, in no particular order.
type FaceDetector interface {
	Detect(img image.Image) ([]geometry.Rect, error)
}

// DetectorFunc adapts a function to FaceDetector
type DetectorFunc func(img image.Image) ([]geometry.Rect, error)

// Detect calls f(img)
func (f DetectorFunc) Detect(img image.Image) ([]geometry.Rect, error) {
	return f(img)
}

// NoFaces never detects anything; every image uses the orientation fallback
type NoFaces struct{}

// Detect returns no rects
func (NoFaces) Detect(img image.Image) ([]geometry.Rect, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return nil, nil
}

// normalizeTopLeft converts a top-left pixel rect of an image of size extent
// into the detector-normalized, bottom-left origin convention.
func normalizeTopLeft(r geometry.Rect, extent geometry.Size) geometry.Rect {
	return geometry.Normalize(geometry.FromUprightPixelSpace(r, extent), extent)
}

// clampRect intersects r with the image extent
func clampRect(r geometry.Rect, extent geometry.Size) geometry.Rect {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.W, extent.W), min(r.Y+r.H, extent.H)
	if x1 <= x0 || y1 <= y0 {
		return geometry.Rect{}
	}
	return geometry.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
