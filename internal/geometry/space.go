package geometry

import "math"

const (
	// zoomFactor scales the uncovered display fraction into a zoom level.
	zoomFactor = 3.2
	// zoomSearchStart is where the minimum search begins; any real face lowers it.
	zoomSearchStart = 100.0
)

// Denormalize maps a rect from the unit square into pixel units of extent.
// The vertical origin is left untouched, so a bottom-left normalized rect
// becomes a bottom-left pixel rect.
func Denormalize(r Rect, extent Size) Rect {
	return Rect{
		X: r.X * extent.W,
		Y: r.Y * extent.H,
		W: r.W * extent.W,
		H: r.H * extent.H,
	}
}

// Normalize is the inverse of Denormalize
func Normalize(r Rect, extent Size) Rect {
	if extent.W == 0 || extent.H == 0 {
		return Rect{}
	}
	return Rect{
		X: r.X / extent.W,
		Y: r.Y / extent.H,
		W: r.W / extent.W,
		H: r.H / extent.H,
	}
}

// ToUprightPixelSpace flips a bottom-left origin rect into the top-left origin
// space of an image with the given extent: y' = H - y - h.
func ToUprightPixelSpace(r Rect, extent Size) Rect {
	return Rect{
		X: r.X,
		Y: extent.H - r.Y - r.H,
		W: r.W,
		H: r.H,
	}
}

// FromUprightPixelSpace maps a top-left origin rect back to bottom-left origin.
// The flip is an involution, so this is the same mapping.
func FromUprightPixelSpace(r Rect, extent Size) Rect {
	return ToUprightPixelSpace(r, extent)
}

// AspectFill returns the scale factor and the offset that center content of
// size content inside display while covering it completely.
func AspectFill(content, display Size) (scale float64, offset Point) {
	if content.W <= 0 || content.H <= 0 {
		return 1, Point{}
	}

	scale = math.Max(display.W/content.W, display.H/content.H)
	offset = Point{
		X: (display.W - content.W*scale) / 2,
		Y: (display.H - content.H*scale) / 2,
	}
	return scale, offset
}

// ScaleToDisplay maps a rect in content pixel space into display space using
// aspect-fill scaling centered in the display bounds.
func ScaleToDisplay(r Rect, content, display Size) Rect {
	s, off := AspectFill(content, display)
	return Rect{
		X: r.X*s + off.X,
		Y: r.Y*s + off.Y,
		W: r.W * s,
		H: r.H * s,
	}
}

// ZoomScaleFor returns the zoom level for a set of display-space face rects.
// Each face contributes (1 - area/displayArea) * 3.2 and the smallest
// contribution wins, so larger faces zoom less. No lower bound is applied
// here; a face covering the whole display yields 0.
func ZoomScaleFor(rects []Rect, displayArea float64) float64 {
	zoom := zoomSearchStart
	if displayArea <= 0 {
		return zoom
	}

	for _, r := range rects {
		fraction := r.Area() / displayArea
		candidate := (1 - fraction) * zoomFactor
		if candidate < zoom {
			zoom = candidate
		}
	}

	return zoom
}
