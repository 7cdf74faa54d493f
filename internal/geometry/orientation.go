package geometry

import (
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is the EXIF orientation tag of a stored image (1..8).
type Orientation int

const (
	OrientationUp            Orientation = 1
	OrientationUpMirrored    Orientation = 2
	OrientationDown          Orientation = 3
	OrientationDownMirrored  Orientation = 4
	OrientationLeftMirrored  Orientation = 5
	OrientationRight         Orientation = 6
	OrientationRightMirrored Orientation = 7
	OrientationLeft          Orientation = 8
)

// SwapsAxes reports whether correcting o exchanges width and height
func (o Orientation) SwapsAxes() bool {
	return o >= OrientationLeftMirrored && o <= OrientationLeft
}

// Upright returns the size of a stored image of size s after correcting o
func (o Orientation) Upright(s Size) Size {
	if o.SwapsAxes() {
		return Size{W: s.H, H: s.W}
	}
	return s
}

// Correct returns img rotated/flipped into upright pixel space. Unknown or
// upright orientations return img unchanged.
func (o Orientation) Correct(img image.Image) image.Image {
	switch o {
	case OrientationUpMirrored:
		return imaging.FlipH(img)
	case OrientationDown:
		return imaging.Rotate180(img)
	case OrientationDownMirrored:
		return imaging.FlipV(img)
	case OrientationLeftMirrored:
		return imaging.Transpose(img)
	case OrientationRight:
		return imaging.Rotate270(img)
	case OrientationRightMirrored:
		return imaging.Transverse(img)
	case OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// SizeOf returns the pixel size of img
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{W: float64(b.Dx()), H: float64(b.Dy())}
}
