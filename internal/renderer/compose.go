package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/kenburns/internal/geometry"
)

// Compose draws img into dst, aspect-filled to dst's size and then moved by
// view, which acts relative to the center of dst.
func Compose(dst *image.RGBA, img image.Image, view geometry.Affine) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if img == nil {
		return
	}

	m := sourceToDestination(img.Bounds(), dst.Bounds(), view)
	draw.ApproxBiLinear.Transform(dst, m, img, img.Bounds(), draw.Over, nil)
}

// sourceToDestination builds the full pixel mapping from src bounds into dst
func sourceToDestination(src, dst image.Rectangle, view geometry.Affine) f64.Aff3 {
	display := geometry.Size{W: float64(dst.Dx()), H: float64(dst.Dy())}
	content := geometry.Size{W: float64(src.Dx()), H: float64(src.Dy())}

	s, off := geometry.AspectFill(content, display)
	c := display.Center()

	t := geometry.Translate(-float64(src.Min.X), -float64(src.Min.Y)).
		Concat(geometry.Scale(s, s)).
		Concat(geometry.Translate(off.X-c.X, off.Y-c.Y)).
		Concat(view).
		Concat(geometry.Translate(c.X+float64(dst.Min.X), c.Y+float64(dst.Min.Y)))

	return f64.Aff3{
		t.A, t.C, t.TX,
		t.B, t.D, t.TY,
	}
}
