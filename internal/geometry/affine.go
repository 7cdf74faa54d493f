package geometry

import "math"

// Affine is a 2D affine transform mapping (x, y) to
// (A*x + C*y + TX, B*x + D*y + TY).
//
// View transforms produced by the planner act in display space relative to the
// viewport center, so Identity leaves the aspect-filled image untouched.
type Affine struct {
	A  float64 `yaml:"a"`
	B  float64 `yaml:"b"`
	C  float64 `yaml:"c"`
	D  float64 `yaml:"d"`
	TX float64 `yaml:"tx"`
	TY float64 `yaml:"ty"`
}

// Identity returns the identity transform
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Scale returns a transform scaling by sx, sy
func Scale(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Translate returns a transform translating by dx, dy
func Translate(dx, dy float64) Affine {
	return Affine{A: 1, D: 1, TX: dx, TY: dy}
}

// Concat returns the transform that applies t first and then u.
func (t Affine) Concat(u Affine) Affine {
	return Affine{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		TX: t.TX*u.A + t.TY*u.C + u.TX,
		TY: t.TX*u.B + t.TY*u.D + u.TY,
	}
}

// Apply maps p through t
func (t Affine) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.TX,
		Y: t.B*p.X + t.D*p.Y + t.TY,
	}
}

// IsIdentity reports whether t is the identity within a small tolerance
func (t Affine) IsIdentity() bool {
	return t.ApproxEqual(Identity(), 1e-9)
}

// ApproxEqual compares every component of t and u within eps
func (t Affine) ApproxEqual(u Affine, eps float64) bool {
	return math.Abs(t.A-u.A) <= eps &&
		math.Abs(t.B-u.B) <= eps &&
		math.Abs(t.C-u.C) <= eps &&
		math.Abs(t.D-u.D) <= eps &&
		math.Abs(t.TX-u.TX) <= eps &&
		math.Abs(t.TY-u.TY) <= eps
}

// Lerp interpolates every component between t and u. For the scale+translate
// transforms used by the planner this is the natural pan/zoom blend.
func (t Affine) Lerp(u Affine, f float64) Affine {
	mix := func(a, b float64) float64 { return a + (b-a)*f }
	return Affine{
		A:  mix(t.A, u.A),
		B:  mix(t.B, u.B),
		C:  mix(t.C, u.C),
		D:  mix(t.D, u.D),
		TX: mix(t.TX, u.TX),
		TY: mix(t.TY, u.TY),
	}
}
