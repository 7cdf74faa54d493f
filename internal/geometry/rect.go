package geometry

import (
	"fmt"
	"sort"
)

// Point is a position in some 2D coordinate space
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Size is a width/height pair
type Size struct {
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Area returns W*H
func (s Size) Area() float64 {
	return s.W * s.H
}

// IsLandscape reports whether the size is wider than it is tall
func (s Size) IsLandscape() bool {
	return s.W > s.H
}

// Center returns the midpoint of a box of this size anchored at the origin
func (s Size) Center() Point {
	return Point{X: s.W / 2, Y: s.H / 2}
}

// Rect is an axis-aligned rectangle. The meaning of the origin depends on the
// space the rectangle lives in (detector-normalized rects are bottom-left
// origin, upright pixel and display rects are top-left origin).
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Origin returns the rectangle origin
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the rectangle center
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Area returns W*H
func (r Rect) Area() float64 {
	return r.W * r.H
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", r.X, r.Y, r.W, r.H)
}

// SortRectsByX returns a copy of rects ordered ascending by horizontal origin.
// Rects sharing an X keep their relative order.
func SortRectsByX(rects []Rect) []Rect {
	sorted := make([]Rect, len(rects))
	copy(sorted, rects)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	return sorted
}
