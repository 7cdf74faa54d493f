package director

import (
	"math"

	"github.com/ivlev/kenburns/internal/cache"
	"github.com/ivlev/kenburns/internal/geometry"
)

// span is a stage position within the [0,1] display interval
type span struct {
	start, duration float64
}

var (
	fallbackTiming = []span{{0.0, 0.38}, {0.40, 0.38}, {0.80, 0.20}}
	singleTiming   = []span{{0.0, 0.6}, {0.8, 0.2}}
	pairTiming     = []span{{0.0, 0.5}, {0.55, 0.25}, {0.85, 0.15}}
	groupTiming    = []span{{0.0, 0.3}, {0.33, 0.22}, {0.58, 0.22}, {0.82, 0.18}}
)

// portraitPanFactor stretches the vertical pan of the no-face portrait plan
const portraitPanFactor = 1.5

// Director turns face analysis results into pan-and-zoom plans
type Director struct {
	Viewport     geometry.Size
	MinZoom      float64 // face plans never zoom below this
	FallbackZoom float64 // zoom of the no-face orientation plans
}

// NewDirector creates a new Director with default settings
func NewDirector(viewport geometry.Size) *Director {
	return &Director{
		Viewport:     viewport,
		MinZoom:      1.0,
		FallbackZoom: 2.0,
	}
}

// Plan builds the transform plan for one image in the current viewport.
// Plans are cheap and are rebuilt on every display cycle.
func (d *Director) Plan(info cache.ImageInfo) Plan {
	faces := d.displayRects(info)

	switch len(faces) {
	case 0:
		return d.orientationPlan(info.NaturalSize)
	case 1:
		return d.singleFacePlan(faces[0])
	case 2:
		return d.pairPlan(faces[0], faces[1])
	default:
		return d.groupPlan(faces)
	}
}

// displayRects maps the upright face rects into display space, left to right
func (d *Director) displayRects(info cache.ImageInfo) []geometry.Rect {
	rects := make([]geometry.Rect, 0, len(info.FaceRects))
	for _, r := range info.FaceRects {
		dr := geometry.ScaleToDisplay(r, info.NaturalSize, d.Viewport)
		if dr.Empty() {
			continue
		}
		rects = append(rects, dr)
	}
	return geometry.SortRectsByX(rects)
}

// orientationPlan pans across the image when there is no subject to zoom to
func (d *Director) orientationPlan(natural geometry.Size) Plan {
	z := d.FallbackZoom
	c := d.Viewport.Center()
	zoom := geometry.Scale(z, z)

	var kind Kind
	var first, second geometry.Affine

	if natural.IsLandscape() {
		// first stage puts the left edge of the image on the viewport edge
		off := c.X * (z - 1) / z
		kind = KindLandscape
		first = zoom.Concat(geometry.Translate(z*off, 0))
		second = first.Concat(geometry.Translate(-z*2*off, 0))
	} else {
		off := c.Y * (z - 1) / z
		kind = KindPortrait
		first = zoom.Concat(geometry.Translate(0, z*off))
		second = first.Concat(geometry.Translate(0, -z*portraitPanFactor*off))
	}

	return Plan{
		Kind:   kind,
		Zoom:   z,
		Stages: stages(fallbackTiming, first, second, geometry.Identity()),
	}
}

func (d *Director) singleFacePlan(face geometry.Rect) Plan {
	z := d.zoomFor(face)
	return Plan{
		Kind:    KindSingleFace,
		Zoom:    z,
		Targets: []geometry.Rect{face},
		Stages:  stages(singleTiming, d.centerOn(face, z), geometry.Identity()),
	}
}

func (d *Director) pairPlan(first, second geometry.Rect) Plan {
	z := d.zoomFor(first, second)
	p := d.newPanner(z)

	a := d.centerOn(first, z)
	b := p.step(a, first, second)

	return Plan{
		Kind:    KindTwoFaces,
		Zoom:    z,
		Targets: []geometry.Rect{first, second},
		Stages:  stages(pairTiming, a, b, geometry.Identity()),
	}
}

// groupPlan visits the leftmost face, the middle one and the rightmost one.
// Visiting every face would rush the pans.
func (d *Director) groupPlan(faces []geometry.Rect) Plan {
	targets := []geometry.Rect{
		faces[0],
		faces[len(faces)/2],
		faces[len(faces)-1],
	}

	z := d.zoomFor(targets...)
	p := d.newPanner(z)

	a := d.centerOn(targets[0], z)
	b := p.step(a, targets[0], targets[1])
	c := p.step(b, targets[1], targets[2])

	return Plan{
		Kind:    KindGroup,
		Zoom:    z,
		Targets: targets,
		Stages:  stages(groupTiming, a, b, c, geometry.Identity()),
	}
}

// zoomFor returns the face-driven zoom, floored at MinZoom
func (d *Director) zoomFor(faces ...geometry.Rect) float64 {
	return math.Max(geometry.ZoomScaleFor(faces, d.Viewport.Area()), d.MinZoom)
}

// centerOn zooms by z and then translates, in zoomed units, so the face
// center lands on the viewport center.
func (d *Director) centerOn(face geometry.Rect, z float64) geometry.Affine {
	c := d.Viewport.Center()
	f := face.Center()
	return geometry.Scale(z, z).Concat(geometry.Translate(z*(c.X-f.X), z*(c.Y-f.Y)))
}

// panner applies cumulative face-to-face pans while keeping the running
// vertical offset within one viewport height.
type panner struct {
	zoom    float64
	limit   float64
	offsetY float64
}

func (d *Director) newPanner(z float64) *panner {
	return &panner{zoom: z, limit: d.Viewport.H}
}

// step composes a pan by the difference of the two face origins onto current
func (p *panner) step(current geometry.Affine, from, to geometry.Rect) geometry.Affine {
	dx := p.zoom * (from.X - to.X)
	dy := p.zoom * (from.Y - to.Y)

	total := math.Max(-p.limit, math.Min(p.limit, p.offsetY+dy))
	dy = total - p.offsetY
	p.offsetY = total

	return current.Concat(geometry.Translate(dx, dy))
}

func stages(timing []span, transforms ...geometry.Affine) []Stage {
	out := make([]Stage, len(timing))
	for i, t := range timing {
		out[i] = Stage{
			Start:     t.start,
			Duration:  t.duration,
			Transform: transforms[i],
		}
	}
	return out
}
