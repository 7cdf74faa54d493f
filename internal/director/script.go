package director

import (
	"time"

	"github.com/ivlev/kenburns/internal/geometry"
)

// ParseKind maps a scenario kind name back to its Kind
func ParseKind(name string) (Kind, bool) {
	for k := KindLandscape; k <= KindGroup; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return KindLandscape, false
}

// Plan rebuilds the plan recorded in the slide
func (s Slide) Plan() Plan {
	kind, _ := ParseKind(s.Kind)
	return Plan{
		Kind:    kind,
		Zoom:    s.Zoom,
		Targets: s.Targets,
		Stages:  s.Stages(),
	}
}

// Animation rebuilds the timed animation recorded in the slide
func (s Slide) Animation() Animation {
	return Animation{
		Duration: seconds(s.Duration),
		Delay:    seconds(s.Delay),
		Stages:   s.Stages(),
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Script replays the plans of a loaded scenario instead of planning anew.
// Slides are keyed by ID; indices without a slide fall back to the director.
type Script struct {
	slides map[int]Slide
}

// NewScript indexes the slides of sc. Translations are rescaled when the
// scenario was recorded for a different viewport.
func NewScript(sc *Scenario, viewport geometry.Size) *Script {
	sx, sy := 1.0, 1.0
	if sc.Viewport.W > 0 && sc.Viewport.H > 0 {
		sx = viewport.W / sc.Viewport.W
		sy = viewport.H / sc.Viewport.H
	}

	slides := make(map[int]Slide, len(sc.Slides))
	for _, slide := range sc.Slides {
		if sx != 1 || sy != 1 {
			slide = slide.rescaled(sx, sy)
		}
		slides[slide.ID] = slide
	}
	return &Script{slides: slides}
}

// Len returns the number of scripted slides
func (sc *Script) Len() int {
	return len(sc.slides)
}

// Lookup returns the slide recorded for index
func (sc *Script) Lookup(index int) (Slide, bool) {
	if sc == nil {
		return Slide{}, false
	}
	slide, ok := sc.slides[index]
	return slide, ok
}

func (s Slide) rescaled(sx, sy float64) Slide {
	keyframes := make([]Keyframe, len(s.Keyframes))
	for i, kf := range s.Keyframes {
		kf.Transform.TX *= sx
		kf.Transform.TY *= sy
		keyframes[i] = kf
	}
	s.Keyframes = keyframes

	if len(s.Targets) > 0 {
		targets := make([]geometry.Rect, len(s.Targets))
		for i, r := range s.Targets {
			targets[i] = geometry.Rect{X: r.X * sx, Y: r.Y * sy, W: r.W * sx, H: r.H * sy}
		}
		s.Targets = targets
	}
	return s
}
