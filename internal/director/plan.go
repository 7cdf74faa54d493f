package director

import (
	"time"

	"github.com/ivlev/kenburns/internal/geometry"
)

// Kind names the strategy a plan was built with
type Kind int

const (
	KindLandscape Kind = iota
	KindPortrait
	KindSingleFace
	KindTwoFaces
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLandscape:
		return "landscape"
	case KindPortrait:
		return "portrait"
	case KindSingleFace:
		return "single_face"
	case KindTwoFaces:
		return "two_faces"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// HasFaces reports whether the plan is driven by detected faces
func (k Kind) HasFaces() bool {
	return k == KindSingleFace || k == KindTwoFaces || k == KindGroup
}

// Stage animates the view transform towards Transform between Start and
// Start+Duration, both fractions of the image's display time.
type Stage struct {
	Start     float64
	Duration  float64
	Transform geometry.Affine
}

// End returns the fraction at which the stage completes
func (s Stage) End() float64 {
	return s.Start + s.Duration
}

// Plan is the pan/zoom script for one image
type Plan struct {
	Kind    Kind
	Zoom    float64
	Targets []geometry.Rect // display-space faces the plan visits
	Stages  []Stage         // ordered, ends at the identity
}

// HasFaces reports whether the plan is driven by detected faces
func (p Plan) HasFaces() bool {
	return p.Kind.HasFaces()
}

// Final returns the transform the plan settles on
func (p Plan) Final() geometry.Affine {
	if len(p.Stages) == 0 {
		return geometry.Identity()
	}
	return p.Stages[len(p.Stages)-1].Transform
}

// Animation is a timed keyframe animation: Delay of static hold, then the
// stages spread over Duration.
type Animation struct {
	Duration time.Duration
	Delay    time.Duration
	Stages   []Stage
}

// Total returns the wall time the animation occupies
func (a Animation) Total() time.Duration {
	return a.Delay + a.Duration
}

// NewAnimation wraps a plan into an animation. Only face plans get the
// initial hold.
func NewAnimation(p Plan, duration, hold time.Duration) Animation {
	anim := Animation{
		Duration: duration,
		Stages:   p.Stages,
	}
	if p.HasFaces() {
		anim.Delay = hold
	}
	return anim
}
