package director

import (
	"github.com/ivlev/kenburns/internal/cache"
	"github.com/ivlev/kenburns/internal/geometry"
)

// Scenario is the exported set of plans for a slideshow
type Scenario struct {
	Version  string        `yaml:"version"`
	Viewport geometry.Size `yaml:"viewport"`
	Slides   []Slide       `yaml:"slides"`
}

// Slide represents a single image with its animation keyframes
type Slide struct {
	ID        int             `yaml:"id"`
	Input     string          `yaml:"input"`
	Kind      string          `yaml:"kind"`
	Faces     int             `yaml:"faces"`
	Zoom      float64         `yaml:"zoom"`
	Delay     float64         `yaml:"delay"`    // seconds of static hold
	Duration  float64         `yaml:"duration"` // seconds of motion
	Error     string          `yaml:"error,omitempty"`
	Targets   []geometry.Rect `yaml:"targets,omitempty"`
	Keyframes []Keyframe      `yaml:"keyframes"`
}

// Keyframe is one plan stage
type Keyframe struct {
	Start     float64         `yaml:"start"`
	Duration  float64         `yaml:"duration"`
	Transform geometry.Affine `yaml:"transform"`
}

// NewSlide records the plan and animation computed for info
func NewSlide(info cache.ImageInfo, input string, plan Plan, anim Animation) Slide {
	slide := Slide{
		ID:        info.Index,
		Input:     input,
		Kind:      plan.Kind.String(),
		Faces:     info.FaceCount(),
		Zoom:      plan.Zoom,
		Delay:     anim.Delay.Seconds(),
		Duration:  anim.Duration.Seconds(),
		Targets:   plan.Targets,
		Keyframes: make([]Keyframe, len(plan.Stages)),
	}
	if info.Err != nil {
		slide.Error = info.Err.Error()
	}

	for i, s := range plan.Stages {
		slide.Keyframes[i] = Keyframe{
			Start:     s.Start,
			Duration:  s.Duration,
			Transform: s.Transform,
		}
	}

	return slide
}

// Stages converts the keyframes back into plan stages
func (s Slide) Stages() []Stage {
	stages := make([]Stage, len(s.Keyframes))
	for i, kf := range s.Keyframes {
		stages[i] = Stage{
			Start:     kf.Start,
			Duration:  kf.Duration,
			Transform: kf.Transform,
		}
	}
	return stages
}
