package renderer

import (
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/geometry"
)

// Interpolate returns the view transform at progress, a fraction of the
// animation's motion time. Inside a stage the transform eases from the
// previous target; between stages it holds.
func Interpolate(from geometry.Affine, stages []director.Stage, progress float64) geometry.Affine {
	current := from

	for _, s := range stages {
		if progress < s.Start {
			return current
		}
		if progress >= s.End() || s.Duration <= 0 {
			current = s.Transform
			continue
		}

		t := (progress - s.Start) / s.Duration
		return current.Lerp(s.Transform, easeInOutCubic(t))
	}

	return current
}

// At returns the view transform of anim at elapsed seconds since it started.
// The initial delay holds from.
func At(from geometry.Affine, anim director.Animation, elapsed float64) geometry.Affine {
	delay := anim.Delay.Seconds()
	if elapsed < delay {
		return from
	}

	duration := anim.Duration.Seconds()
	if duration <= 0 {
		return Interpolate(from, anim.Stages, 1)
	}
	return Interpolate(from, anim.Stages, (elapsed-delay)/duration)
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
