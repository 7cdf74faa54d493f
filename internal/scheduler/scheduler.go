package scheduler

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ivlev/kenburns/internal/cache"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/source"
)

// ErrNoImages is returned by Run when there is nothing to show
var ErrNoImages = errors.New("scheduler has no images")

const defaultMissGrace = time.Duration(config.DefaultMissGrace * float64(time.Second))

// Surface is the display the slideshow drives. All calls come from the
// scheduler goroutine.
type Surface interface {
	// SetImage replaces the shown image, cross-fading over fade
	SetImage(img image.Image, fade time.Duration)
	// SetTransform sets the view transform without animation
	SetTransform(t geometry.Affine)
	// AnimateKeyframes plays anim and calls onComplete exactly once,
	// with finished=false when the animation was cut short.
	AnimateKeyframes(anim director.Animation, onComplete func(finished bool))
	// CancelAnimations stops the animation in flight
	CancelAnimations()
}

// Display describes one image being put on screen
type Display struct {
	Index     int
	Info      cache.ImageInfo
	Plan      director.Plan
	Animation director.Animation
}

// Scheduler is the slideshow state machine. It cycles through the images
// forever, or until Cycles animations completed, reading analysis results
// from the cache as they become available.
type Scheduler struct {
	Images   []source.Image
	Cache    *cache.Cache
	Director *director.Director
	Surface  Surface
	Timing   config.Timing
	Cycles   int // completed animations before stopping, 0 = forever

	Clock     clock.Clock
	OnDisplay func(Display)
	Script    *director.Script // recorded plans take precedence over Director

	logger  *zap.SugaredLogger
	upright []image.Image

	mu    sync.Mutex
	state State
	index int
}

func New(images []source.Image, c *cache.Cache, d *director.Director, surface Surface, timing config.Timing, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		Images:   images,
		Cache:    c,
		Director: d,
		Surface:  surface,
		Timing:   timing,
		Clock:    clock.New(),
		logger:   logger,
		upright:  make([]image.Image, len(images)),
		index:    -1,
	}
}

// State returns the current state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Index returns the index on screen, or -1 before the first display
func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Scheduler) setState(state State, index int) {
	s.mu.Lock()
	s.state = state
	s.index = index
	s.mu.Unlock()
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
}

// Run waits for ready, then plays the slideshow. It returns nil after the
// cycle limit and ctx.Err() when cancelled; either way the state ends Stopped.
func (s *Scheduler) Run(ctx context.Context, ready <-chan struct{}) error {
	n := len(s.Images)
	if n == 0 {
		s.stop()
		return ErrNoImages
	}

	if len(s.upright) != n {
		s.upright = make([]image.Image, n)
	}
	if s.Clock == nil {
		s.Clock = clock.New()
	}
	// a zero grace would turn a stalled analysis into a busy loop
	if s.Timing.MissGrace <= 0 {
		s.Timing.MissGrace = defaultMissGrace
	}

	s.setState(StateAwaitingFirstAnalysis, -1)
	select {
	case <-ready:
	case <-ctx.Done():
		s.stop()
		return ctx.Err()
	}

	completed := 0
	for i := 0; ; i = (i + 1) % n {
		info, ok := s.await(ctx, i)
		if ctx.Err() != nil {
			s.stop()
			return ctx.Err()
		}
		if !ok {
			s.logger.Warnw("Analysis not ready, skipping image", "index", i, "grace", s.Timing.MissGrace)
			continue
		}

		finished, err := s.display(ctx, i, info)
		if err != nil {
			s.stop()
			return err
		}
		if !finished {
			s.logger.Warnw("Animation interrupted", "index", i)
		}

		completed++
		if s.Cycles > 0 && completed >= s.Cycles {
			s.logger.Debugw("Cycle limit reached", "completed", completed)
			s.stop()
			return nil
		}
	}
}

// await returns the analysis of index i, waiting at most the miss grace.
func (s *Scheduler) await(ctx context.Context, i int) (cache.ImageInfo, bool) {
	if info, ok := s.Cache.Lookup(i); ok {
		return info, true
	}

	timer := s.Clock.Timer(s.Timing.MissGrace)
	defer timer.Stop()

	select {
	case <-s.Cache.Ready(i):
		return s.Cache.Lookup(i)
	case <-timer.C:
		return cache.ImageInfo{}, false
	case <-ctx.Done():
		return cache.ImageInfo{}, false
	}
}

// plan returns the recorded plan for i when the script has one, otherwise
// a fresh plan from the director.
func (s *Scheduler) plan(i int, info cache.ImageInfo) (director.Plan, director.Animation, bool) {
	if slide, ok := s.Script.Lookup(i); ok {
		return slide.Plan(), slide.Animation(), true
	}
	plan := s.Director.Plan(info)
	return plan, director.NewAnimation(plan, s.Timing.Animation, s.Timing.Hold), false
}

// display shows image i and blocks until its animation completes.
func (s *Scheduler) display(ctx context.Context, i int, info cache.ImageInfo) (bool, error) {
	s.setState(StatePlaying, i)

	plan, anim, scripted := s.plan(i, info)

	s.logger.Debugw("Displaying image",
		"index", i, "name", s.Images[i].Name, "plan", plan.Kind, "zoom", plan.Zoom,
		"faces", info.FaceCount(), "scripted", scripted)

	if s.OnDisplay != nil {
		s.OnDisplay(Display{Index: i, Info: info, Plan: plan, Animation: anim})
	}

	s.Surface.SetImage(s.uprightImage(i), s.Timing.Fade)
	s.Surface.SetTransform(geometry.Identity())

	done := make(chan bool, 1)
	s.Surface.AnimateKeyframes(anim, func(finished bool) {
		select {
		case done <- finished:
		default:
		}
	})

	select {
	case finished := <-done:
		return finished, nil
	case <-ctx.Done():
		s.Surface.CancelAnimations()
		return false, ctx.Err()
	}
}

func (s *Scheduler) uprightImage(i int) image.Image {
	if s.upright[i] == nil {
		img := s.Images[i]
		s.upright[i] = img.Orientation.Correct(img.Image)
	}
	return s.upright[i]
}
