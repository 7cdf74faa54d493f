package renderer

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/blend"
	"go.uber.org/zap"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/system"
)

// VideoSurface is an offline display surface. Each animation is rendered
// frame by frame at FPS and written to a FrameSink, so wall time does not
// matter and a slideshow can be encoded faster than real time.
type VideoSurface struct {
	sink   FrameSink
	bounds image.Rectangle
	fps    int
	pool   *system.FramePool
	logger *zap.SugaredLogger

	current  image.Image
	view     geometry.Affine
	previous image.Image // fading out during the next animation
	prevView geometry.Affine
	fade     time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	wg     sync.WaitGroup
	frames int
	err    error
}

func NewVideoSurface(sink FrameSink, width, height, fps int, logger *zap.SugaredLogger) *VideoSurface {
	return &VideoSurface{
		sink:   sink,
		bounds: image.Rect(0, 0, width, height),
		fps:    fps,
		pool:   system.NewFramePool(),
		logger: logger,
		view:   geometry.Identity(),
	}
}

// SetImage makes img current. The outgoing image, at its last transform,
// fades out over the first fade of the next animation.
func (v *VideoSurface) SetImage(img image.Image, fade time.Duration) {
	v.previous, v.prevView = v.current, v.view
	v.current = img
	v.fade = fade
}

func (v *VideoSurface) SetTransform(t geometry.Affine) {
	v.view = t
}

// AnimateKeyframes renders anim in the background and reports completion
// through onComplete, false when cancelled or when the sink failed.
func (v *VideoSurface) AnimateKeyframes(anim director.Animation, onComplete func(finished bool)) {
	stop := make(chan struct{})
	v.mu.Lock()
	v.stop = stop
	v.mu.Unlock()

	from := v.view
	job := renderJob{
		current:  v.current,
		previous: v.previous,
		prevView: v.prevView,
		fade:     v.fade.Seconds(),
		from:     from,
		anim:     anim,
	}
	if len(anim.Stages) > 0 {
		v.view = anim.Stages[len(anim.Stages)-1].Transform
	}
	v.previous = nil

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		onComplete(v.render(job, stop))
	}()
}

// CancelAnimations stops the animation in flight and waits for its
// renderer to exit.
func (v *VideoSurface) CancelAnimations() {
	v.mu.Lock()
	if v.stop != nil {
		close(v.stop)
		v.stop = nil
	}
	v.mu.Unlock()
	v.wg.Wait()
}

// Frames returns the number of frames written so far
func (v *VideoSurface) Frames() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// Err returns the first sink error
func (v *VideoSurface) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// FrameCount returns how many frames an animation occupies at fps
func FrameCount(anim director.Animation, fps int) int {
	return int(math.Round(anim.Total().Seconds() * float64(fps)))
}

type renderJob struct {
	current  image.Image
	previous image.Image
	prevView geometry.Affine
	fade     float64
	from     geometry.Affine
	anim     director.Animation
}

func (v *VideoSurface) render(job renderJob, stop <-chan struct{}) bool {
	total := FrameCount(job.anim, v.fps)

	for f := 0; f < total; f++ {
		select {
		case <-stop:
			return false
		default:
		}

		elapsed := float64(f) / float64(v.fps)
		frame := v.pool.Get(v.bounds)
		Compose(frame, job.current, At(job.from, job.anim, elapsed))

		out := frame
		if job.previous != nil && elapsed < job.fade {
			old := v.pool.Get(v.bounds)
			Compose(old, job.previous, job.prevView)
			out = blend.Opacity(old, frame, elapsed/job.fade)
			v.pool.Put(old)
		}

		err := v.sink.WriteFrame(out)
		v.pool.Put(frame)
		if err != nil {
			v.mu.Lock()
			if v.err == nil {
				v.err = err
			}
			v.mu.Unlock()
			v.logger.Errorw("Frame sink failed", "frame", f, "error", err)
			return false
		}

		v.mu.Lock()
		v.frames++
		v.mu.Unlock()
	}

	return true
}
