package renderer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/geometry"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func stagesFixture() []director.Stage {
	return []director.Stage{
		{Start: 0.0, Duration: 0.5, Transform: geometry.Scale(2, 2)},
		{Start: 0.8, Duration: 0.2, Transform: geometry.Identity()},
	}
}

func TestInterpolate(t *testing.T) {
	from := geometry.Identity()
	stages := stagesFixture()

	tests := []struct {
		name     string
		progress float64
		zoom     float64
	}{
		{"start", 0.0, 1.0},
		{"mid first stage", 0.25, 1.5},
		{"end first stage", 0.5, 2.0},
		{"hold", 0.7, 2.0},
		{"mid second stage", 0.9, 1.5},
		{"end", 1.0, 1.0},
		{"after end", 1.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpolate(from, stages, tt.progress)
			if math.Abs(got.A-tt.zoom) > 1e-9 || math.Abs(got.D-tt.zoom) > 1e-9 {
				t.Errorf("At %.2f: expected zoom %.2f, got %+v", tt.progress, tt.zoom, got)
			}
		})
	}
}

func TestInterpolateEasing(t *testing.T) {
	stages := []director.Stage{{Start: 0, Duration: 1, Transform: geometry.Translate(100, 0)}}

	quarter := Interpolate(geometry.Identity(), stages, 0.25)
	if math.Abs(quarter.TX-6.25) > 1e-9 {
		t.Errorf("Expected eased offset 6.25 at a quarter, got %.4f", quarter.TX)
	}

	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.05 {
		x := Interpolate(geometry.Identity(), stages, p).TX
		if x < prev {
			t.Fatalf("Easing is not monotonic at %.2f", p)
		}
		prev = x
	}
}

func TestAtHoldsDuringDelay(t *testing.T) {
	anim := director.Animation{
		Duration: 10 * time.Second,
		Delay:    2 * time.Second,
		Stages:   stagesFixture(),
	}
	from := geometry.Identity()

	if got := At(from, anim, 1.9); !got.IsIdentity() {
		t.Errorf("Expected hold during delay, got %+v", got)
	}
	if got := At(from, anim, 2+5); got.A != 2 {
		t.Errorf("Expected the first target after half the motion, got %+v", got)
	}
	if got := At(from, anim, 12); !got.IsIdentity() {
		t.Errorf("Expected identity at the end, got %+v", got)
	}
}

func halves(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	return img
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return math.Abs(float64(x)-float64(y)) <= 2 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func TestComposeIdentity(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 32, 16))
	// 16x8 is aspect filled by 2
	Compose(dst, halves(16, 8), geometry.Identity())

	if got := dst.RGBAAt(2, 8); !near(got, red) {
		t.Errorf("Expected red on the left, got %v", got)
	}
	if got := dst.RGBAAt(29, 8); !near(got, blue) {
		t.Errorf("Expected blue on the right, got %v", got)
	}
}

func TestComposeZoomedOnLeftHalf(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 32, 16))

	// zoom 2 with the left edge pinned, as in the landscape plan
	z := 2.0
	off := 16 * (z - 1) / z
	view := geometry.Scale(z, z).Concat(geometry.Translate(z*off, 0))
	Compose(dst, halves(32, 16), view)

	for _, x := range []int{1, 16, 28} {
		if got := dst.RGBAAt(x, 8); !near(got, red) {
			t.Errorf("Expected only the red half at x=%d, got %v", x, got)
		}
	}
}

func TestComposeOffsetSource(t *testing.T) {
	src := halves(40, 20).SubImage(image.Rect(20, 0, 40, 20))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	Compose(dst, src, geometry.Identity())

	if got := dst.RGBAAt(10, 10); !near(got, blue) {
		t.Errorf("Sub-image origin must be honored, got %v", got)
	}
}

// memorySink keeps a copy of every frame
type memorySink struct {
	mu     sync.Mutex
	frames []*image.RGBA
	delay  time.Duration
	first  chan struct{}
	fail   error
}

func (m *memorySink) WriteFrame(frame *image.RGBA) error {
	if m.fail != nil {
		return m.fail
	}
	cp := image.NewRGBA(frame.Rect)
	copy(cp.Pix, frame.Pix)

	m.mu.Lock()
	m.frames = append(m.frames, cp)
	n := len(m.frames)
	m.mu.Unlock()

	if n == 1 && m.first != nil {
		close(m.first)
	}
	time.Sleep(m.delay)
	return nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func uniform(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func animate(t *testing.T, s *VideoSurface, anim director.Animation) bool {
	t.Helper()
	done := make(chan bool, 1)
	s.AnimateKeyframes(anim, func(finished bool) { done <- finished })
	select {
	case finished := <-done:
		return finished
	case <-time.After(10 * time.Second):
		t.Fatal("Animation did not complete")
		return false
	}
}

func TestVideoSurfaceFrameCount(t *testing.T) {
	sink := &memorySink{}
	s := NewVideoSurface(sink, 32, 18, 10, zap.NewNop().Sugar())
	s.SetImage(uniform(red), 0)
	s.SetTransform(geometry.Identity())

	anim := director.Animation{Duration: time.Second, Delay: 500 * time.Millisecond, Stages: stagesFixture()}
	if !animate(t, s, anim) {
		t.Fatal("Animation reported as interrupted")
	}

	if FrameCount(anim, 10) != 15 {
		t.Errorf("Expected 15 frames, got %d", FrameCount(anim, 10))
	}
	if sink.count() != 15 || s.Frames() != 15 {
		t.Errorf("Expected 15 written frames, got %d (%d)", sink.count(), s.Frames())
	}
	if s.Err() != nil {
		t.Errorf("Unexpected error: %v", s.Err())
	}
}

func TestVideoSurfacesKeepOwnPools(t *testing.T) {
	small := &memorySink{}
	large := &memorySink{}
	a := NewVideoSurface(small, 16, 9, 10, zap.NewNop().Sugar())
	b := NewVideoSurface(large, 32, 18, 10, zap.NewNop().Sugar())
	if a.pool == nil || a.pool == b.pool {
		t.Fatal("Each surface should own its frame pool")
	}

	anim := director.Animation{Duration: time.Second, Stages: stagesFixture()}
	a.SetImage(uniform(red), 0)
	b.SetImage(uniform(red), 0)
	if !animate(t, a, anim) || !animate(t, b, anim) {
		t.Fatal("Animation reported as interrupted")
	}

	if small.count() != 10 || large.count() != 10 {
		t.Fatalf("Expected 10 frames each, got %d and %d", small.count(), large.count())
	}
	if small.frames[0].Rect != image.Rect(0, 0, 16, 9) || large.frames[0].Rect != image.Rect(0, 0, 32, 18) {
		t.Errorf("Unexpected frame bounds %v, %v", small.frames[0].Rect, large.frames[0].Rect)
	}
}

func TestVideoSurfaceCrossFade(t *testing.T) {
	sink := &memorySink{}
	s := NewVideoSurface(sink, 32, 18, 10, zap.NewNop().Sugar())
	anim := director.Animation{Duration: time.Second, Stages: []director.Stage{{Start: 0, Duration: 1, Transform: geometry.Identity()}}}

	s.SetImage(uniform(red), time.Second)
	s.SetTransform(geometry.Identity())
	animate(t, s, anim)

	s.SetImage(uniform(blue), time.Second)
	s.SetTransform(geometry.Identity())
	animate(t, s, anim)

	if sink.count() != 20 {
		t.Fatalf("Expected 20 frames, got %d", sink.count())
	}

	// first image has nothing to fade from
	if got := sink.frames[0].RGBAAt(16, 9); !near(got, red) {
		t.Errorf("First frame should be plain red, got %v", got)
	}
	// second image starts fully covered by the outgoing one
	if got := sink.frames[10].RGBAAt(16, 9); got.R < 250 || got.B > 5 {
		t.Errorf("Fade should start on the outgoing image, got %v", got)
	}
	mid := sink.frames[15].RGBAAt(16, 9)
	if mid.R < 100 || mid.R > 155 || mid.B < 100 || mid.B > 155 {
		t.Errorf("Expected a half blend mid fade, got %v", mid)
	}
	if got := sink.frames[19].RGBAAt(16, 9); got.B < got.R {
		t.Errorf("Fade should end on the incoming image, got %v", got)
	}
}

func TestVideoSurfaceCancel(t *testing.T) {
	sink := &memorySink{delay: time.Millisecond, first: make(chan struct{})}
	s := NewVideoSurface(sink, 16, 9, 10, zap.NewNop().Sugar())
	s.SetImage(uniform(red), 0)

	done := make(chan bool, 1)
	s.AnimateKeyframes(director.Animation{Duration: 100 * time.Second, Stages: stagesFixture()}, func(finished bool) {
		done <- finished
	})

	<-sink.first
	s.CancelAnimations()

	if finished := <-done; finished {
		t.Error("Cancelled animation reported as finished")
	}
	if sink.count() >= 1000 {
		t.Errorf("Rendering should stop early, wrote %d frames", sink.count())
	}
}

func TestVideoSurfaceSinkError(t *testing.T) {
	boom := errors.New("pipe closed")
	s := NewVideoSurface(&memorySink{fail: boom}, 16, 9, 10, zap.NewNop().Sugar())
	s.SetImage(uniform(red), 0)

	if animate(t, s, director.Animation{Duration: time.Second, Stages: stagesFixture()}) {
		t.Error("Failed animation reported as finished")
	}
	if !errors.Is(s.Err(), boom) {
		t.Errorf("Expected sink error, got %v", s.Err())
	}
}

func TestPNGSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	sink, err := NewPNGSink(dir)
	if err != nil {
		t.Fatalf("NewPNGSink failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := sink.WriteFrame(uniform(red)); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}

	if sink.Count() != 2 {
		t.Errorf("Expected 2 frames, got %d", sink.Count())
	}
	for _, name := range []string{"frame_000000.png", "frame_000001.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Missing %s: %v", name, err)
		}
	}
}
