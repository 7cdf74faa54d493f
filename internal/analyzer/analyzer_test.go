package analyzer

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/ivlev/kenburns/internal/geometry"
)

func TestContrastDetector(t *testing.T) {
	// A white square on a black background
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 50; y < 150; y++ {
		for x := 50; x < 150; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	detector := NewContrastDetector()
	regions, err := detector.Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(regions) != 1 {
		t.Fatalf("Expected one region, got %d: %v", len(regions), regions)
	}

	r := regions[0]
	if r.W < 0.45 || r.H < 0.45 || r.W > 0.65 || r.H > 0.65 {
		t.Errorf("Region size off: %v", r)
	}

	// Symmetric input: centered in normalized space regardless of the flip
	c := r.Center()
	if c.X < 0.45 || c.X > 0.55 || c.Y < 0.45 || c.Y > 0.55 {
		t.Errorf("Region not centered: %v", r)
	}

	t.Logf("Detected %d regions", len(regions))
}

func TestContrastDetectorBottomLeftOrigin(t *testing.T) {
	// Busy block near the top of the image must come back with a high
	// normalized Y because the detector space has its origin at the bottom.
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 10; y < 60; y++ {
		for x := 75; x < 125; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	regions, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(regions) == 0 {
		t.Fatal("Expected a region")
	}

	if c := regions[0].Center(); c.Y < 0.7 {
		t.Errorf("Expected region near the top (y > 0.7 bottom-left), got %v", regions[0])
	}
}

func TestContrastDetectorUniform(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 120, 80))

	regions, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("Expected no regions on a flat image, got %v", regions)
	}
}

func TestEmptyImage(t *testing.T) {
	empty := image.NewGray(image.Rect(0, 0, 0, 0))

	for name, d := range map[string]FaceDetector{
		"contrast": NewContrastDetector(),
		"none":     NoFaces{},
	} {
		if _, err := d.Detect(empty); !errors.Is(err, ErrEmptyImage) {
			t.Errorf("%s: expected ErrEmptyImage, got %v", name, err)
		}
	}
}

func TestNormalizeTopLeft(t *testing.T) {
	extent := geometry.Size{W: 400, H: 200}
	got := normalizeTopLeft(geometry.Rect{X: 100, Y: 0, W: 40, H: 20}, extent)
	want := geometry.Rect{X: 0.25, Y: 0.9, W: 0.1, H: 0.1}

	if !approx(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestClampRect(t *testing.T) {
	extent := geometry.Size{W: 100, H: 100}

	got := clampRect(geometry.Rect{X: -10, Y: 90, W: 30, H: 30}, extent)
	want := geometry.Rect{X: 0, Y: 90, W: 20, H: 10}
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if !clampRect(geometry.Rect{X: 200, Y: 0, W: 10, H: 10}, extent).Empty() {
		t.Error("Rect outside the image should clamp to empty")
	}
}

func TestDetectorRegistry(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "facefinder")

	tests := []struct {
		variant string
		opts    Options
		wantErr bool
	}{
		{"contrast", Options{}, false},
		{"none", Options{}, false},
		{"", Options{}, false}, // contrast without a cascade
		{"pigo", Options{}, true},
		{"pigo", Options{CascadePath: missing}, true},
		{"", Options{CascadePath: missing}, true},
		{"invalid", Options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant, tt.opts)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if detector == nil {
				t.Error("Expected detector, got nil")
			}
		})
	}
}

func TestNewPigoDetectorEmptyCascade(t *testing.T) {
	if _, err := NewPigoDetector(nil); err == nil {
		t.Error("Expected error for empty cascade")
	}
}

func TestDetectorFunc(t *testing.T) {
	want := []geometry.Rect{{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}}
	d := DetectorFunc(func(image.Image) ([]geometry.Rect, error) { return want, nil })

	got, err := d.Detect(image.NewGray(image.Rect(0, 0, 1, 1)))
	if err != nil || len(got) != 1 || got[0] != want[0] {
		t.Errorf("DetectorFunc returned %v, %v", got, err)
	}
}

func approx(a, b geometry.Rect) bool {
	const eps = 1e-9
	d := func(x, y float64) bool { return x-y < eps && y-x < eps }
	return d(a.X, b.X) && d(a.Y, b.Y) && d(a.W, b.W) && d(a.H, b.H)
}
