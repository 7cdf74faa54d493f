package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/ivlev/kenburns/internal/geometry"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 30, 20)
	writePNG(t, filepath.Join(dir, "a.png"), 10, 40)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644)
	os.Mkdir(filepath.Join(dir, "nested.png"), 0755)

	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}
	defer src.Close()

	if src.Count() != 2 {
		t.Fatalf("Expected 2 images, got %d", src.Count())
	}

	images, err := LoadAll(src)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if images[0].Name != "a.png" || images[1].Name != "b.png" {
		t.Errorf("Expected name order a.png, b.png, got %s, %s", images[0].Name, images[1].Name)
	}

	if got := images[0].Size(); got != (geometry.Size{W: 10, H: 40}) {
		t.Errorf("Unexpected size %v", got)
	}

	for _, img := range images {
		if img.Orientation != geometry.OrientationUp {
			t.Errorf("%s: expected upright orientation, got %d", img.Name, img.Orientation)
		}
	}
}

func TestImageSourceSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "only.png")
	writePNG(t, path, 8, 8)

	src, err := NewImageSource(path)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}
	if src.Count() != 1 {
		t.Errorf("Expected 1 image, got %d", src.Count())
	}
}

func TestImageSourceErrors(t *testing.T) {
	if _, err := NewImageSource(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing path")
	}

	bad := filepath.Join(t.TempDir(), "broken.png")
	os.WriteFile(bad, []byte("not a png"), 0644)

	src, err := NewImageSource(bad)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}
	images, err := LoadAll(src)
	if !errors.Is(err, ErrNothingLoaded) {
		t.Errorf("Expected ErrNothingLoaded, got %v", err)
	}
	if len(images) != 0 {
		t.Errorf("Expected no images, got %d", len(images))
	}
}

func TestLoadAllSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 10, 10)
	os.WriteFile(filepath.Join(dir, "b.png"), []byte("truncated"), 0644)
	writePNG(t, filepath.Join(dir, "c.png"), 20, 10)

	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}
	defer src.Close()

	images, err := LoadAll(src)
	if err == nil {
		t.Error("Expected the broken file to be reported")
	} else if errors.Is(err, ErrNothingLoaded) || !strings.Contains(err.Error(), "slide 1") {
		t.Errorf("Unexpected error %v", err)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Errorf("Expected 1 failure, got %d", len(multierr.Errors(err)))
	}

	if len(images) != 2 || images[0].Name != "a.png" || images[1].Name != "c.png" {
		t.Fatalf("Expected a.png and c.png, got %d images", len(images))
	}
}

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"a.JPG":    true,
		"b.jpeg":   true,
		"c.webp":   true,
		"d.pdf":    false,
		"e":        false,
		"f.tiff":   true,
		"notes.md": false,
	}

	for name, want := range tests {
		if got := IsImage(name); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", name, got, want)
		}
	}
}
