package system

import (
	"image"
	"testing"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		listing string
		want    string
	}{
		{" V....D h264_videotoolbox  VideoToolbox H.264 Encoder", "h264_videotoolbox"},
		{" V....D h264_nvenc  NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V....D libx264  libx264 H.264", "libx264"},
		{"", "libx264"},
	}

	for _, tt := range tests {
		if got := pickEncoder(tt.listing); got != tt.want {
			t.Errorf("pickEncoder(%q) = %s, want %s", tt.listing, got, tt.want)
		}
	}
}

func TestDefaultQuality(t *testing.T) {
	if DefaultQuality("libx264") != 23 || DefaultQuality("h264_nvenc") != 28 || DefaultQuality("h264_videotoolbox") != 75 {
		t.Error("Unexpected default quality table")
	}
}

func TestFramePool(t *testing.T) {
	pool := NewFramePool()
	rect := image.Rect(0, 0, 16, 9)

	frame := pool.Get(rect)
	if frame.Rect != rect {
		t.Fatalf("Expected bounds %v, got %v", rect, frame.Rect)
	}
	pool.Put(frame)
	pool.Put(nil)

	// Frames of unknown sizes are dropped silently
	pool.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))

	if again := pool.Get(rect); again.Rect != rect {
		t.Errorf("Expected bounds %v, got %v", rect, again.Rect)
	}
}

func TestFitsInMemory(t *testing.T) {
	u := ResourceUsage{AvailableMemory: 4 << 30}

	if !u.FitsInMemory(DecodedSize(4000, 3000) * 10) {
		t.Error("Ten 12MP images should fit in 4 GiB")
	}
	if u.FitsInMemory(4 << 30) {
		t.Error("All available memory should not fit")
	}

	if got := MiB(3 << 20); got != "3.0 MiB" {
		t.Errorf("Unexpected MiB formatting: %s", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		if err != nil {
			t.Fatalf("NewLogger(%v) failed: %v", debug, err)
		}
		logger.Debugw("test message", "debug", debug)
	}

	NopLogger().Infow("discarded")
}
