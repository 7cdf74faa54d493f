package renderer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
)

// FrameSink consumes rendered frames in order. Frames are recycled after
// WriteFrame returns, so implementations must not keep them.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
}

// PNGSink writes every frame as a numbered PNG file, for previews and
// debugging of a plan without running an encoder.
type PNGSink struct {
	Dir   string
	count int
}

func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &PNGSink{Dir: dir}, nil
}

func (p *PNGSink) WriteFrame(frame *image.RGBA) error {
	path := filepath.Join(p.Dir, fmt.Sprintf("frame_%06d.png", p.count))
	if err := imgio.Save(path, frame, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save frame %d: %w", p.count, err)
	}
	p.count++
	return nil
}

// Count returns the number of frames written
func (p *PNGSink) Count() int {
	return p.count
}
