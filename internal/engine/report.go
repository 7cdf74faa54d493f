package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/ivlev/kenburns/internal/system"
)

// Report summarizes a finished run
type Report struct {
	Build    string
	Input    string
	Images   int
	Faces    int
	Failed   int
	Displays int
	Frames   int
	Elapsed  time.Duration
	RSS      uint64
}

// framer is implemented by surfaces that render frames
type framer interface {
	Frames() int
}

// Report collects the statistics of the last Run
func (s *Slideshow) Report() Report {
	s.mu.Lock()
	r := Report{
		Build:    s.Config.BuildVersion,
		Input:    filepath.Base(s.Config.InputPath),
		Images:   s.cache.Len(),
		Failed:   len(multierr.Errors(s.analysisErr)),
		Displays: s.displays,
		Elapsed:  s.elapsed,
	}
	s.mu.Unlock()

	for i := 0; i < s.cache.Len(); i++ {
		if info, ok := s.cache.Lookup(i); ok {
			r.Faces += info.FaceCount()
		}
	}

	if s.scheduler != nil {
		if f, ok := s.scheduler.Surface.(framer); ok {
			r.Frames = f.Frames()
		}
	}

	if usage, err := system.SampleResources(); err == nil {
		r.RSS = usage.ProcessRSS
	}

	return r
}

// FPS returns the rendering throughput
func (r Report) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// WriteTo prints the human readable report
func (r Report) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Images: %d (faces: %d, failed analysis: %d)\n"+
			"Displays: %d\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Memory (RSS): %s\n"+
			"----------------------------\n",
		r.Build, r.Images, r.Faces, r.Failed, r.Displays, r.Frames,
		r.Elapsed.Seconds(), r.FPS(), system.MiB(r.RSS),
	)
	return int64(n), err
}

// AppendLog appends a one line summary to a benchmark log file
func (r Report) AppendLog(path string, now time.Time) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[%s] Build: %s | Input: %s | Images: %d | Faces: %d | Frames: %d | Total: %.2fs | FPS: %.2f\n",
		now.Format("2006-01-02 15:04:05"),
		r.Build,
		r.Input,
		r.Images,
		r.Faces,
		r.Frames,
		r.Elapsed.Seconds(),
		r.FPS(),
	)
	return err
}
