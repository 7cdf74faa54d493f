package pipeline

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/cache"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/source"
)

// DefaultMaxSide bounds the longest side of the copy handed to the detector
const DefaultMaxSide = 1024

// AnalysisError records why one image was degraded to zero faces
type AnalysisError struct {
	Index int
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze image %d: %v", e.Index, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Pipeline runs face analysis for a slideshow on a single worker lane,
// strictly in index order, and publishes every result to the cache.
type Pipeline struct {
	Detector analyzer.FaceDetector
	Cache    *cache.Cache
	MaxSide  int // 0 disables the detection downscale

	logger    *zap.SugaredLogger
	ready     chan struct{}
	readyOnce sync.Once
}

func New(detector analyzer.FaceDetector, c *cache.Cache, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		Detector: detector,
		Cache:    c,
		MaxSide:  DefaultMaxSide,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// FirstReady is closed once the first image has been published
func (p *Pipeline) FirstReady() <-chan struct{} {
	return p.ready
}

// Run analyzes images one after another. A failing image is published with
// zero faces and its error is collected into the returned error; only a
// cancelled context stops the run early.
func (p *Pipeline) Run(ctx context.Context, images []source.Image) error {
	var errs error

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		info := p.analyze(i, img)
		if info.Err != nil {
			p.logger.Warnw("Analysis failed, showing image without faces",
				"index", i, "name", img.Name, "error", info.Err)
			errs = multierr.Append(errs, &AnalysisError{Index: i, Err: info.Err})
		} else {
			p.logger.Debugw("Image analyzed",
				"index", i, "name", img.Name, "faces", info.FaceCount(), "size", info.NaturalSize)
		}

		if err := p.Cache.Put(info); err != nil {
			return multierr.Append(errs, fmt.Errorf("publish image %d: %w", i, err))
		}

		if i == 0 {
			p.readyOnce.Do(func() { close(p.ready) })
		}
	}

	return errs
}

// analyze never fails outright; a detector error is stored in the result.
func (p *Pipeline) analyze(index int, img source.Image) cache.ImageInfo {
	info := cache.ImageInfo{Index: index}

	if img.Image == nil || img.Image.Bounds().Empty() {
		info.Err = analyzer.ErrEmptyImage
		return info
	}

	upright := img.Orientation.Correct(img.Image)
	info.NaturalSize = geometry.SizeOf(upright)

	rects, err := p.Detector.Detect(p.detectionCopy(upright))
	if err != nil {
		info.Err = err
		return info
	}

	faces := make([]geometry.Rect, 0, len(rects))
	for _, r := range rects {
		px := geometry.ToUprightPixelSpace(geometry.Denormalize(r, info.NaturalSize), info.NaturalSize)
		if px.Empty() {
			continue
		}
		faces = append(faces, px)
	}
	info.FaceRects = geometry.SortRectsByX(faces)

	return info
}

// detectionCopy downscales large images. Detector output is normalized, so
// the scale does not leak into the stored rects.
func (p *Pipeline) detectionCopy(img image.Image) image.Image {
	b := img.Bounds()
	if p.MaxSide <= 0 || (b.Dx() <= p.MaxSide && b.Dy() <= p.MaxSide) {
		return img
	}
	return imaging.Fit(img, p.MaxSide, p.MaxSide, imaging.Linear)
}
