package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/cache"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/pipeline"
	"github.com/ivlev/kenburns/internal/scheduler"
	"github.com/ivlev/kenburns/internal/system"
)

// ErrNoSurface is returned by Run when the slideshow has nowhere to display
var ErrNoSurface = errors.New("slideshow has no display surface")

// Slideshow wires the analysis lane and the display lane together.
type Slideshow struct {
	Config   *config.Config
	Director *director.Director
	Clock    clock.Clock

	logger    *zap.SugaredLogger
	cache     *cache.Cache
	pipeline  *pipeline.Pipeline
	scheduler *scheduler.Scheduler
	script    *director.Script

	analysisStarted atomic.Bool
	analysisDone    chan struct{}

	mu          sync.Mutex
	analysisErr error
	displays    int
	elapsed     time.Duration
}

// New prepares a slideshow over the images assigned to cfg. surface may be
// nil when only the scenario is exported.
func New(cfg *config.Config, detector analyzer.FaceDetector, surface scheduler.Surface, logger *zap.SugaredLogger) (*Slideshow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	images := cfg.Images()
	if len(images) == 0 {
		return nil, config.ErrNoImages
	}

	c := cache.New(len(images))
	d := director.NewDirector(cfg.Viewport())

	p := pipeline.New(detector, c, logger)
	if cfg.AnalysisMaxSide > 0 {
		p.MaxSide = cfg.AnalysisMaxSide
	}

	s := &Slideshow{
		Config:       cfg,
		Director:     d,
		Clock:        clock.New(),
		logger:       logger,
		cache:        c,
		pipeline:     p,
		analysisDone: make(chan struct{}),
	}

	if cfg.ScenarioInput != "" {
		sc, err := director.ReadScenario(cfg.ScenarioInput)
		if err != nil {
			return nil, err
		}
		s.script = director.NewScript(sc, cfg.Viewport())
		if s.script.Len() < len(images) {
			logger.Warnw("Scenario covers only some images, the rest are planned live",
				"path", cfg.ScenarioInput, "slides", s.script.Len(), "images", len(images))
		}
	}

	if surface != nil {
		s.scheduler = scheduler.New(images, c, d, surface, cfg.Timing(), logger)
		s.scheduler.Cycles = cfg.Cycles
		s.scheduler.OnDisplay = s.onDisplay
		s.scheduler.Script = s.script
	}

	return s, nil
}

// Cache exposes the analysis results
func (s *Slideshow) Cache() *cache.Cache {
	return s.cache
}

// Scheduler returns the display state machine, nil without a surface
func (s *Slideshow) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// AnalysisErr returns the aggregated per-image analysis failures
func (s *Slideshow) AnalysisErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysisErr
}

func (s *Slideshow) onDisplay(d scheduler.Display) {
	s.mu.Lock()
	s.displays++
	s.mu.Unlock()
}

// Run plays the slideshow until the cycle limit is reached or ctx is
// cancelled. Analysis failures are not fatal; see AnalysisErr.
func (s *Slideshow) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return ErrNoSurface
	}
	s.scheduler.Clock = s.Clock

	s.checkMemory()
	start := s.Clock.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.analyze(gctx)
	})
	g.Go(func() error {
		return s.scheduler.Run(gctx, s.pipeline.FirstReady())
	})

	err := g.Wait()

	s.mu.Lock()
	s.elapsed = s.Clock.Since(start)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("slideshow stopped: %w", err)
	}
	return nil
}

// analyze runs the pipeline once. Later calls wait for the first run.
func (s *Slideshow) analyze(ctx context.Context) error {
	if !s.analysisStarted.CompareAndSwap(false, true) {
		select {
		case <-s.analysisDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	defer close(s.analysisDone)

	err := s.pipeline.Run(ctx, s.Config.Images())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.mu.Lock()
		s.analysisErr = err
		s.mu.Unlock()
		s.logger.Warnw("Some images were shown without face analysis", "error", err)
	}
	return nil
}

// Scenario analyzes every image, if not done yet, and returns the plan of
// each one as it would be displayed.
func (s *Slideshow) Scenario(ctx context.Context) (*director.Scenario, error) {
	if err := s.analyze(ctx); err != nil {
		return nil, err
	}

	images := s.Config.Images()
	timing := s.Config.Timing()
	scenario := &director.Scenario{
		Version:  "1.0",
		Viewport: s.Director.Viewport,
		Slides:   make([]director.Slide, 0, len(images)),
	}

	for i, img := range images {
		info, err := s.cache.Wait(ctx, i)
		if err != nil {
			return nil, err
		}
		plan, anim := s.planFor(i, info, timing)
		scenario.Slides = append(scenario.Slides, director.NewSlide(info, img.Name, plan, anim))
	}

	return scenario, nil
}

func (s *Slideshow) planFor(i int, info cache.ImageInfo, timing config.Timing) (director.Plan, director.Animation) {
	if slide, ok := s.script.Lookup(i); ok {
		return slide.Plan(), slide.Animation()
	}
	plan := s.Director.Plan(info)
	return plan, director.NewAnimation(plan, timing.Animation, timing.Hold)
}

// ExportScenario writes the scenario to path. An empty path picks a
// timestamped file in the working directory.
func (s *Slideshow) ExportScenario(ctx context.Context, path string) (string, error) {
	scenario, err := s.Scenario(ctx)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = director.GenerateScenarioPath(".")
	}
	if err := director.WriteScenario(scenario, path); err != nil {
		return "", err
	}

	s.logger.Infow("Scenario exported", "path", path, "slides", len(scenario.Slides))
	return path, nil
}

// checkMemory warns when the decoded images alone would crowd out the host
func (s *Slideshow) checkMemory() {
	usage, err := system.SampleResources()
	if err != nil {
		s.logger.Debugw("Resource sampling unavailable", "error", err)
		return
	}

	var need uint64
	for _, img := range s.Config.Images() {
		if img.Image == nil {
			continue
		}
		b := img.Image.Bounds()
		need += system.DecodedSize(b.Dx(), b.Dy())
	}

	if !usage.FitsInMemory(need) {
		s.logger.Warnw("Decoded images use most of the available memory",
			"images", system.MiB(need), "available", system.MiB(usage.AvailableMemory))
	}
}
