package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/engine"
	"github.com/ivlev/kenburns/internal/renderer"
	"github.com/ivlev/kenburns/internal/source"
	"github.com/ivlev/kenburns/internal/system"
	"github.com/ivlev/kenburns/internal/video"
)

var version = "dev"

func main() {
	def := config.Default()

	configPtr := flag.String("config", "", "YAML config file; flags given explicitly override it")
	inputPtr := flag.String("input", "", "PDF file, image file or directory of images")
	outputPtr := flag.String("output", "", "Output video (default: output/<input>_<timestamp>.mp4)")
	framesPtr := flag.String("frames", "", "Write PNG frames to this directory instead of encoding a video")
	scenarioPtr := flag.String("scenario", "", "Export the pan/zoom plans to this YAML file")
	scenarioInPtr := flag.String("scenario-in", "", "Replay pan/zoom plans from an exported (possibly edited) scenario")
	widthPtr := flag.Int("width", def.Width, "Viewport width")
	heightPtr := flag.Int("height", def.Height, "Viewport height")
	presetPtr := flag.String("preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fpsPtr := flag.Int("fps", def.FPS, "FPS")
	dpiPtr := flag.Int("dpi", def.DPI, "DPI for PDF pages")
	durationPtr := flag.Float64("duration", def.AnimationDuration, "Pan/zoom duration per image in seconds (min 1.0)")
	holdPtr := flag.Float64("hold", def.InitialHold, "Static hold before motion on images with faces (sec)")
	fadePtr := flag.Float64("fade", def.FadeDuration, "Cross-fade duration (sec)")
	gracePtr := flag.Float64("miss-grace", def.MissGrace, "How long to wait for a late analysis before skipping an image (sec)")
	cyclesPtr := flag.Int("cycles", 0, "Number of images to show (default: every image once)")
	detectorPtr := flag.String("detector", "", "Face detector: pigo, contrast, none (default: pigo with -cascade, contrast otherwise)")
	cascadePtr := flag.String("cascade", "", "Path to the pigo facefinder cascade")
	maxSidePtr := flag.Int("analysis-max-side", def.AnalysisMaxSide, "Downscale images to this size for detection")
	encoderPtr := flag.String("encoder", "", "H.264 encoder (default: best available)")
	qualityPtr := flag.Int("quality", 0, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	audioPtr := flag.String("audio", "", "Audio track; the video is cut to the shorter of both")
	statsPtr := flag.Bool("stats", false, "Print a performance report and append it to benchmark.log")
	debugPtr := flag.Bool("debug", false, "Debug logging")

	flag.Parse()

	cfg := def
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
		cfg = loaded
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	apply := func(name string) bool {
		return *configPtr == "" || set[name]
	}

	if apply("input") {
		cfg.InputPath = *inputPtr
	}
	if apply("output") {
		cfg.OutputVideo = *outputPtr
	}
	if apply("scenario") {
		cfg.ScenarioOutput = *scenarioPtr
	}
	if apply("scenario-in") {
		cfg.ScenarioInput = *scenarioInPtr
	}
	if apply("width") {
		cfg.Width = *widthPtr
	}
	if apply("height") {
		cfg.Height = *heightPtr
	}
	if apply("preset") {
		cfg.Preset = *presetPtr
	}
	if apply("fps") {
		cfg.FPS = *fpsPtr
	}
	if apply("dpi") {
		cfg.DPI = *dpiPtr
	}
	if apply("duration") {
		if err := cfg.SetAnimationDuration(*durationPtr); err != nil {
			log.Fatalf("[-] %v", err)
		}
	}
	if apply("hold") {
		cfg.InitialHold = *holdPtr
	}
	if apply("fade") {
		cfg.FadeDuration = *fadePtr
	}
	if apply("miss-grace") {
		cfg.MissGrace = *gracePtr
	}
	if apply("cycles") {
		cfg.Cycles = *cyclesPtr
	}
	if apply("detector") {
		cfg.Detector = *detectorPtr
	}
	if apply("cascade") {
		cfg.CascadePath = *cascadePtr
	}
	if apply("analysis-max-side") {
		cfg.AnalysisMaxSide = *maxSidePtr
	}
	if apply("encoder") {
		cfg.VideoEncoder = *encoderPtr
	}
	if apply("quality") {
		cfg.Quality = *qualityPtr
	}
	if apply("audio") {
		cfg.AudioPath = *audioPtr
	}
	if apply("stats") {
		cfg.ShowStats = *statsPtr
	}
	if apply("debug") {
		cfg.Debug = *debugPtr
	}
	cfg.ApplyPreset()
	cfg.BuildVersion = version

	logger, err := system.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("[!] Logger unavailable: %v\n", err)
		logger = system.NopLogger()
	}
	defer logger.Sync()

	if err := run(cfg, *framesPtr, logger); err != nil {
		logger.Errorw("Slideshow failed", "error", err)
		log.Fatalf("[-] %v", err)
	}
}

func run(cfg *config.Config, framesDir string, logger *zap.SugaredLogger) error {
	system.InitResourceLimits(logger)

	if cfg.InputPath == "" {
		return fmt.Errorf("no input, use -input")
	}

	src, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	images, err := source.LoadAll(src)
	if len(images) == 0 {
		return err
	}
	if err != nil {
		logger.Warnw("Some slides could not be loaded and are left out", "error", err)
	}
	if err := cfg.SetImages(images); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Printf("[*] Source: %s | Images: %d\n", cfg.InputPath, len(images))

	detector, err := analyzer.NewDetector(cfg.Detector, analyzer.Options{CascadePath: cfg.CascadePath})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// scenario only
	if cfg.ScenarioOutput != "" && cfg.OutputVideo == "" && framesDir == "" {
		show, err := engine.New(cfg, detector, nil, logger)
		if err != nil {
			return err
		}
		path, err := show.ExportScenario(ctx, cfg.ScenarioOutput)
		if err != nil {
			return err
		}
		fmt.Printf("[+++] Success! Scenario saved: %s\n", path)
		return nil
	}

	if cfg.Cycles == 0 {
		cfg.Cycles = len(images)
	}

	var sink renderer.FrameSink
	var writer *video.FFmpegWriter
	if framesDir != "" {
		sink, err = renderer.NewPNGSink(framesDir)
		if err != nil {
			return err
		}
	} else {
		prepareOutput(cfg)
		fmt.Printf("[*] Resolution: %dx%d @ %d FPS | Encoder: %s\n", cfg.Width, cfg.Height, cfg.FPS, cfg.VideoEncoder)

		writer, err = video.NewFFmpegWriter(ctx, cfg.Output())
		if err != nil {
			return err
		}
		sink = writer
	}

	surface := renderer.NewVideoSurface(sink, cfg.Width, cfg.Height, cfg.FPS, logger)
	show, err := engine.New(cfg, detector, surface, logger)
	if err != nil {
		if writer != nil {
			writer.Close()
		}
		return err
	}

	runErr := show.Run(ctx)
	if writer != nil {
		if err := writer.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	if err := surface.Err(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if cfg.ScenarioOutput != "" {
		if _, err := show.ExportScenario(ctx, cfg.ScenarioOutput); err != nil {
			return err
		}
	}

	if cfg.ShowStats {
		report := show.Report()
		report.WriteTo(os.Stdout)
		if err := report.AppendLog("benchmark.log", time.Now()); err != nil {
			fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
		}
	}

	if writer != nil {
		fmt.Printf("[+++] Success! Result: %s\n", cfg.OutputVideo)
	} else {
		fmt.Printf("[+++] Success! Frames: %s\n", framesDir)
	}
	return nil
}

func openSource(cfg *config.Config) (source.Source, error) {
	if strings.HasSuffix(strings.ToLower(cfg.InputPath), ".pdf") {
		return source.NewPDFSource(cfg.InputPath, cfg.DPI)
	}
	return source.NewImageSource(cfg.InputPath)
}

// prepareOutput fills in the encoder, quality and output path defaults
func prepareOutput(cfg *config.Config) {
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	if cfg.OutputVideo == "" {
		baseName := filepath.Base(cfg.InputPath)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}
	os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755)
}
