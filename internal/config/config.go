package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/source"
)

const (
	DefaultAnimationDuration = 12.0
	MinAnimationDuration     = 1.0
	DefaultInitialHold       = 1.5
	DefaultFadeDuration      = 1.0
	DefaultMissGrace         = 0.5
)

var (
	// ErrConfigurationRejected is wrapped by every rejected setting
	ErrConfigurationRejected = errors.New("configuration rejected")
	// ErrImagesAlreadySet is returned when images are assigned a second time
	ErrImagesAlreadySet = fmt.Errorf("%w: images already assigned", ErrConfigurationRejected)
	// ErrNoImages is returned for an empty image sequence
	ErrNoImages = fmt.Errorf("%w: no images", ErrConfigurationRejected)
	// ErrDurationTooShort is returned for animation durations under MinAnimationDuration
	ErrDurationTooShort = fmt.Errorf("%w: animation duration below %.1fs", ErrConfigurationRejected, MinAnimationDuration)
	// ErrEmptyImage is returned when an assigned image has no pixels
	ErrEmptyImage = fmt.Errorf("%w: image has no pixels", ErrConfigurationRejected)
)

type Config struct {
	InputPath      string `yaml:"input"`
	OutputVideo    string `yaml:"output"`
	ScenarioOutput string `yaml:"scenario_output"`
	ScenarioInput  string `yaml:"scenario_input"` // replay plans from an exported scenario

	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
	DPI    int    `yaml:"dpi"`
	Preset string `yaml:"preset"`

	AnimationDuration float64 `yaml:"animation_duration"` // seconds of pan/zoom per image
	InitialHold       float64 `yaml:"initial_hold"`       // static hold before motion, face plans only
	FadeDuration      float64 `yaml:"fade_duration"`      // cross-fade between images
	MissGrace         float64 `yaml:"miss_grace"`         // wait for a late analysis before skipping
	Cycles            int     `yaml:"cycles"`             // completed animations before stopping, 0 = forever

	Detector        string `yaml:"detector"`
	CascadePath     string `yaml:"cascade"`
	AnalysisMaxSide int    `yaml:"analysis_max_side"`

	VideoEncoder string `yaml:"encoder"`
	Quality      int    `yaml:"quality"`
	AudioPath    string `yaml:"audio"`

	ShowStats    bool   `yaml:"stats"`
	Debug        bool   `yaml:"debug"`
	BuildVersion string `yaml:"-"`

	images []source.Image
}

// Default returns a configuration with every default filled in
func Default() *Config {
	return &Config{
		Width:             1280,
		Height:            720,
		FPS:               30,
		DPI:               150,
		AnimationDuration: DefaultAnimationDuration,
		InitialHold:       DefaultInitialHold,
		FadeDuration:      DefaultFadeDuration,
		MissGrace:         DefaultMissGrace,
		AnalysisMaxSide:   1024,
	}
}

// Load reads a YAML config file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.AnimationDuration < MinAnimationDuration {
		return nil, fmt.Errorf("%s: %w", path, ErrDurationTooShort)
	}

	cfg.ApplyPreset()
	return cfg, nil
}

// ApplyPreset overrides Width/Height for a named aspect preset
func (c *Config) ApplyPreset() {
	switch c.Preset {
	case "16:9":
		c.Width, c.Height = 1280, 720
	case "9:16":
		c.Width, c.Height = 720, 1280
	case "4:5":
		c.Width, c.Height = 1080, 1350
	}
}

// SetImages assigns the slideshow images. It succeeds once; an empty
// sequence, an image without pixels or a second assignment is rejected and
// leaves the config untouched.
func (c *Config) SetImages(images []source.Image) error {
	if len(c.images) > 0 {
		return ErrImagesAlreadySet
	}
	if len(images) == 0 {
		return ErrNoImages
	}
	for i, img := range images {
		if img.Image == nil || img.Image.Bounds().Empty() {
			return fmt.Errorf("image %d (%s): %w", i, img.Name, ErrEmptyImage)
		}
	}

	c.images = make([]source.Image, len(images))
	copy(c.images, images)
	return nil
}

// Images returns the assigned images
func (c *Config) Images() []source.Image {
	return c.images
}

// SetAnimationDuration sets the pan/zoom duration in seconds
func (c *Config) SetAnimationDuration(seconds float64) error {
	if seconds < MinAnimationDuration {
		return ErrDurationTooShort
	}
	c.AnimationDuration = seconds
	return nil
}

// Validate checks the fields the engine depends on
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.AnimationDuration < MinAnimationDuration {
		return ErrDurationTooShort
	}
	if c.InitialHold < 0 || c.FadeDuration < 0 {
		return fmt.Errorf("negative timing in config")
	}
	if c.MissGrace <= 0 {
		return fmt.Errorf("miss grace must be positive, got %.2fs", c.MissGrace)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("invalid cycles %d", c.Cycles)
	}
	if c.ScenarioInput != "" {
		if _, err := os.Stat(c.ScenarioInput); err != nil {
			return fmt.Errorf("scenario input: %w", err)
		}
	}
	return nil
}

// Viewport returns the display size
func (c *Config) Viewport() geometry.Size {
	return geometry.Size{W: float64(c.Width), H: float64(c.Height)}
}

// Timing converts the second-based settings into durations
func (c *Config) Timing() Timing {
	return Timing{
		Animation: seconds(c.AnimationDuration),
		Hold:      seconds(c.InitialHold),
		Fade:      seconds(c.FadeDuration),
		MissGrace: seconds(c.MissGrace),
	}
}

// Output returns the parameters of the video sink
func (c *Config) Output() OutputParams {
	return OutputParams{
		Path:      c.OutputVideo,
		Width:     c.Width,
		Height:    c.Height,
		FPS:       c.FPS,
		Encoder:   c.VideoEncoder,
		Quality:   c.Quality,
		AudioPath: c.AudioPath,
	}
}

// Timing holds the scheduler durations
type Timing struct {
	Animation time.Duration
	Hold      time.Duration
	Fade      time.Duration
	MissGrace time.Duration
}

// OutputParams describes the encoded video
type OutputParams struct {
	Path          string
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
	AudioPath     string
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
