package director

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned when a scenario file cannot be replayed
var ErrInvalidScenario = errors.New("invalid scenario")

// WriteScenario writes sc as YAML, creating the parent directory
func WriteScenario(sc *Scenario, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create scenario dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scenario %s: %w", path, err)
	}
	return nil
}

// ReadScenario loads a scenario written by WriteScenario, possibly edited
// by hand, and checks that every slide can be replayed.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	seen := make(map[int]bool, len(sc.Slides))
	for _, slide := range sc.Slides {
		if err := slide.validate(); err != nil {
			return nil, fmt.Errorf("%w: slide %d: %v", ErrInvalidScenario, slide.ID, err)
		}
		if seen[slide.ID] {
			return nil, fmt.Errorf("%w: duplicate slide %d", ErrInvalidScenario, slide.ID)
		}
		seen[slide.ID] = true
	}

	return &sc, nil
}

func (s Slide) validate() error {
	if s.ID < 0 {
		return errors.New("negative id")
	}
	if _, ok := ParseKind(s.Kind); !ok {
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %.2fs", s.Duration)
	}
	if s.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %.2fs", s.Delay)
	}
	if len(s.Keyframes) == 0 {
		return errors.New("no keyframes")
	}
	for i, kf := range s.Keyframes {
		if kf.Start < 0 || kf.Duration < 0 || kf.Start+kf.Duration > 1+1e-9 {
			return fmt.Errorf("keyframe %d spans [%.3f, %.3f] outside [0, 1]", i, kf.Start, kf.Start+kf.Duration)
		}
	}
	return nil
}
