package analyzer

import "fmt"

// Options configures detector construction
type Options struct {
	CascadePath string // pigo facefinder cascade
}

// NewDetector creates a detector based on the specified variant.
// An empty variant picks pigo when a cascade is configured and the contrast
// detector otherwise.
func NewDetector(variant string, opts Options) (FaceDetector, error) {
	switch variant {
	case "":
		if opts.CascadePath != "" {
			return LoadPigoDetector(opts.CascadePath)
		}
		return NewContrastDetector(), nil
	case "pigo":
		if opts.CascadePath == "" {
			return nil, fmt.Errorf("pigo detector requires a cascade file")
		}
		return LoadPigoDetector(opts.CascadePath)
	case "contrast":
		return NewContrastDetector(), nil
	case "none":
		return NoFaces{}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
