package analyzer

import (
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"

	"github.com/ivlev/kenburns/internal/geometry"
)

// PigoDetector finds faces with a pigo pixel-intensity-comparison cascade.
type PigoDetector struct {
	classifier *pigo.Pigo

	MinSizeFraction float64 // minimum face size relative to the shorter image side
	MaxSizeFraction float64 // maximum face size relative to the shorter image side
	ShiftFactor     float64 // sliding window stride
	ScaleFactor     float64 // window growth per scale
	IoUThreshold    float64 // cluster overlapping detections
	MinQuality      float32 // drop detections scoring below this
}

// LoadPigoDetector reads a facefinder cascade from path
func LoadPigoDetector(path string) (*PigoDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", path, err)
	}
	return NewPigoDetector(cascade)
}

// NewPigoDetector unpacks a facefinder cascade
func NewPigoDetector(cascade []byte) (*PigoDetector, error) {
	if len(cascade) == 0 {
		return nil, fmt.Errorf("empty cascade")
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	return &PigoDetector{
		classifier:      classifier,
		MinSizeFraction: 0.04,
		MaxSizeFraction: 0.9,
		ShiftFactor:     0.1,
		ScaleFactor:     1.1,
		IoUThreshold:    0.2,
		MinQuality:      5.0,
	}, nil
}

// Detect runs the cascade over img and returns normalized face boxes
func (d *PigoDetector) Detect(img image.Image) ([]geometry.Rect, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	// pigo indexes pixels from the origin
	if bounds.Min != (image.Point{}) {
		img = imaging.Clone(img)
		bounds = img.Bounds()
	}

	cols, rows := bounds.Dx(), bounds.Dy()
	shorter := min(cols, rows)

	params := pigo.CascadeParams{
		MinSize:     max(int(float64(shorter)*d.MinSizeFraction), 20),
		MaxSize:     max(int(float64(shorter)*d.MaxSizeFraction), 20),
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.IoUThreshold)

	sort.Slice(dets, func(i, j int) bool {
		return dets[i].Q > dets[j].Q
	})

	extent := geometry.Size{W: float64(cols), H: float64(rows)}
	faces := make([]geometry.Rect, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.MinQuality {
			continue
		}

		half := float64(det.Scale) / 2
		box := clampRect(geometry.Rect{
			X: float64(det.Col) - half,
			Y: float64(det.Row) - half,
			W: float64(det.Scale),
			H: float64(det.Scale),
		}, extent)
		if box.Empty() {
			continue
		}

		faces = append(faces, normalizeTopLeft(box, extent))
	}

	return faces, nil
}
