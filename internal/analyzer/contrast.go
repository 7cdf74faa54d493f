package analyzer

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/ivlev/kenburns/internal/geometry"
)

var (
	sobelX = [9]float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	sobelY = [9]float64{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
)

// ContrastDetector finds high-contrast subject regions with a Sobel edge map.
// It stands in for a face detector when no cascade is available, so the
// planner still pans between the busiest parts of a photo.
type ContrastDetector struct {
	WorkSide         int     // analysis happens on a copy fitted into WorkSide x WorkSide
	EdgeThreshold    float64 // gradient magnitude threshold
	MinAreaFraction  float64 // drop regions smaller than this share of the image
	MaxAreaFraction  float64 // drop regions covering more than this share
	MaxRegions       int
	DilateRadius     int
	DilateIterations int
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		WorkSide:         256,
		EdgeThreshold:    60.0,
		MinAreaFraction:  0.01,
		MaxAreaFraction:  0.6,
		MaxRegions:       5,
		DilateRadius:     2,
		DilateIterations: 2,
	}
}

// Detect returns the largest high-contrast regions, normalized
func (d *ContrastDetector) Detect(img image.Image) ([]geometry.Rect, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	small := imaging.Fit(img, d.WorkSide, d.WorkSide, imaging.Box)
	gray := imaging.Grayscale(small)

	opts := &imaging.ConvolveOptions{Abs: true}
	gx := imaging.Convolve3x3(gray, sobelX, opts)
	gy := imaging.Convolve3x3(gray, sobelY, opts)

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	mask := make([]bool, w*h)
	for i := range mask {
		// grayscale: any channel carries the intensity
		vx := float64(gx.Pix[i*4])
		vy := float64(gy.Pix[i*4])
		mask[i] = math.Hypot(vx, vy) > d.EdgeThreshold
	}

	for iter := 0; iter < d.DilateIterations; iter++ {
		mask = dilate(mask, w, h, d.DilateRadius)
	}

	extent := geometry.Size{W: float64(w), H: float64(h)}
	total := extent.Area()

	var regions []geometry.Rect
	for _, r := range components(mask, w, h) {
		frac := r.Area() / total
		if frac < d.MinAreaFraction || frac > d.MaxAreaFraction {
			continue
		}
		regions = append(regions, r)
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Area() > regions[j].Area()
	})
	if d.MaxRegions > 0 && len(regions) > d.MaxRegions {
		regions = regions[:d.MaxRegions]
	}

	out := make([]geometry.Rect, len(regions))
	for i, r := range regions {
		out[i] = normalizeTopLeft(r, extent)
	}
	return out, nil
}

// dilate grows every set cell by radius in a square neighbourhood
func dilate(mask []bool, w, h, radius int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for ny := max(y-radius, 0); ny <= min(y+radius, h-1); ny++ {
				for nx := max(x-radius, 0); nx <= min(x+radius, w-1); nx++ {
					out[ny*w+nx] = true
				}
			}
		}
	}
	return out
}

// components returns the bounding boxes of 4-connected regions of set cells
func components(mask []bool, w, h int) []geometry.Rect {
	visited := make([]bool, len(mask))
	var rects []geometry.Rect

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := -1, -1
		stack := []int{start}
		visited[start] = true

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w

			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				q := ny*w + nx
				if mask[q] && !visited[q] {
					visited[q] = true
					stack = append(stack, q)
				}
			}
		}

		rects = append(rects, geometry.Rect{
			X: float64(minX),
			Y: float64(minY),
			W: float64(maxX - minX + 1),
			H: float64(maxY - minY + 1),
		})
	}

	return rects
}
