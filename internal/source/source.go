package source

import (
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/multierr"

	"github.com/ivlev/kenburns/internal/geometry"
)

// Image is one decoded slide together with its stored orientation.
type Image struct {
	Name        string
	Image       image.Image
	Orientation geometry.Orientation
}

// Size returns the stored pixel size
func (i Image) Size() geometry.Size {
	return geometry.SizeOf(i.Image)
}

type Source interface {
	Count() int
	Load(index int) (Image, error)
	Close() error
}

// ErrNothingLoaded is returned by LoadAll when no slide could be decoded
var ErrNothingLoaded = errors.New("no slide could be loaded")

// LoadAll decodes every slide of src in order. Slides that fail are left
// out and their errors combined; the images are still returned. Only when
// nothing loads is the result empty, with ErrNothingLoaded.
func LoadAll(src Source) ([]Image, error) {
	var errs error
	images := make([]Image, 0, src.Count())
	for i := 0; i < src.Count(); i++ {
		img, err := src.Load(i)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("load slide %d: %w", i, err))
			continue
		}
		images = append(images, img)
	}

	if len(images) == 0 {
		return nil, multierr.Append(ErrNothingLoaded, errs)
	}
	return images, errs
}

// PDFSource turns every page of a PDF document into a slide
type PDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *PDFSource) Count() int {
	return f.doc.NumPage()
}

// Load renders a page. Rendered pages are always upright.
func (f *PDFSource) Load(index int) (Image, error) {
	img, err := f.doc.ImageDPI(index, float64(f.dpi))
	if err != nil {
		return Image{}, err
	}
	return Image{
		Name:        fmt.Sprintf("page_%d", index+1),
		Image:       img,
		Orientation: geometry.OrientationUp,
	}, nil
}

func (f *PDFSource) Close() error {
	return f.doc.Close()
}
