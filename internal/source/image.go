package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/kenburns/internal/geometry"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// ImageSource reads slides from an image file or a directory of images,
// sorted by file name.
type ImageSource struct {
	paths []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsImage(entry.Name()) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	return &ImageSource{paths: paths}, nil
}

// IsImage reports whether name has a supported image extension
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func (s *ImageSource) Count() int {
	return len(s.paths)
}

// Load decodes a file. EXIF orientation is applied while decoding, so the
// returned image is already upright.
func (s *ImageSource) Load(index int) (Image, error) {
	img, err := imaging.Open(s.paths[index], imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, err
	}
	return Image{
		Name:        filepath.Base(s.paths[index]),
		Image:       img,
		Orientation: geometry.OrientationUp,
	}, nil
}

func (s *ImageSource) Close() error {
	return nil
}
