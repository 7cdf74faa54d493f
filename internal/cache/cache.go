package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ivlev/kenburns/internal/geometry"
)

var (
	// ErrOutOfRange is returned for an index outside the slideshow
	ErrOutOfRange = errors.New("image index out of range")
	// ErrAlreadyPublished is returned when an index is published twice
	ErrAlreadyPublished = errors.New("image info already published")
)

// ImageInfo holds the face analysis result for one source image.
// It is created once by the analysis pipeline and never mutated.
type ImageInfo struct {
	Index       int
	NaturalSize geometry.Size   // upright pixel size
	FaceRects   []geometry.Rect // upright pixel space, ascending by X
	Err         error           // analysis failure; FaceRects is empty when set
}

// FaceCount returns the number of detected faces
func (i ImageInfo) FaceCount() int {
	return len(i.FaceRects)
}

type slot struct {
	done    chan struct{}
	claimed atomic.Bool
	info    ImageInfo
}

// Cache is a fixed-size, append-only store of ImageInfo keyed by image index.
// Each index is a future that is resolved exactly once. A single writer may
// publish in any order while any number of readers look entries up.
type Cache struct {
	slots     []*slot
	published atomic.Int64
}

// New allocates a cache for n images
func New(n int) *Cache {
	slots := make([]*slot, n)
	for i := range slots {
		slots[i] = &slot{done: make(chan struct{})}
	}
	return &Cache{slots: slots}
}

// Len returns the number of images the cache was sized for
func (c *Cache) Len() int {
	return len(c.slots)
}

// Published returns how many entries have been published so far
func (c *Cache) Published() int {
	return int(c.published.Load())
}

// Put publishes info at info.Index. The channel close makes the entry
// visible to readers on other goroutines.
func (c *Cache) Put(info ImageInfo) error {
	s, err := c.slot(info.Index)
	if err != nil {
		return err
	}

	if !s.claimed.CompareAndSwap(false, true) {
		return fmt.Errorf("index %d: %w", info.Index, ErrAlreadyPublished)
	}

	s.info = info
	close(s.done)
	c.published.Add(1)
	return nil
}

// Lookup returns the entry for index if it has been published
func (c *Cache) Lookup(index int) (ImageInfo, bool) {
	s, err := c.slot(index)
	if err != nil {
		return ImageInfo{}, false
	}

	select {
	case <-s.done:
		return s.info, true
	default:
		return ImageInfo{}, false
	}
}

// Wait blocks until index is published or ctx is done.
func (c *Cache) Wait(ctx context.Context, index int) (ImageInfo, error) {
	s, err := c.slot(index)
	if err != nil {
		return ImageInfo{}, err
	}

	select {
	case <-s.done:
		return s.info, nil
	case <-ctx.Done():
		return ImageInfo{}, ctx.Err()
	}
}

// Ready returns a channel closed once index is published. Out of range
// indices return nil, which blocks forever in a select.
func (c *Cache) Ready(index int) <-chan struct{} {
	s, err := c.slot(index)
	if err != nil {
		return nil
	}
	return s.done
}

func (c *Cache) slot(index int) (*slot, error) {
	if index < 0 || index >= len(c.slots) {
		return nil, fmt.Errorf("index %d of %d: %w", index, len(c.slots), ErrOutOfRange)
	}
	return c.slots[index], nil
}
