// Package captcha defines the data model shared by every component of the
// challenge generation and validation engine: collections, challenges and
// the engine-wide configuration knobs.
package captcha

import "fmt"

// Collection is an immutable named group of source image paths. A
// Collection always has at least one image; the registry never publishes
// an empty one.
type Collection struct {
	Name   string
	Images []string
}

// Clone returns a Collection whose Images slice is independent of the
// receiver's backing array, so a reader can safely use it after the
// registry has released its lock.
func (c Collection) Clone() Collection {
	images := make([]string, len(c.Images))
	copy(images, c.Images)
	return Collection{Name: c.Name, Images: images}
}

// Challenge is the immutable unit handed to exactly one consumer: an
// encoded grid image plus the bitstring answer that graded it.
type Challenge struct {
	ID         string
	Image      []byte
	Topic      string
	Answer     string
	ImageSize  int
	GapSize    int
	GridLength int
}

func (c Challenge) String() string {
	return fmt.Sprintf("ID: %s, topic: %s, answer: %s", c.ID, c.Topic, c.Answer)
}

// Config carries the fixed parameters an Engine is constructed with.
// All fields are required; Validate enforces that.
type Config struct {
	BufferSize int
	ImageSize  int
	GapSize    int
	GridLength int
}

func (c Config) Validate() error {
	if c.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be >= 1, got %d", c.BufferSize)
	}
	if c.ImageSize < 1 {
		return fmt.Errorf("image_size must be > 0, got %d", c.ImageSize)
	}
	if c.GapSize < 0 {
		return fmt.Errorf("gap_size must be >= 0, got %d", c.GapSize)
	}
	if c.GridLength < 1 {
		return fmt.Errorf("grid_length must be >= 1, got %d", c.GridLength)
	}
	return nil
}

// Cells is the total number of grid cells, L².
func (c Config) Cells() int {
	return c.GridLength * c.GridLength
}

const ThumbnailPrefix = ".thumbnail."
