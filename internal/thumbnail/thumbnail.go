// Package thumbnail implements the Thumbnail Cache: get_thumbnail produces
// and persists a fixed-size variant of a source image next to it,
// coordinating at-most-one writer per file across goroutines (singleflight)
// and across processes (an advisory flock on the thumbnail file itself).
package thumbnail

import (
	"bytes"
	"image"
	"os"
	"syscall"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"github.com/sashko-guz/imhumane/internal/cache"
	"github.com/sashko-guz/imhumane/internal/captcha"
	"github.com/sashko-guz/imhumane/internal/logger"
	"github.com/sashko-guz/imhumane/internal/metrics"
	"github.com/sashko-guz/imhumane/internal/registry"
)

var log = logger.Component("ThumbnailCache")

// Cache produces thumbnails of a fixed size, persisting them next to their
// source image. The zero value is not usable; construct with New.
type Cache struct {
	size    int
	sources *cache.SourceBytes
	group   singleflight.Group
}

func New(size int, sources *cache.SourceBytes) *Cache {
	return &Cache{size: size, sources: sources}
}

// Get opens and locks the thumbnail sibling file, reuses it if it already
// decodes to the expected size, and otherwise regenerates it from the
// source image and persists the result.
func (c *Cache) Get(srcPath string) (image.Image, error) {
	v, err, _ := c.group.Do(srcPath, func() (any, error) {
		return c.getLocked(srcPath)
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (c *Cache) getLocked(srcPath string) (image.Image, error) {
	thumbPath := registry.ThumbnailPath(srcPath)

	f, err := os.OpenFile(thumbPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, captcha.NewOpenThumbnailError(thumbPath, err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return nil, captcha.NewOpenThumbnailError(thumbPath, err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	info, err := f.Stat()
	if err != nil {
		return nil, captcha.NewOpenThumbnailError(thumbPath, err)
	}

	if info.Size() > 0 {
		if img, err := imaging.Decode(f); err == nil {
			b := img.Bounds()
			if b.Dx() == c.size && b.Dy() == c.size {
				log.Debugf("hit: %s", thumbPath)
				metrics.ThumbnailCacheHits.Inc()
				return img, nil
			}
		}
	}

	log.Debugf("miss: %s, regenerating from %s", thumbPath, srcPath)
	metrics.ThumbnailCacheMisses.Inc()
	img, err := c.decodeSource(srcPath)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, c.size, c.size, imaging.Linear)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, captcha.NewGenerateImageError(err)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, captcha.NewGenerateImageError(err)
	}
	if err := f.Truncate(0); err != nil {
		return nil, captcha.NewGenerateImageError(err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return nil, captcha.NewGenerateImageError(err)
	}

	return resized, nil
}

// decodeSource reads and decodes the source image, consulting the
// source-byte cache first so a regeneration does not always cost a disk
// read of the original file.
func (c *Cache) decodeSource(srcPath string) (image.Image, error) {
	if c.sources != nil {
		if data, ok := c.sources.Get(srcPath); ok {
			img, err := imaging.Decode(bytes.NewReader(data))
			if err == nil {
				return img, nil
			}
			log.Warnf("cached bytes for %s failed to decode, re-reading: %v", srcPath, err)
		}
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, captcha.NewOpenImageError(srcPath, err)
	}
	if c.sources != nil {
		c.sources.Set(srcPath, data)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, captcha.NewOpenImageError(srcPath, err)
	}
	return img, nil
}
