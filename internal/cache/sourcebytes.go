// Package cache holds the two small in-memory/on-disk caches that sit
// alongside (never instead of) the Thumbnail Cache's on-disk contract: a
// bounded memory cache of raw source bytes, and a TTL'd disk cache used by
// the collection mirror to avoid re-downloading unchanged objects.
package cache

import (
	"github.com/dgraph-io/ristretto"
	"github.com/sashko-guz/imhumane/internal/logger"
)

var log = logger.Component("SourceBytesCache")

// SourceBytes caches the raw, encoded bytes of a source image keyed by its
// path. It never holds decoded pixels, so it does not violate the
// engine's "no decoded-image cache across calls" invariant — it only
// saves a disk read the next time a thumbnail has to be regenerated from
// the same source.
type SourceBytes struct {
	cache *ristretto.Cache
}

// NewSourceBytes builds a cache capped at maxBytes of encoded image data.
func NewSourceBytes(maxBytes int64) (*SourceBytes, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20 // 64MiB of encoded source bytes by default
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxBytes / 1024, // ~1 counter per 1KB of budget
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &SourceBytes{cache: c}, nil
}

func (s *SourceBytes) Get(path string) ([]byte, bool) {
	v, ok := s.cache.Get(path)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	log.Debugf("hit for %s (%d bytes)", path, len(data))
	return data, true
}

func (s *SourceBytes) Set(path string, data []byte) {
	s.cache.Set(path, data, int64(len(data)))
}

// Wait blocks until pending async Set calls have been applied. Useful in
// tests that assert on cache contents immediately after a Set.
func (s *SourceBytes) Wait() {
	s.cache.Wait()
}
