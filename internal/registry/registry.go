// Package registry implements the Collection Registry: a full-replace scan
// of an images directory into named, immutable Collections, guarded by a
// readers-writer lock so generator iterations never block on each other
// while sampling.
package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sashko-guz/imhumane/internal/captcha"
	"github.com/sashko-guz/imhumane/internal/logger"
	"github.com/sashko-guz/imhumane/internal/queue"
)

var log = logger.Component("Registry")

// Registry holds the current collection snapshot. The zero value is not
// usable; construct with New.
type Registry struct {
	mu          sync.RWMutex
	collections []captcha.Collection

	pending *queue.Pending
}

// New creates an empty Registry. pending receives every source path
// discovered during Scan whose thumbnail does not yet exist; it may be
// shared with generator workers so they can warm it opportunistically.
func New(pending *queue.Pending) *Registry {
	return &Registry{pending: pending}
}

// Snapshot returns a point-in-time clone of the registry. Callers never
// hold the registry lock while sampling or doing I/O — this is the only
// way the registry is read.
func (r *Registry) Snapshot() []captcha.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]captcha.Collection, len(r.collections))
	for i, c := range r.collections {
		out[i] = c.Clone()
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.collections)
}

// Scan enumerates root, replacing the registry atomically once the full
// scan succeeds. A failure anywhere aborts the scan with a typed error;
// the previous registry contents are left untouched — partial registries
// are never published.
func (r *Registry) Scan(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return captcha.NewScanError(root, err)
	}

	var collections []captcha.Collection

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())

		images, err := scanCollectionDir(dirPath, r.pending)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			log.Debugf("skipping empty directory %s", dirPath)
			continue
		}

		name := entry.Name()
		collections = append(collections, captcha.Collection{Name: name, Images: images})
	}

	r.mu.Lock()
	r.collections = collections
	r.mu.Unlock()

	log.Infof("scan of %s complete: %d collection(s)", root, len(collections))
	return nil
}

// scanCollectionDir lists the regular, non-thumbnail files directly inside
// dir and queues any whose thumbnail sibling does not yet exist.
func scanCollectionDir(dir string, pending *queue.Pending) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, captcha.NewScanError(dir, err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, captcha.ThumbnailPrefix) {
			continue
		}

		imgPath := filepath.Join(dir, name)
		info, err := entry.Info()
		if err != nil {
			return nil, captcha.NewScanError(imgPath, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		if pending != nil {
			thumbPath := ThumbnailPath(imgPath)
			if _, err := os.Stat(thumbPath); os.IsNotExist(err) {
				pending.Push(imgPath)
			}
		}

		images = append(images, imgPath)
	}
	return images, nil
}

// ThumbnailPath computes the sibling thumbnail path for a source image:
// ".thumbnail." + stem + ".jpg", living next to the source file.
func ThumbnailPath(srcPath string) string {
	dir := filepath.Dir(srcPath)
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, captcha.ThumbnailPrefix+stem+".jpg")
}
