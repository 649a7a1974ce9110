// Package watcher implements the optional Collection Watcher: it watches
// the images directory for create/remove/rename events and triggers a
// rescan, debounced so a burst of filesystem operations (an rsync drop, a
// bulk unzip) produces one rescan instead of many.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sashko-guz/imhumane/internal/logger"
	"github.com/sashko-guz/imhumane/internal/metrics"
)

var log = logger.Component("CollectionWatcher")

// DefaultDebounce is how long the watcher waits after the last observed
// event before it actually rescans.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a root directory and its immediate subdirectories,
// invoking Rescan after a debounce window following the last change.
type Watcher struct {
	root     string
	debounce time.Duration
	rescan   func() error
	fsw      *fsnotify.Watcher
}

// New creates a Watcher. rescan is invoked from the watcher's own
// goroutine, never concurrently with itself.
func New(root string, debounce time.Duration, rescan func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{root: root, debounce: debounce, rescan: rescan, fsw: fsw}
	if err := w.addDirs(); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addDirs registers root and each of its immediate subdirectories.
// fsnotify is non-recursive, and the collection layout is exactly two
// levels deep (root/collection/file), so this is sufficient.
func (w *Watcher) addDirs() error {
	if err := w.fsw.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = w.fsw.Add(filepath.Join(w.root, e.Name()))
		}
	}
	return nil
}

// Run blocks, dispatching debounced rescans, until ctx is canceled. Errors
// from the underlying watch or from a rescan are logged and never stop
// the loop — the watcher is best-effort and purely additive.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugf("observed %s (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				timerC = timer.C
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warnf("watch error: %v", err)

		case <-timerC:
			timerC = nil
			if err := w.rescan(); err != nil {
				log.Warnf("rescan failed: %v", err)
				continue
			}
			metrics.WatcherRescans.Inc()
			// Newly created collection directories need their own watch.
			if err := w.addDirs(); err != nil {
				log.Warnf("failed to refresh watched directories: %v", err)
			}
		}
	}
}
