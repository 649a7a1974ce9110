package thumbnail

import (
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/sashko-guz/imhumane/internal/registry"
)

func writeSourceImage(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := imaging.New(w, h, color.Transparent)
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func TestGetGeneratesAndReusesThumbnail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeSourceImage(t, src, 400, 300)

	c := New(96, nil)

	img, err := c.Get(src)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 96 || b.Dy() != 96 {
		t.Fatalf("thumbnail size = %dx%d, want 96x96", b.Dx(), b.Dy())
	}

	thumbPath := registry.ThumbnailPath(src)
	info1, err := os.Stat(thumbPath)
	if err != nil {
		t.Fatalf("expected thumbnail file to exist: %v", err)
	}

	// A second call against the same, now-cached, thumbnail must not
	// rewrite the file (reuse, verified by mtime per the idempotence
	// invariant).
	if _, err := c.Get(src); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	info2, err := os.Stat(thumbPath)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Fatal("second Get() rewrote an already-valid thumbnail")
	}
}

func TestGetConcurrentCallsAreIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeSourceImage(t, src, 400, 300)

	c := New(96, nil)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(src)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("concurrent Get() error = %v", err)
		}
	}

	thumbPath := registry.ThumbnailPath(src)
	if _, err := os.Stat(thumbPath); err != nil {
		t.Fatalf("expected a thumbnail file to exist after concurrent generation: %v", err)
	}
}
