package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func solidThumbnail(size int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComposeRejectsWrongCellCount(t *testing.T) {
	t.Parallel()

	thumbs := []image.Image{solidThumbnail(8, color.White)}
	if _, err := Compose(thumbs, 8, 2, 3); err == nil {
		t.Fatal("expected an error when len(thumbnails) != gridLength^2")
	}
}

func TestComposeProducesDecodableJPEG(t *testing.T) {
	t.Parallel()

	const size, gap, grid = 8, 2, 3
	thumbs := make([]image.Image, grid*grid)
	for i := range thumbs {
		thumbs[i] = solidThumbnail(size, color.White)
	}

	encoded, err := Compose(thumbs, size, gap, grid)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("encoded output did not decode as JPEG: %v", err)
	}

	wantSide := grid*(size+gap) + gap
	b := decoded.Bounds()
	if b.Dx() != wantSide || b.Dy() != wantSide {
		t.Fatalf("canvas size = %dx%d, want %dx%d", b.Dx(), b.Dy(), wantSide, wantSide)
	}
}
