// Package compose implements the Composer: assembling a grid of equally
// sized thumbnails into one encoded challenge image.
package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/sashko-guz/imhumane/internal/captcha"
)

// GradientTop and GradientBottom are the canvas background's endpoints. A
// vertical gradient stands in for a transparent-RGBA background, which
// would be wasted on the alpha-free JPEG output format.
var (
	GradientTop    = color.RGBA{R: 0x20, G: 0x24, B: 0x2e, A: 0xff}
	GradientBottom = color.RGBA{R: 0x3a, G: 0x40, B: 0x52, A: 0xff}
)

// Compose lays thumbnails out on an L×L grid with gapSize-wide gutters and
// encodes the result as a JPEG. len(thumbnails) must equal gridLength²;
// thumbnails[i] must already be imageSize×imageSize.
func Compose(thumbnails []image.Image, imageSize, gapSize, gridLength int) ([]byte, error) {
	cells := gridLength * gridLength
	if len(thumbnails) != cells {
		return nil, captcha.NewGenerateImageError(
			fmt.Errorf("compose: expected %d thumbnails, got %d", cells, len(thumbnails)))
	}

	side := gridLength*(imageSize+gapSize) + gapSize
	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	paintGradient(canvas, GradientTop, GradientBottom)

	for i, thumb := range thumbnails {
		x := gapSize + (imageSize+gapSize)*(i%gridLength)
		y := gapSize + (imageSize+gapSize)*(i/gridLength)
		dstRect := image.Rect(x, y, x+imageSize, y+imageSize)
		drawInto(canvas, dstRect, thumb)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, captcha.NewGenerateImageError(err)
	}
	return buf.Bytes(), nil
}

func paintGradient(canvas *image.RGBA, top, bottom color.RGBA) {
	h := canvas.Bounds().Dy()
	if h <= 1 {
		h = 2
	}
	for y := canvas.Bounds().Min.Y; y < canvas.Bounds().Max.Y; y++ {
		t := float64(y) / float64(h-1)
		c := lerp(top, bottom, t)
		for x := canvas.Bounds().Min.X; x < canvas.Bounds().Max.X; x++ {
			canvas.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 0xff,
	}
}

func drawInto(canvas *image.RGBA, dst image.Rectangle, src image.Image) {
	sb := src.Bounds()
	for y := 0; y < dst.Dy() && y < sb.Dy(); y++ {
		for x := 0; x < dst.Dx() && x < sb.Dx(); x++ {
			canvas.Set(dst.Min.X+x, dst.Min.Y+y, src.At(sb.Min.X+x, sb.Min.Y+y))
		}
	}
}
