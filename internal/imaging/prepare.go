package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// PrepareOptions controls frame preparation. Zero values disable each step.
type PrepareOptions struct {
	// MaxDimension downscales frames whose longer side exceeds it.
	MaxDimension int

	// DenoiseSigma applies a Gaussian blur of this radius before detection.
	// A light blur (0.5-1.0) suppresses single-pixel sensor noise without
	// merging neighbouring stars.
	DenoiseSigma float64
}

// Frame is a photograph ready for star detection.
type Frame struct {
	Image image.Image

	// Scale is prepared width over original width (1 when not resized).
	Scale float64

	OriginalWidth  int
	OriginalHeight int
}

// PrepareFrame downsizes and denoises img according to opts. The source
// image is never modified.
func PrepareFrame(img image.Image, opts PrepareOptions) *Frame {
	b := img.Bounds()
	f := &Frame{
		Image:          img,
		Scale:          1,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
	}

	if opts.MaxDimension > 0 && (b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension) {
		resized := imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
		f.Image = resized
		f.Scale = float64(resized.Bounds().Dx()) / float64(b.Dx())
	}

	if opts.DenoiseSigma > 0 {
		f.Image = blur.Gaussian(f.Image, opts.DenoiseSigma)
	}
	return f
}

// ToOriginal maps a pixel position in the prepared frame back to the
// original photograph, treating coordinates as pixel centres.
func (f *Frame) ToOriginal(x, y float64) (float64, float64) {
	if f.Scale == 1 || f.Scale <= 0 {
		return x, y
	}
	return (x+0.5)/f.Scale - 0.5, (y+0.5)/f.Scale - 0.5
}
