package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
)

// Sky condition thresholds on the 0-255 luminance scale.
const (
	saturatedLevel      = 250
	overexposedFraction = 0.05
	brightSkyMedian     = 100
)

// Region is a rectangle in pixel coordinates. (X1,Y1) is inclusive and
// (X2,Y2) exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// SkyStats summarises the luminance of a frame or region.
//
// The statistics come from a 256-bin luminance histogram, so memory use does
// not grow with frame size.
type SkyStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`

	// P99 is the 99th percentile, a rough level for the brightest stars.
	P99 float64 `json:"p99"`

	// SaturatedFraction is the share of pixels at or above 250.
	SaturatedFraction float64 `json:"saturated_fraction"`

	// Tint is the mean colour as "#rrggbb". Light pollution shows up as an
	// orange cast, twilight as blue.
	Tint string `json:"tint"`

	// Condition is "dark", "bright" or "overexposed".
	Condition string `json:"condition"`
}

// MeasureSky computes SkyStats over region, or the whole frame when region
// is nil.
//
// # Conditions
//
//   - "overexposed": more than 5% of pixels are saturated; star peaks are
//     clipped and centroids become unreliable
//   - "bright": median luminance above 100, typical of twilight or urban sky
//   - "dark": anything else
func MeasureSky(img image.Image, region *Region) (*SkyStats, error) {
	src := img
	if region != nil {
		b := img.Bounds()
		r := image.Rect(region.X1, region.Y1, region.X2, region.Y2)
		if r.Empty() || !r.In(b) {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
		}
		src = cropView(img, r)
	}

	buf := detection.FromImage(src)
	if len(buf.Pix) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	levels := make([]float64, 256)
	counts := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}
	for _, v := range buf.Pix {
		counts[v]++
	}

	mean, std := stat.MeanStdDev(levels, counts)
	if len(buf.Pix) == 1 {
		std = 0
	}

	var saturated float64
	for v := saturatedLevel; v < 256; v++ {
		saturated += counts[v]
	}
	saturated /= float64(len(buf.Pix))

	s := &SkyStats{
		Mean:              mean,
		StdDev:            std,
		Median:            stat.Quantile(0.5, stat.Empirical, levels, counts),
		P99:               stat.Quantile(0.99, stat.Empirical, levels, counts),
		SaturatedFraction: saturated,
		Tint:              meanTint(src),
	}

	switch {
	case s.SaturatedFraction > overexposedFraction:
		s.Condition = "overexposed"
	case s.Median > brightSkyMedian:
		s.Condition = "bright"
	default:
		s.Condition = "dark"
	}
	return s, nil
}

// meanTint averages the colour of every pixel.
func meanTint(img image.Image) string {
	b := img.Bounds()
	var sr, sg, sb float64
	n := float64(b.Dx() * b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sr += float64(r)
			sg += float64(g)
			sb += float64(bl)
		}
	}
	c := colorful.Color{R: sr / n / 65535, G: sg / n / 65535, B: sb / n / 65535}
	return c.Clamped().Hex()
}

// subImager is implemented by every standard library image type.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropView returns r of img without copying when the image supports it.
func cropView(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	return imaging.Crop(img, r)
}
