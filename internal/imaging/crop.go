package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// maxCutoutSide bounds the encoded size of a cutout after scaling.
const maxCutoutSide = 2048

// CutoutResult is a PNG snippet of the frame around a star.
type CutoutResult struct {
	// Region is the area of the source frame that was cut out, after
	// clipping to the frame.
	Region Region `json:"region"`

	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Cutout extracts the square of side 2*radius+1 centred on (cx, cy),
// clipped to the frame, and enlarges it by scale.
//
// Stars are a few pixels across, so cutouts are usually scaled up (8x is a
// good default) with nearest-neighbour sampling to keep pixel edges visible.
func Cutout(img image.Image, cx, cy float64, radius int, scale float64) (*CutoutResult, error) {
	if radius < 1 {
		return nil, fmt.Errorf("cutout radius must be at least 1, got %d", radius)
	}
	if scale <= 0 || math.IsNaN(scale) {
		return nil, fmt.Errorf("cutout scale must be positive, got %g", scale)
	}

	bounds := img.Bounds()
	x, y := int(math.Round(cx)), int(math.Round(cy))
	r := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("cutout centre (%.1f,%.1f) outside image bounds (%d,%d)-(%d,%d)",
			cx, cy, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	cropped := imaging.Crop(img, r)
	if scale != 1.0 {
		newWidth := int(float64(r.Dx()) * scale)
		newHeight := int(float64(r.Dy()) * scale)
		if newWidth < 1 || newHeight < 1 || newWidth > maxCutoutSide || newHeight > maxCutoutSide {
			return nil, fmt.Errorf("scaled cutout %dx%d outside 1-%d px", newWidth, newHeight, maxCutoutSide)
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
	}

	encoded, err := encodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cutout: %w", err)
	}

	return &CutoutResult{
		Region:      Region{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y},
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// encodePNG returns img as base64-encoded PNG.
func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
