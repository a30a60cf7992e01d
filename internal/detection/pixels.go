package detection

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PixelBuffer is a row-major grid of single-channel luminance samples.
//
// The detector treats the buffer as read-only. Pix[y*Width+x] holds the
// luminance of pixel (x, y) on the conventional 0-255 scale.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer wraps an existing luminance slice.
//
// Returns an error if the dimensions are negative or pix does not hold
// exactly width*height samples. The slice is not copied.
func NewPixelBuffer(width, height int, pix []uint8) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid buffer dimensions %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("pixel data has %d samples, want %d for %dx%d", len(pix), width*height, width, height)
	}
	return &PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}

// FromRGB converts interleaved 8-bit RGB samples to a luminance buffer.
func FromRGB(width, height int, rgb []uint8) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid buffer dimensions %dx%d", width, height)
	}
	if len(rgb) != width*height*3 {
		return nil, fmt.Errorf("rgb data has %d bytes, want %d for %dx%d", len(rgb), width*height*3, width, height)
	}
	pix := make([]uint8, width*height)
	for i := range pix {
		pix[i] = Luminance(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}
	return &PixelBuffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any decoded image to a luminance buffer.
//
// Conversion goes through imaging.Grayscale, which applies the ITU-R BT.601
// weights (0.299*R + 0.587*G + 0.114*B) to the non-premultiplied colour.
// The buffer origin is the image's Bounds().Min.
func FromImage(img image.Image) *PixelBuffer {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			pix[y*w+x] = row[x*4]
		}
	}
	return &PixelBuffer{Width: w, Height: h, Pix: pix}
}

// Luminance returns the BT.601 luma of an 8-bit RGB triple.
func Luminance(r, g, b uint8) uint8 {
	l := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	if l > 255 {
		l = 255
	}
	return uint8(l + 0.5)
}

// At returns the luminance at (x, y). No bounds checking is performed.
func (b *PixelBuffer) At(x, y int) uint8 {
	return b.Pix[y*b.Width+x]
}

// integralImage is a summed-area table with one extra leading row and column
// of zeros, so sum[(y+1)*(w+1)+(x+1)] covers the rectangle (0,0)-(x,y).
type integralImage struct {
	width  int
	height int
	sum    []int64
}

func newIntegralImage(buf *PixelBuffer) *integralImage {
	w, h := buf.Width, buf.Height
	stride := w + 1
	sum := make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(buf.Pix[y*w+x])
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
		}
	}
	return &integralImage{width: w, height: h, sum: sum}
}

// windowMean returns the mean luminance over the square window of the given
// radius centred on (x, y), clipped to the image.
func (ii *integralImage) windowMean(x, y, radius int) float64 {
	x0 := max(x-radius, 0)
	y0 := max(y-radius, 0)
	x1 := min(x+radius, ii.width-1)
	y1 := min(y+radius, ii.height-1)

	stride := ii.width + 1
	total := ii.sum[(y1+1)*stride+x1+1] -
		ii.sum[y0*stride+x1+1] -
		ii.sum[(y1+1)*stride+x0] +
		ii.sum[y0*stride+x0]
	area := (x1 - x0 + 1) * (y1 - y0 + 1)
	return float64(total) / float64(area)
}
