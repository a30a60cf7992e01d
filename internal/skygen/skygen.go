// Package skygen draws synthetic night-sky frames with a known Polaris
// position, for exercising the analysis pipeline end to end.
//
// A frame is a flat background with random stars in its lower 70%, a bright
// radius-4 Polaris disc near the top, three dimmer companions within 50 px of
// it, and a light Gaussian blur. The same Options always draw the same frame.
package skygen

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"strings"

	"github.com/disintegration/imaging"
)

// Position is where Polaris is placed.
type Position string

// Polaris placements, as fractions of the frame size.
const (
	TopCenter Position = "top_center" // (0.5w, 0.2h)
	TopLeft   Position = "top_left"   // (0.3w, 0.15h)
	TopRight  Position = "top_right"  // (0.7w, 0.15h)
)

// ParsePosition accepts top_center, top_left or top_right (hyphens allowed).
// The empty string selects TopCenter.
func ParsePosition(s string) (Position, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", string(TopCenter), "center":
		return TopCenter, nil
	case string(TopLeft), "left":
		return TopLeft, nil
	case string(TopRight), "right":
		return TopRight, nil
	default:
		return "", fmt.Errorf("unknown polaris position: %s", s)
	}
}

// Options controls frame generation.
type Options struct {
	Width      int
	Height     int
	Stars      int
	Position   Position
	Background uint8
	BlurSigma  float64
	Seed       int64
}

// DefaultOptions returns a 1080x1920 portrait frame with 100 stars.
func DefaultOptions() Options {
	return Options{
		Width:      1080,
		Height:     1920,
		Stars:      100,
		Position:   TopCenter,
		Background: 50,
		BlurSigma:  0.8,
		Seed:       1,
	}
}

// Sky is a generated frame and the true Polaris position.
type Sky struct {
	Image    *image.NRGBA
	PolarisX int
	PolarisY int
}

// Generate draws a frame.
func Generate(opts Options) (*Sky, error) {
	if opts.Width < 16 || opts.Height < 16 {
		return nil, fmt.Errorf("frame too small: %dx%d", opts.Width, opts.Height)
	}
	if opts.Stars < 0 {
		return nil, fmt.Errorf("star count must not be negative, got %d", opts.Stars)
	}
	px, py, err := polarisAt(opts.Position, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	bg := opts.Background
	img := imaging.New(opts.Width, opts.Height, color.NRGBA{bg, bg, bg, 255})

	minY := int(float64(opts.Height) * 0.3)
	for i := 0; i < opts.Stars; i++ {
		x := rng.Intn(opts.Width)
		y := minY + rng.Intn(opts.Height-minY)
		brightness := uint8(200 + rng.Intn(56))
		radius := 1 + rng.Intn(3)
		disc(img, x, y, radius, brightness)
	}

	disc(img, px, py, 4, 255)

	for i := 0; i < 3; i++ {
		x := px + rng.Intn(101) - 50
		y := py + rng.Intn(101) - 50
		brightness := uint8(150 + rng.Intn(51))
		if x >= 0 && x < opts.Width && y >= 0 && y < opts.Height {
			disc(img, x, y, 2, brightness)
		}
	}

	if opts.BlurSigma > 0 {
		img = imaging.Blur(img, opts.BlurSigma)
	}
	return &Sky{Image: img, PolarisX: px, PolarisY: py}, nil
}

// Save writes the frame; the format follows the file extension.
func (s *Sky) Save(path string) error {
	if err := imaging.Save(s.Image, path); err != nil {
		return fmt.Errorf("saving sky frame: %w", err)
	}
	return nil
}

func polarisAt(p Position, w, h int) (int, int, error) {
	switch p {
	case TopCenter, "":
		return w / 2, int(float64(h) * 0.2), nil
	case TopLeft:
		return int(float64(w) * 0.3), int(float64(h) * 0.15), nil
	case TopRight:
		return int(float64(w) * 0.7), int(float64(h) * 0.15), nil
	default:
		return 0, 0, fmt.Errorf("unknown polaris position: %s", p)
	}
}

// disc fills a circle of the given radius, clipped to the frame.
func disc(img *image.NRGBA, cx, cy, radius int, v uint8) {
	b := img.Bounds()
	r2 := radius * radius
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > r2 || !(image.Point{x, y}).In(b) {
				continue
			}
			i := img.PixOffset(x, y)
			img.Pix[i] = v
			img.Pix[i+1] = v
			img.Pix[i+2] = v
			img.Pix[i+3] = 255
		}
	}
}
