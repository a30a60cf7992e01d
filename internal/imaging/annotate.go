package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
	"github.com/uygaratabay1015-boop/kutupp/internal/polaris"
)

const (
	defaultMarkerRadius = 6
	defaultPolarisColor = "#ff3030"
	rankedLabels        = 5
)

// AnnotateOptions selects what is drawn over the frame.
type AnnotateOptions struct {
	// Scores are drawn as rings coloured by total score, red (0) through
	// yellow to green (1). The first five are numbered.
	Scores []polaris.StarScore

	// Stars are drawn as grey rings. Ignored when Scores is set.
	Stars []detection.Star

	// Polaris, when set, gets a crosshair and a larger ring.
	Polaris *detection.Star

	// Label is printed in the top-left corner.
	Label string

	// Horizon draws the frame's centre row, where altitude is zero.
	Horizon bool

	// MarkerRadius is the ring radius in pixels. Default 6.
	MarkerRadius int

	// PolarisColor is a "#rrggbb" hex colour. Default "#ff3030".
	PolarisColor string
}

// AnnotateResult is the annotated frame as PNG.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Markers     int    `json:"markers"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ScoreColor maps a score in [0, 1] to a hue between red and green.
func ScoreColor(score float64) colorful.Color {
	score = math.Max(0, math.Min(1, score))
	return colorful.Hsv(120*score, 0.9, 1)
}

// Annotate draws detection and scoring results over a copy of img.
func Annotate(img image.Image, opts AnnotateOptions) (*AnnotateResult, error) {
	polarisHex := opts.PolarisColor
	if polarisHex == "" {
		polarisHex = defaultPolarisColor
	}
	polarisColor, err := colorful.Hex(polarisHex)
	if err != nil {
		return nil, fmt.Errorf("invalid polaris color %q: %w", opts.PolarisColor, err)
	}
	radius := opts.MarkerRadius
	if radius <= 0 {
		radius = defaultMarkerRadius
	}

	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	if opts.Horizon {
		horizon := colorful.Color{R: 0.3, G: 0.6, B: 1}
		y := bounds.Dy() / 2
		for x := 0; x < bounds.Dx(); x += 2 {
			canvas.Set(x, y, horizon)
		}
	}

	markers := 0
	if len(opts.Scores) > 0 {
		for i, s := range opts.Scores {
			c := ScoreColor(s.TotalScore)
			ring(canvas, s.Star.X, s.Star.Y, radius, c)
			if i < rankedLabels {
				drawLabel(canvas, int(s.Star.X)+radius+2, int(s.Star.Y)-radius, strconv.Itoa(i+1), c)
			}
			markers++
		}
	} else {
		grey := color.RGBA{160, 160, 160, 255}
		for _, s := range opts.Stars {
			ring(canvas, s.X, s.Y, radius, grey)
			markers++
		}
	}

	if opts.Polaris != nil {
		p := *opts.Polaris
		ring(canvas, p.X, p.Y, radius*2, polarisColor)
		crosshair(canvas, p.X, p.Y, radius*3, polarisColor)
		drawLabel(canvas, int(p.X)+radius*2+3, int(p.Y)+4, "Polaris", polarisColor)
		markers++
	}

	if opts.Label != "" {
		drawLabel(canvas, 4, 4, opts.Label, color.White)
	}

	encoded, err := encodePNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &AnnotateResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Markers:     markers,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// ring draws a one-pixel circle outline. Pixels outside the canvas are
// skipped by Set.
func ring(img *image.RGBA, cx, cy float64, radius int, c color.Color) {
	r := float64(radius)
	steps := int(2*math.Pi*r) + 8
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		img.Set(int(math.Round(cx+r*math.Cos(a))), int(math.Round(cy+r*math.Sin(a))), c)
	}
}

// crosshair draws horizontal and vertical ticks around (cx, cy), leaving the
// star itself uncovered.
func crosshair(img *image.RGBA, cx, cy float64, size int, c color.Color) {
	x, y := int(math.Round(cx)), int(math.Round(cy))
	gap := size / 3
	for d := gap; d <= size; d++ {
		img.Set(x-d, y, c)
		img.Set(x+d, y, c)
		img.Set(x, y-d, c)
		img.Set(x, y+d, c)
	}
}

// drawLabel prints text with its top-left corner at (x, y) on a dark box.
func drawLabel(img *image.RGBA, x, y int, text string, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	box := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(color.RGBA{0, 0, 0, 180}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
