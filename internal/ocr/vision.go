package ocr

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// NormalizedBox is a box in [0,1] image fractions with a bottom-left origin.
type NormalizedBox struct {
	X, Y, Width, Height float64
}

// Observation is one recognized text region with its best candidate.
type Observation struct {
	Text string
	Box  NormalizedBox
}

// FromNormalized converts a bottom-left normalized box into top-left pixel
// coordinates for an image of the given size. y, width and height are never
// negative.
func FromNormalized(b NormalizedBox, imageWidth, imageHeight int) (x, y, width, height float64) {
	w, h := float64(imageWidth), float64(imageHeight)
	x = b.X * w
	width = math.Max(0, b.Width*w)
	height = math.Max(0, b.Height*h)
	y = math.Max(0, (1-b.Y-b.Height)*h)
	return x, y, width, height
}

// FromObservations builds a result with one single-word line per non-blank
// observation, sorted top to bottom then left to right.
func FromObservations(obs []Observation, imageWidth, imageHeight int) *Result {
	lines := make([]Line, 0, len(obs))
	for _, o := range obs {
		if strings.TrimSpace(o.Text) == "" {
			continue
		}
		x, y, w, h := FromNormalized(o.Box, imageWidth, imageHeight)
		word := Word{Text: o.Text, X: x, Y: y, Width: w, Height: h}
		lines = append(lines, Line{
			Text:     o.Text,
			X:        x,
			Y:        y,
			Width:    w,
			Height:   h,
			Words:    []Word{word},
			WordGaps: []float64{},
		})
	}
	SortSpatial(lines)
	return NewResult(lines)
}

// ImageSize reads the pixel dimensions of an encoded image without decoding
// its pixels.
func ImageSize(data []byte) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, apperrors.New(apperrors.InvalidArgument, "image is empty")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, apperrors.Wrap(err, apperrors.InvalidArgument, "unrecognized image format")
	}
	return cfg.Width, cfg.Height, nil
}
