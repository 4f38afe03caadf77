//go:build windows

package ocr

import (
	"context"
	"image"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// New returns the in-process OCR service recognizer.
func New(opts Options) TextRecognizer {
	return &serviceRecognizer{opts: opts.withDefaults()}
}

type serviceRecognizer struct {
	opts Options
}

func (s *serviceRecognizer) Name() string { return "service" }

func (s *serviceRecognizer) Recognize(ctx context.Context, img []byte, language string) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "ocr.service")
	defer span.End()

	if len(img) == 0 {
		return nil, apperrors.New(apperrors.InvalidArgument, "image is empty")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if hint := s.opts.hint(language); hint != "" {
		lang := TesseractLanguage(hint)
		if err := client.SetLanguage(lang); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.BackendExecutionFailed, "set language %s", lang)
		}
		span.SetAttr("language", lang)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.BackendExecutionFailed, "load image into OCR service")
	}

	textLines, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.BackendExecutionFailed, "OCR service line recognition")
	}
	words, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.BackendExecutionFailed, "OCR service word recognition")
	}

	result := FromService(serviceLines(textLines, words))
	trace.Logger(ctx).Debug("ocr service finished", "lines", len(result.Lines))
	return result, nil
}

// serviceLines pairs the service's text lines with its words. Words arrive in
// reading order tagged with block/paragraph/line ids; the n-th distinct id
// belongs to the n-th text line.
func serviceLines(textLines, words []gosseract.BoundingBox) []ServiceLine {
	var out []ServiceLine
	var current lineKey
	for i, w := range words {
		key := lineKey{w.BlockNum, w.ParNum, w.LineNum}
		if i == 0 || key != current {
			current = key
			out = append(out, ServiceLine{})
		}
		sl := &out[len(out)-1]
		x, y, width, height := rect(w.Box)
		sl.Words = append(sl.Words, ServiceWord{Text: w.Word, X: x, Y: y, Width: width, Height: height})
	}

	if len(out) != len(textLines) {
		// geometry falls back to the union of word boxes
		return out
	}
	for i, tl := range textLines {
		out[i].Text = tl.Word
		out[i].X, out[i].Y, out[i].Width, out[i].Height = rect(tl.Box)
	}
	return out
}

func rect(r image.Rectangle) (x, y, width, height float64) {
	return float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())
}
