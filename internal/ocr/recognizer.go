package ocr

import (
	"context"
	"os"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// TextRecognizer turns an encoded image into structured text. An empty
// language means no hint.
type TextRecognizer interface {
	Name() string
	Recognize(ctx context.Context, image []byte, language string) (*Result, error)
}

// FileRecognizer is implemented by backends that can read an image file
// directly.
type FileRecognizer interface {
	RecognizeFile(ctx context.Context, path, language string) (*Result, error)
}

// Options configures the platform backend.
type Options struct {
	// Language is used when a call carries no hint.
	Language string
	// TesseractPath is the tesseract executable for the CLI backend.
	TesseractPath string
	// TempDir holds intermediate image files. Defaults to os.TempDir().
	TempDir string
}

func (o Options) withDefaults() Options {
	if o.TesseractPath == "" {
		o.TesseractPath = DefaultTesseractPath
	}
	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}
	return o
}

func (o Options) hint(language string) string {
	if language != "" {
		return language
	}
	return o.Language
}

// DefaultTesseractPath is looked up on PATH.
const DefaultTesseractPath = "tesseract"

// MaxImageBytes bounds an encoded image accepted by any transport.
const MaxImageBytes = 64 << 20

// RecognizeFile recognizes the image at path, reading it into memory unless
// the recognizer can consume files itself.
func RecognizeFile(ctx context.Context, r TextRecognizer, path, language string) (*Result, error) {
	if fr, ok := r.(FileRecognizer); ok {
		return fr.RecognizeFile(ctx, path, language)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.InvalidArgument, "read image %s", path)
	}
	return r.Recognize(ctx, data, language)
}
