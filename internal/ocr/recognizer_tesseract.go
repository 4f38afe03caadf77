//go:build !darwin && !windows

package ocr

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// InstallHint is returned when the tesseract executable cannot be found.
const InstallHint = "tesseract not found: install it (e.g. apt install tesseract-ocr tesseract-ocr-chi-sim) and make sure it is on PATH"

// New returns the tesseract CLI recognizer.
func New(opts Options) TextRecognizer {
	return &tesseractRecognizer{opts: opts.withDefaults()}
}

type tesseractRecognizer struct {
	opts Options
}

func (t *tesseractRecognizer) Name() string { return "tesseract" }

// Recognize writes the image to a uniquely named temp file, which is removed
// once tesseract returns.
func (t *tesseractRecognizer) Recognize(ctx context.Context, image []byte, language string) (*Result, error) {
	if len(image) == 0 {
		return nil, apperrors.New(apperrors.InvalidArgument, "image is empty")
	}
	path := filepath.Join(t.opts.TempDir, "snapocr-ocr-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return nil, apperrors.Wrap(err, apperrors.BackendExecutionFailed, "write temp image")
	}
	defer os.Remove(path)

	return t.RecognizeFile(ctx, path, language)
}

func (t *tesseractRecognizer) RecognizeFile(ctx context.Context, path, language string) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "ocr.tesseract")
	defer span.End()

	args := []string{path, "stdout"}
	if lang := TesseractLanguage(t.opts.hint(language)); lang != "" {
		args = append(args, "-l", lang)
		span.SetAttr("language", lang)
	}
	args = append(args, "tsv")

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(t.opts.TesseractPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		span.SetAttr("error", err.Error())
		return nil, commandError(err, stderr.String())
	}

	result, err := ParseTSV(stdout.String())
	if err != nil {
		return nil, err
	}
	trace.Logger(ctx).Debug("tesseract finished", "lines", len(result.Lines), "duration", time.Since(start))
	return result, nil
}

func commandError(err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrap(err, apperrors.BackendUnavailable, InstallHint)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = exitErr.Error()
		}
		return apperrors.New(apperrors.BackendExecutionFailed, "tesseract failed: "+msg).
			WithMetadata("exit_code", strconv.Itoa(exitErr.ExitCode()))
	}
	return apperrors.Wrap(err, apperrors.BackendExecutionFailed, "run tesseract")
}
