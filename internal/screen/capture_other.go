//go:build !darwin

package screen

import (
	"errors"

	"github.com/kbinani/screenshot"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// portableBackend captures through the OS-native screenshot API. Screen
// recording consent is not gated on these platforms.
type portableBackend struct{}

func (portableBackend) hasPermission() bool { return true }
func (portableBackend) requestPermission()  {}

func (portableBackend) displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		if b.Empty() {
			return nil, apperrors.DisplayError(apperrors.DisplayQueryFailed, i, errors.New("display reported empty bounds"))
		}
		out = append(out, Display{
			Index:  i,
			X:      b.Min.X,
			Y:      b.Min.Y,
			Width:  uint32(b.Dx()),
			Height: uint32(b.Dy()),
		})
	}
	return out, nil
}

func (portableBackend) capture(d Display) (int, int, []byte, error) {
	img, err := screenshot.CaptureDisplay(d.Index)
	if err != nil {
		return 0, 0, nil, err
	}
	w, h, bgra := RGBAToBGRA(img)
	return w, h, bgra, nil
}

// New creates the capture engine for this platform.
func New() *Engine {
	return newEngine(portableBackend{})
}
