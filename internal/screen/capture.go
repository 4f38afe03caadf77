// Package screen captures every attached display into self-contained bitmaps
// and derives the logical/physical geometry of each one.
package screen

import (
	"context"
	"time"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// PermissionHint is shown when the OS has not granted screen recording.
const PermissionHint = "screen capture needs the Screen Recording permission: open System Settings > Privacy & Security > Screen Recording, enable this application, then quit and reopen it"

// Display is one enumerated display in logical (OS-reported) units.
// ScaleFactor is zero when the platform does not report one.
type Display struct {
	Index       int
	X, Y        int
	Width       uint32
	Height      uint32
	ScaleFactor float64
}

// MonitorCapture is the capture result for one display.
type MonitorCapture struct {
	Image          []byte // top-down 32bpp BMP
	PhysicalX      int
	PhysicalY      int
	PhysicalWidth  uint32
	PhysicalHeight uint32
	LogicalX       int
	LogicalY       int
	LogicalWidth   uint32
	LogicalHeight  uint32
	ScaleFactor    float64
}

// CaptureSet holds one MonitorCapture per display in enumeration order.
type CaptureSet []MonitorCapture

// Record is the serialized form of a MonitorCapture. FilePath is filled in by
// whichever transport hands the encoded image to a consumer.
type Record struct {
	FilePath       string  `json:"file_path"`
	PhysicalX      int     `json:"physical_x"`
	PhysicalY      int     `json:"physical_y"`
	PhysicalWidth  uint32  `json:"physical_width"`
	PhysicalHeight uint32  `json:"physical_height"`
	LogicalX       int     `json:"logical_x"`
	LogicalY       int     `json:"logical_y"`
	LogicalWidth   uint32  `json:"logical_width"`
	LogicalHeight  uint32  `json:"logical_height"`
	ScaleFactor    float64 `json:"scale_factor"`
}

// Record returns the serialized form with the given file path.
func (m MonitorCapture) Record(filePath string) Record {
	return Record{
		FilePath:       filePath,
		PhysicalX:      m.PhysicalX,
		PhysicalY:      m.PhysicalY,
		PhysicalWidth:  m.PhysicalWidth,
		PhysicalHeight: m.PhysicalHeight,
		LogicalX:       m.LogicalX,
		LogicalY:       m.LogicalY,
		LogicalWidth:   m.LogicalWidth,
		LogicalHeight:  m.LogicalHeight,
		ScaleFactor:    m.ScaleFactor,
	}
}

// Records serializes the set. pathFor may be nil.
func (s CaptureSet) Records(pathFor func(index int) string) []Record {
	out := make([]Record, len(s))
	for i, m := range s {
		var p string
		if pathFor != nil {
			p = pathFor(i)
		}
		out[i] = m.Record(p)
	}
	return out
}

// Capturer captures all displays.
type Capturer interface {
	CaptureAll(ctx context.Context) (CaptureSet, error)
}

// backend implements platform-specific enumeration and raw capture.
type backend interface {
	hasPermission() bool
	// requestPermission triggers the OS consent prompt; the grant is not
	// observable until the process restarts.
	requestPermission()
	displays() ([]Display, error)
	// capture returns canonical B,G,R,A pixels with no row padding.
	capture(d Display) (width, height int, bgra []byte, err error)
}

// Engine is the capture engine for the host platform.
type Engine struct {
	backend
}

func newEngine(b backend) *Engine {
	return &Engine{backend: b}
}

// Displays enumerates the attached displays.
func (e *Engine) Displays() ([]Display, error) {
	ds, err := e.displays()
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, apperrors.New(apperrors.NoDisplaysFound, "no displays found")
	}
	return ds, nil
}

// CaptureAll captures every display serially. Any failure aborts the call and
// no partial set is returned.
func (e *Engine) CaptureAll(ctx context.Context) (CaptureSet, error) {
	ctx, span := trace.StartSpan(ctx, "screen.capture_all")
	defer span.End()
	log := trace.Logger(ctx)

	if !e.hasPermission() {
		e.requestPermission()
		span.SetAttr("error", "permission denied")
		return nil, apperrors.New(apperrors.PermissionDenied, PermissionHint)
	}

	displays, err := e.Displays()
	if err != nil {
		span.SetAttr("error", err.Error())
		return nil, err
	}

	set := make(CaptureSet, 0, len(displays))
	for i, d := range displays {
		start := time.Now()
		w, h, bgra, err := e.capture(d)
		if err != nil {
			code := apperrors.CaptureFailed
			if apperrors.IsCode(err, apperrors.EncodingInvariant) {
				code = apperrors.EncodingInvariant
			}
			span.SetAttr("error", err.Error())
			return nil, apperrors.DisplayError(code, i, err)
		}

		mc, err := buildCapture(d, w, h, bgra)
		if err != nil {
			span.SetAttr("error", err.Error())
			return nil, apperrors.DisplayError(apperrors.EncodingInvariant, i, err)
		}
		log.Debug("display captured", "index", i, "width", w, "height", h,
			"scale", mc.ScaleFactor, "elapsed", time.Since(start))
		set = append(set, mc)
	}

	span.SetAttr("displays", len(set))
	log.Info("capture complete", "displays", len(set))
	return set, nil
}

func buildCapture(d Display, width, height int, bgra []byte) (MonitorCapture, error) {
	img, err := EncodeBMP(width, height, bgra)
	if err != nil {
		return MonitorCapture{}, err
	}
	logicalW, logicalH := max(d.Width, 1), max(d.Height, 1)
	scale := ResolveScale(d.ScaleFactor, uint32(width), uint32(height), logicalW, logicalH)
	px, py := PhysicalOrigin(d.X, d.Y, scale)

	return MonitorCapture{
		Image:          img,
		PhysicalX:      px,
		PhysicalY:      py,
		PhysicalWidth:  uint32(width),
		PhysicalHeight: uint32(height),
		LogicalX:       d.X,
		LogicalY:       d.Y,
		LogicalWidth:   logicalW,
		LogicalHeight:  logicalH,
		ScaleFactor:    scale,
	}, nil
}
