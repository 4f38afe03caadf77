//go:build darwin

package screen

/*
#cgo CFLAGS: -mmacosx-version-min=10.15
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>
#include <string.h>

#define SNAP_MAX_DISPLAYS 32

typedef struct {
	int width;
	int height;
	size_t bytes_per_row;
	unsigned char *data;
	size_t len;
	int status;
} snap_image;

static int snap_display_list(CGDirectDisplayID *out, uint32_t *count) {
	return (int)CGGetActiveDisplayList(SNAP_MAX_DISPLAYS, out, count);
}

static double snap_display_scale(CGDirectDisplayID id) {
	CGDisplayModeRef mode = CGDisplayCopyDisplayMode(id);
	if (mode == NULL) {
		return 0;
	}
	size_t pixels = CGDisplayModeGetPixelWidth(mode);
	size_t points = CGDisplayModeGetWidth(mode);
	CGDisplayModeRelease(mode);
	if (points == 0) {
		return 0;
	}
	return (double)pixels / (double)points;
}

static snap_image snap_capture(CGDirectDisplayID id) {
	snap_image out;
	memset(&out, 0, sizeof(out));

	CGImageRef img = CGDisplayCreateImage(id);
	if (img == NULL) {
		out.status = 1;
		return out;
	}
	out.width = (int)CGImageGetWidth(img);
	out.height = (int)CGImageGetHeight(img);
	out.bytes_per_row = CGImageGetBytesPerRow(img);

	CFDataRef data = CGDataProviderCopyData(CGImageGetDataProvider(img));
	CGImageRelease(img);
	if (data == NULL) {
		out.status = 2;
		return out;
	}
	out.len = (size_t)CFDataGetLength(data);
	out.data = malloc(out.len);
	if (out.data == NULL) {
		CFRelease(data);
		out.status = 3;
		return out;
	}
	memcpy(out.data, CFDataGetBytePtr(data), out.len);
	CFRelease(data);
	return out;
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
)

// darwinBackend captures through CoreGraphics, which already yields B,G,R,A
// rows, and gates on the Screen Recording consent.
type darwinBackend struct{}

func (darwinBackend) hasPermission() bool {
	return bool(C.CGPreflightScreenCaptureAccess())
}

func (darwinBackend) requestPermission() {
	C.CGRequestScreenCaptureAccess()
}

func (darwinBackend) displayIDs() ([]C.CGDirectDisplayID, error) {
	ids := make([]C.CGDirectDisplayID, C.SNAP_MAX_DISPLAYS)
	var count C.uint32_t
	if rc := C.snap_display_list(&ids[0], &count); rc != 0 {
		return nil, fmt.Errorf("CGGetActiveDisplayList failed (CGError %d)", int(rc))
	}
	return ids[:int(count)], nil
}

func (b darwinBackend) displays() ([]Display, error) {
	ids, err := b.displayIDs()
	if err != nil {
		return nil, apperrors.DisplayError(apperrors.DisplayQueryFailed, 0, err)
	}
	out := make([]Display, 0, len(ids))
	for i, id := range ids {
		r := C.CGDisplayBounds(id)
		out = append(out, Display{
			Index:       i,
			X:           int(r.origin.x),
			Y:           int(r.origin.y),
			Width:       uint32(r.size.width),
			Height:      uint32(r.size.height),
			ScaleFactor: float64(C.snap_display_scale(id)),
		})
	}
	return out, nil
}

func (b darwinBackend) capture(d Display) (int, int, []byte, error) {
	ids, err := b.displayIDs()
	if err != nil {
		return 0, 0, nil, err
	}
	if d.Index >= len(ids) {
		return 0, 0, nil, fmt.Errorf("display %d disappeared during capture", d.Index)
	}
	id := ids[d.Index]

	img := C.snap_capture(id)
	if img.data != nil {
		defer C.free(unsafe.Pointer(img.data))
	}
	switch img.status {
	case 0:
	case 1:
		return 0, 0, nil, fmt.Errorf("CGDisplayCreateImage returned nil (display_id=%d)", uint32(id))
	default:
		return 0, 0, nil, fmt.Errorf("reading display image failed (display_id=%d, status=%d)", uint32(id), int(img.status))
	}

	raw := C.GoBytes(unsafe.Pointer(img.data), C.int(img.len))
	w, h := int(img.width), int(img.height)
	bgra, err := PackRows(raw, w, h, int(img.bytes_per_row))
	if err != nil {
		return 0, 0, nil, err
	}
	return w, h, bgra, nil
}

// New creates the capture engine for this platform.
func New() *Engine {
	return newEngine(darwinBackend{})
}
