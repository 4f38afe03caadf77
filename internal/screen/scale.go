package screen

import "math"

// ResolveScale picks the physical-per-logical ratio for a display: the
// OS-reported value when usable, else the mean of the captured/logical width
// and height ratios, else 1.0.
func ResolveScale(reported float64, capturedW, capturedH, logicalW, logicalH uint32) float64 {
	if validScale(reported) {
		return reported
	}
	sx := float64(capturedW) / float64(logicalW)
	sy := float64(capturedH) / float64(logicalH)
	if s := (sx + sy) / 2; validScale(s) {
		return s
	}
	return 1.0
}

// PhysicalOrigin rounds the logical origin scaled into device pixels.
func PhysicalOrigin(x, y int, scale float64) (int, int) {
	return int(math.Round(float64(x) * scale)), int(math.Round(float64(y) * scale))
}

func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}
