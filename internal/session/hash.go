package session

import (
	"log/slog"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/snapocr/internal/screen"
)

// hashSet computes a perceptual hash per display. Entries are nil for
// captures that could not be hashed.
func hashSet(set screen.CaptureSet) []*goimagehash.ImageHash {
	hashes := make([]*goimagehash.ImageHash, len(set))
	for i, mc := range set {
		img, err := screen.Decode(mc)
		if err != nil {
			slog.Debug("decode capture for hashing", "index", i, "error", err)
			continue
		}
		h, err := goimagehash.PerceptionHash(img)
		if err != nil {
			slog.Debug("hash capture", "index", i, "error", err)
			continue
		}
		hashes[i] = h
	}
	return hashes
}

// framesChanged reports whether next differs from prev: a different display
// count, an unhashable frame, or any display farther than MaxHashDistance.
func framesChanged(prev, next []*goimagehash.ImageHash) bool {
	if prev == nil || len(prev) != len(next) {
		return true
	}
	for i := range next {
		if prev[i] == nil || next[i] == nil {
			return true
		}
		dist, err := prev[i].Distance(next[i])
		if err != nil || dist > MaxHashDistance {
			return true
		}
	}
	return false
}
