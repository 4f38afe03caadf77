package screen

import (
	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/syncx"
)

// ErrNotCaptured is returned by Cache reads before the first Store or after Clear.
var ErrNotCaptured = apperrors.New(apperrors.NotCaptured, "no capture available yet; trigger a capture first")

// Cache keeps the most recent CaptureSet.
type Cache struct {
	slot *syncx.Slot[CaptureSet]
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{slot: syncx.NewSlot[CaptureSet]()}
}

// Store replaces the cached set.
func (c *Cache) Store(set CaptureSet) { c.slot.Set(set) }

// Clear drops the cached set.
func (c *Cache) Clear() { c.slot.Clear() }

// Get returns the cached set or ErrNotCaptured.
func (c *Cache) Get() (CaptureSet, error) {
	set, ok := c.slot.Get()
	if !ok {
		return nil, ErrNotCaptured
	}
	return set, nil
}

// Image returns the encoded image of one display from the cached set.
func (c *Cache) Image(index int) ([]byte, error) {
	var img []byte
	var inRange bool
	if !c.slot.Read(func(set CaptureSet) {
		if index >= 0 && index < len(set) {
			img, inRange = set[index].Image, true
		}
	}) {
		return nil, ErrNotCaptured
	}
	if !inRange {
		return nil, apperrors.Newf(apperrors.NotCaptured, "display %d is not part of the last capture", index)
	}
	return img, nil
}
