// Package capture grabs screenshots of a configured monitor or
// sub-rectangle, deduplicating bit-identical frames and mediating
// access to the screen via a shared lock so the popup never
// photographs itself. Grounded on original_source/src/screenshot/
// screenmanager.py's ScreenManager thread (mss grab + last_screenshot
// equality skip + screen_lock context manager).
package capture

import (
	"crypto/sha256"
	"fmt"
	"image"
	"sync"

	"github.com/kbinani/screenshot"

	"github.com/rtr46/hoverdict/logger"
)

// Region selects what Capturer.Capture grabs: either an explicit
// sub-rectangle (UseRect) or a whole monitor by index, mirroring
// spec.md §6's `scan_region ∈ {"region"} ∪ integer screen index`.
type Region struct {
	UseRect     bool
	Rect        image.Rectangle
	ScreenIndex int
}

// Capturer grabs screenshots of the configured Region, skipping
// bit-identical repeats.
type Capturer struct {
	mu     sync.Mutex
	region Region
	lock   *ScreenLock

	hasLast  bool
	lastHash [sha256.Size]byte
}

// NewCapturer builds a Capturer defaulting to screen 0, guarded by lock.
func NewCapturer(lock *ScreenLock) *Capturer {
	return &Capturer{
		region: Region{ScreenIndex: 0},
		lock:   lock,
	}
}

// SetScanScreen switches to capturing whole monitor index.
func (c *Capturer) SetScanScreen(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = Region{ScreenIndex: index}
}

// SetScanRegion switches to capturing an explicit sub-rectangle.
func (c *Capturer) SetScanRegion(rect image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = Region{UseRect: true, Rect: rect}
}

// Geometry returns the rectangle Capture would currently grab, for the
// hit-scanner's cursor-normalization step (spec.md §4.3 step 1).
func (c *Capturer) Geometry() (image.Rectangle, error) {
	c.mu.Lock()
	region := c.region
	c.mu.Unlock()
	return c.rectFor(region)
}

func (c *Capturer) rectFor(region Region) (image.Rectangle, error) {
	if region.UseRect {
		return region.Rect, nil
	}
	n := screenshot.NumActiveDisplays()
	if region.ScreenIndex < 0 || region.ScreenIndex >= n {
		return image.Rectangle{}, fmt.Errorf("capture: screen index %d out of bounds (have %d displays)", region.ScreenIndex, n)
	}
	return screenshot.GetDisplayBounds(region.ScreenIndex), nil
}

// Capture grabs one frame of the current region, holding the screen
// lock only for the duration of the OS call. changed reports whether
// the frame differs from the previous one this Capturer grabbed; the
// caller (the pipeline's capture stage) is responsible for skipping
// submission to OCR when changed is false, per spec.md §4.5.
func (c *Capturer) Capture() (img *image.RGBA, changed bool, err error) {
	c.mu.Lock()
	region := c.region
	c.mu.Unlock()

	rect, err := c.rectFor(region)
	if err != nil {
		logger.Stage("capture").Error().Err(err).Msg("invalid scan region")
		return nil, false, err
	}

	c.lock.Acquire()
	img, err = screenshot.CaptureRect(rect)
	c.lock.Release()
	if err != nil {
		logger.Stage("capture").Error().Err(err).Msg("screen capture failed")
		return nil, false, err
	}

	hash := sha256.Sum256(img.Pix)

	c.mu.Lock()
	changed = !c.hasLast || hash != c.lastHash
	c.hasLast = true
	c.lastHash = hash
	c.mu.Unlock()

	return img, changed, nil
}
