package matchboard

import (
	"sync"
	"time"
)

// CanvasPhase is the coarse lifecycle phase of the canvas.
type CanvasPhase uint8

const (
	PhaseIdle CanvasPhase = iota
	PhaseLoading
	PhaseReady
)

// String returns the lowercase name of the phase.
func (p CanvasPhase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "idle"
	}
}

// StateOptions tunes the canvas state manager. Zero values take the defaults.
type StateOptions struct {
	MinWidth  float64 // dimension clamp floor (default 200)
	MinHeight float64 // dimension clamp floor (default 150)
	// ResizeWindow is how long the resizing flag stays set after the last
	// dimension change (default 200ms).
	ResizeWindow time.Duration
	// OrientationWindow is how long the orientation-changing flag stays set
	// after a portrait/landscape swap; longer than ResizeWindow to ride out
	// the burst of resize events an orientation change produces (default 600ms).
	OrientationWindow time.Duration
}

func (o StateOptions) withDefaults() StateOptions {
	if o.MinWidth <= 0 {
		o.MinWidth = 200
	}
	if o.MinHeight <= 0 {
		o.MinHeight = 150
	}
	if o.ResizeWindow <= 0 {
		o.ResizeWindow = 200 * time.Millisecond
	}
	if o.OrientationWindow <= 0 {
		o.OrientationWindow = 600 * time.Millisecond
	}
	return o
}

// CanvasState owns container dimensions, device info, and the transient UI
// flags around environment changes. All mutations go through setters that are
// idempotent and have no side effects beyond the owned state. The phase is
// the one field touched off the game loop (Preload runs on its own
// goroutine), so SetPhase, Phase, and Ready synchronize on it; everything
// else is game-loop-owned.
type CanvasState struct {
	opts  StateOptions
	clock func() time.Time

	phaseMu sync.Mutex
	phase   CanvasPhase

	width  float64
	height float64
	hints  PlatformHints
	device DeviceInfo

	resizing         bool
	resizeUntil      time.Time
	orienting        bool
	orientationUntil time.Time

	// renderTarget is the scene this state drives; nil until attached.
	renderTarget *Scene
}

// NewCanvasState creates a canvas state manager.
func NewCanvasState(opts StateOptions) *CanvasState {
	return &CanvasState{
		opts:   opts.withDefaults(),
		clock:  time.Now,
		device: Classify(0, 0, PlatformHints{}),
	}
}

// SetClock overrides the time source. Intended for tests.
func (c *CanvasState) SetClock(clock func() time.Time) {
	c.clock = clock
}

// Attach sets the render target reference.
func (c *CanvasState) Attach(scene *Scene) {
	c.renderTarget = scene
}

// SetDimensions clamps and stores new container dimensions, recomputes device
// info, and raises the resizing flag — or the orientation-changing flag when
// the orientation flipped. Identical dimensions are a no-op.
func (c *CanvasState) SetDimensions(width, height float64) {
	if width < c.opts.MinWidth {
		width = c.opts.MinWidth
	}
	if height < c.opts.MinHeight {
		height = c.opts.MinHeight
	}
	if width == c.width && height == c.height {
		return
	}

	prevOrientation := c.device.Orientation
	first := c.width == 0 && c.height == 0
	c.width = width
	c.height = height
	c.device = Classify(width, height, c.hints)

	if first {
		return
	}
	now := c.clock()
	if c.device.Orientation != prevOrientation {
		c.orienting = true
		c.orientationUntil = now.Add(c.opts.OrientationWindow)
	} else {
		c.resizing = true
		c.resizeUntil = now.Add(c.opts.ResizeWindow)
	}
}

// SetHints stores new platform hints and recomputes device info.
func (c *CanvasState) SetHints(hints PlatformHints) {
	if hints == c.hints {
		return
	}
	c.hints = hints
	c.device = Classify(c.width, c.height, hints)
}

// SetPhase moves the canvas between idle, loading, and ready. Safe for
// concurrent use.
func (c *CanvasState) SetPhase(phase CanvasPhase) {
	c.phaseMu.Lock()
	c.phase = phase
	c.phaseMu.Unlock()
}

// Update clears transient flags whose windows have elapsed. Call once per frame.
func (c *CanvasState) Update() {
	now := c.clock()
	if c.resizing && !now.Before(c.resizeUntil) {
		c.resizing = false
	}
	if c.orienting && !now.Before(c.orientationUntil) {
		c.orienting = false
	}
}

// Dimensions returns the current clamped container dimensions.
func (c *CanvasState) Dimensions() (width, height float64) {
	return c.width, c.height
}

// Device returns the current device info.
func (c *CanvasState) Device() DeviceInfo {
	return c.device
}

// Phase returns the current lifecycle phase. Safe for concurrent use.
func (c *CanvasState) Phase() CanvasPhase {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	return c.phase
}

// Resizing reports whether a resize settled within the resize window.
func (c *CanvasState) Resizing() bool {
	return c.resizing
}

// OrientationChanging reports whether an orientation flip settled within its window.
func (c *CanvasState) OrientationChanging() bool {
	return c.orienting
}

// Ready reports whether the canvas can be drawn: a render target is attached
// and nothing is loading.
func (c *CanvasState) Ready() bool {
	return c.renderTarget != nil && c.Phase() != PhaseLoading
}

// Teardown clears transient flags and releases the render target reference.
func (c *CanvasState) Teardown() {
	c.resizing = false
	c.orienting = false
	c.resizeUntil = time.Time{}
	c.orientationUntil = time.Time{}
	c.renderTarget = nil
	c.SetPhase(PhaseIdle)
}
