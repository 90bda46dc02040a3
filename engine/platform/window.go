package platform

import (
	"math"

	"golang.org/x/exp/constraints"
)

type WindowMode uint8

const (
	Windowed WindowMode = iota
	Fullscreen
	BorderlessFullscreen
)

type CursorMode uint8

const (
	// CursorNormal shows the cursor and leaves it free.
	CursorNormal CursorMode = iota
	// CursorHidden hides the cursor while it hovers the window.
	CursorHidden
	// CursorDisabled hides and grabs the cursor, providing unbounded
	// virtual motion.
	CursorDisabled
)

type PositionKind uint8

const (
	// PositionAuto lets the window manager place the window.
	PositionAuto PositionKind = iota
	// PositionCentered centers the window on the primary monitor.
	PositionCentered
	// PositionAt places the top-left corner at X, Y screen coordinates.
	PositionAt
)

type WindowPosition struct {
	Kind PositionKind
	X, Y int
}

func At(x, y int) WindowPosition {
	return WindowPosition{Kind: PositionAt, X: x, Y: y}
}

func Centered() WindowPosition {
	return WindowPosition{Kind: PositionCentered}
}

// ResizeConstraints bounds the logical size a window can take.
type ResizeConstraints struct {
	MinWidth  float32
	MinHeight float32
	MaxWidth  float32
	MaxHeight float32
}

func DefaultResizeConstraints() ResizeConstraints {
	return ResizeConstraints{
		MinWidth:  180,
		MinHeight: 120,
		MaxWidth:  float32(math.Inf(1)),
		MaxHeight: float32(math.Inf(1)),
	}
}

// check returns the constraints with the minimums forced to at least one
// pixel and no larger than the maximums.
func (c ResizeConstraints) check() ResizeConstraints {
	return ResizeConstraints{
		MinWidth:  clamp(c.MinWidth, 1, c.MaxWidth),
		MinHeight: clamp(c.MinHeight, 1, c.MaxHeight),
		MaxWidth:  maxOf(c.MaxWidth, 1),
		MaxHeight: maxOf(c.MaxHeight, 1),
	}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Resolution tracks a window's size in physical pixels together with the
// scale factor mapping it to logical units. An override pins the logical
// size regardless of what the backend reports.
type Resolution struct {
	physicalWidth  int
	physicalHeight int
	scaleFactor    float64
	// 0 means no override
	scaleFactorOverride float64
}

func NewResolution(logicalWidth, logicalHeight float32) Resolution {
	return Resolution{
		physicalWidth:  int(math.Round(float64(logicalWidth))),
		physicalHeight: int(math.Round(float64(logicalHeight))),
		scaleFactor:    1,
	}
}

// Width is the logical width: physical pixels divided by the scale factor.
func (r Resolution) Width() float32 {
	return float32(float64(r.physicalWidth) / r.ScaleFactor())
}

func (r Resolution) Height() float32 {
	return float32(float64(r.physicalHeight) / r.ScaleFactor())
}

func (r Resolution) PhysicalWidth() int  { return r.physicalWidth }
func (r Resolution) PhysicalHeight() int { return r.physicalHeight }

// ScaleFactor is the effective factor: the override when set, otherwise
// whatever the backend reported.
func (r Resolution) ScaleFactor() float64 {
	if r.scaleFactorOverride > 0 {
		return r.scaleFactorOverride
	}
	if r.scaleFactor > 0 {
		return r.scaleFactor
	}
	return 1
}

// BackendScaleFactor is the factor the OS reported, ignoring any override.
func (r Resolution) BackendScaleFactor() float64 { return r.scaleFactor }

// SetLogical resizes under the current effective scale factor.
func (r *Resolution) SetLogical(width, height float32) {
	s := r.ScaleFactor()
	r.physicalWidth = int(math.Round(float64(width) * s))
	r.physicalHeight = int(math.Round(float64(height) * s))
}

func (r *Resolution) setPhysical(width, height int) {
	r.physicalWidth = width
	r.physicalHeight = height
}

func (r *Resolution) setBackendScaleFactor(s float64) {
	r.scaleFactor = s
}

// SetScaleFactorOverride pins the effective scale factor; 0 clears it.
func (r *Resolution) SetScaleFactorOverride(s float64) {
	r.scaleFactorOverride = s
}

// Window is the logical window component. Systems mutate it freely; the
// platform applies the changes to the OS window at the end of each frame.
type Window struct {
	Title             string
	Position          WindowPosition
	Resolution        Resolution
	ResizeConstraints ResizeConstraints
	Mode              WindowMode
	CursorMode        CursorMode
	Visible           bool
	Resizable         bool
	Decorated         bool
	// Transparent requests an alpha-composited framebuffer. Creation only;
	// changing it on a live window has no effect.
	Transparent bool
	AlwaysOnTop bool
	// Focused is maintained by the loop. Writing it does not focus the
	// window; use the store's Focus helper.
	Focused bool

	cursorX, cursorY float64
	cursorInside     bool
}

// NewWindow returns a visible, resizable, decorated window of the given
// logical size.
func NewWindow(title string, width, height float32) Window {
	return Window{
		Title:             title,
		Resolution:        NewResolution(width, height),
		ResizeConstraints: DefaultResizeConstraints(),
		Visible:           true,
		Resizable:         true,
		Decorated:         true,
	}
}

// CursorPosition returns the cursor location in logical coordinates, if the
// cursor is inside the window.
func (w *Window) CursorPosition() (x, y float32, ok bool) {
	if !w.cursorInside {
		return 0, 0, false
	}
	s := w.Resolution.ScaleFactor()
	return float32(w.cursorX / s), float32(w.cursorY / s), true
}

func (w *Window) setPhysicalCursor(x, y float64) {
	w.cursorX, w.cursorY = x, y
	w.cursorInside = true
}

func (w *Window) clearCursor() {
	w.cursorX, w.cursorY = 0, 0
	w.cursorInside = false
}

// f32Epsilon is the smallest float32 step at 1.0, the tolerance unit for
// logical size comparisons.
const f32Epsilon = 1.1920929e-07

// relativeEq reports whether two logical dimensions are equal within float
// rounding noise: an absolute epsilon near zero, a relative one elsewhere.
func relativeEq(a, b float32) bool {
	if a == b {
		return true
	}
	diff := float32(math.Abs(float64(a - b)))
	if diff <= f32Epsilon {
		return true
	}
	largest := float32(math.Max(math.Abs(float64(a)), math.Abs(float64(b))))
	return diff <= largest*f32Epsilon
}
