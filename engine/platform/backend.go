package platform

import (
	"image"
	"time"
)

// ControlFlowKind selects how a backend pump blocks.
type ControlFlowKind uint8

const (
	// FlowPoll returns immediately after draining pending events.
	FlowPoll ControlFlowKind = iota
	// FlowWait blocks until at least one event arrives or Wake is called.
	FlowWait
	// FlowWaitUntil blocks like FlowWait but at most until Deadline.
	FlowWaitUntil
)

type ControlFlow struct {
	Kind     ControlFlowKind
	Deadline time.Time
}

func Poll() ControlFlow { return ControlFlow{Kind: FlowPoll} }
func Wait() ControlFlow { return ControlFlow{Kind: FlowWait} }
func WaitUntil(t time.Time) ControlFlow {
	return ControlFlow{Kind: FlowWaitUntil, Deadline: t}
}

// NativeWindow is the OS-side handle behind one window component. All
// methods must be called from the loop thread.
type NativeWindow interface {
	// RequestRedraw schedules a redraw wake for this window.
	RequestRedraw()
	// PhysicalSize returns the framebuffer size in pixels.
	PhysicalSize() (int, int)
	// ScaleFactor returns the current content scale.
	ScaleFactor() float64
	IsVisible() bool

	SetTitle(title string)
	// SetSize resizes the content area, in screen coordinates.
	SetSize(width, height int)
	SetPosition(x, y int)
	SetSizeLimits(minW, minH, maxW, maxH int)
	SetVisible(visible bool)
	SetResizable(resizable bool)
	SetDecorated(decorated bool)
	SetAlwaysOnTop(onTop bool)
	SetCursorMode(mode CursorMode)
	SetMode(mode WindowMode) error
	SetIcon(images []image.Image)
	Focus()

	Destroy()
}

// Backend abstracts the native windowing library behind the event loop.
// Except for Wake, a Backend is owned by the loop thread.
type Backend interface {
	Init() error
	Shutdown()

	CreateWindow(id WindowID, w *Window) (NativeWindow, error)

	// Pump appends pending raw events to dst, blocking according to flow,
	// and returns the extended slice.
	Pump(dst []Event, flow ControlFlow) ([]Event, error)

	// Wake unblocks a pending Pump. Safe to call from any goroutine; this
	// is the only cross-thread entry point into the loop.
	Wake()
}

// VisibilityReporter is implemented by backends that can tell whether any
// window is currently visible. Continuous update mode uses it to idle while
// everything is hidden; without the capability the loop assumes visible.
type VisibilityReporter interface {
	AnyWindowVisible() bool
}

// SurfaceManager is implemented by backends whose render surfaces must be
// dropped while suspended and rebuilt on resume.
type SurfaceManager interface {
	DropSurfaces()
	RecreateSurfaces() error
}
