package event

// WindowID identifies a live window across the engine. IDs are allocated by
// the platform window store and never reused within a run.
type WindowID uint32

// WindowCreated fires after the platform backend has materialized an OS
// window for a spawned window component.
type WindowCreated struct {
	Window WindowID
	// Tag is the unique name attached to the window for log correlation.
	Tag string
}

// WindowResized reports the new logical size. Fires only when the logical
// dimensions actually changed beyond float rounding noise.
type WindowResized struct {
	Window WindowID
	Width  float32
	Height float32
}

// WindowMoved reports the new outer position in screen coordinates.
type WindowMoved struct {
	Window WindowID
	X, Y   int
}

// WindowCloseRequested fires when the user asks the OS to close a window.
// Nothing is destroyed until something despawns the window.
type WindowCloseRequested struct {
	Window WindowID
}

// WindowDestroyed fires after the OS window has been torn down.
type WindowDestroyed struct {
	Window WindowID
}

type WindowFocused struct {
	Window  WindowID
	Focused bool
}

// WindowBackendScaleFactorChanged reports every scale factor change as the
// OS delivered it, even when an override swallows the effect.
type WindowBackendScaleFactorChanged struct {
	Window      WindowID
	ScaleFactor float64
}

// WindowScaleFactorChanged reports a change to the effective scale factor.
type WindowScaleFactorChanged struct {
	Window      WindowID
	ScaleFactor float64
}

// FileDropped fires once per drop gesture with every dropped path.
type FileDropped struct {
	Window WindowID
	Paths  []string
}
