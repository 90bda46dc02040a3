package platform

import (
	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/event"
)

// WindowID identifies a live window. Shared with the engine event types.
type WindowID = event.WindowID

// EventCategory classifies raw OS events for the update-mode reactivity
// gate. Uncategorized events (lifecycle edges, timer artifacts) never wake a
// reactive loop through the filter path; they drive the loop state machine
// directly instead.
type EventCategory uint8

const (
	CategoryNone EventCategory = iota
	CategoryWindow
	CategoryDevice
	CategoryUser
)

// Event is one raw notification delivered by a Backend pump.
type Event interface {
	Category() EventCategory
}

// SizeEvent reports a new framebuffer size in physical pixels.
type SizeEvent struct {
	Window WindowID
	Width  int
	Height int
}

// ScaleEvent reports a new content scale factor.
type ScaleEvent struct {
	Window WindowID
	Scale  float64
}

// PosEvent reports a new outer window position in screen coordinates.
type PosEvent struct {
	Window WindowID
	X, Y   int
}

type FocusEvent struct {
	Window  WindowID
	Focused bool
}

// CloseEvent reports that the user asked the OS to close the window.
type CloseEvent struct {
	Window WindowID
}

// CursorPosEvent reports the cursor position in screen coordinates relative
// to the window content area.
type CursorPosEvent struct {
	Window WindowID
	X, Y   float64
}

type CursorEnterEvent struct {
	Window  WindowID
	Entered bool
}

type KeyEvent struct {
	Window   WindowID
	Key      core.KeyCode
	Scancode int
	Action   core.InputAction
	Mods     core.ModifierKeys
}

type CharEvent struct {
	Window WindowID
	Char   rune
}

type ButtonEvent struct {
	Window WindowID
	Button core.Button
	Action core.InputAction
	Mods   core.ModifierKeys
}

// ScrollEvent reports wheel offsets in lines.
type ScrollEvent struct {
	Window WindowID
	X, Y   float64
}

// DropEvent reports file paths dropped onto the window in one gesture.
type DropEvent struct {
	Window WindowID
	Paths  []string
}

// MotionEvent is raw device-level mouse motion, not tied to a window.
type MotionEvent struct {
	DX, DY float64
}

// RedrawEvent is a wake issued in response to a RequestRedraw on a native
// window. It carries no payload for the application; its job is to count as
// window activity on the next loop iteration.
type RedrawEvent struct {
	Window WindowID
}

// SuspendEvent asks the loop to wind the application down to the suspended
// activity state. Backends emit it when the OS revokes the render surface
// or, on desktop, when every window is minimized.
type SuspendEvent struct{}

// ResumeEvent wakes the application back up. The first one after startup
// marks the started lifecycle edge.
type ResumeEvent struct{}

// UserEvent wraps a payload sent through the wake proxy.
type UserEvent[T any] struct {
	Payload T
}

func (SizeEvent) Category() EventCategory { return CategoryWindow }
func (ScaleEvent) Category() EventCategory { return CategoryWindow }
func (PosEvent) Category() EventCategory { return CategoryWindow }
func (FocusEvent) Category() EventCategory { return CategoryWindow }
func (CloseEvent) Category() EventCategory { return CategoryWindow }
func (CursorPosEvent) Category() EventCategory { return CategoryWindow }
func (CursorEnterEvent) Category() EventCategory { return CategoryWindow }
func (KeyEvent) Category() EventCategory { return CategoryWindow }
func (CharEvent) Category() EventCategory { return CategoryWindow }
func (ButtonEvent) Category() EventCategory { return CategoryWindow }
func (ScrollEvent) Category() EventCategory { return CategoryWindow }
func (DropEvent) Category() EventCategory { return CategoryWindow }
func (MotionEvent) Category() EventCategory { return CategoryDevice }
func (RedrawEvent) Category() EventCategory { return CategoryWindow }
func (SuspendEvent) Category() EventCategory { return CategoryNone }
func (ResumeEvent) Category() EventCategory { return CategoryNone }
func (UserEvent[T]) Category() EventCategory { return CategoryUser }
