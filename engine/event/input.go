package event

import "github.com/spaghettifunk/finestra/engine/core"

type KeyInput struct {
	Window   WindowID
	Key      core.KeyCode
	Scancode int
	Action   core.InputAction
	Mods     core.ModifierKeys
}

// CharInput carries the translated text input for a key press.
type CharInput struct {
	Window WindowID
	Char   rune
}

type MouseButtonInput struct {
	Window WindowID
	Button core.Button
	Action core.InputAction
	Mods   core.ModifierKeys
}

// MouseWheel reports scroll offsets in lines.
type MouseWheel struct {
	Window WindowID
	X, Y   float32
}

// CursorMoved reports the cursor position in logical window coordinates plus
// the delta from the previous position, when one is known.
type CursorMoved struct {
	Window WindowID
	X, Y   float32
	DeltaX float32
	DeltaY float32
}

type CursorEntered struct {
	Window WindowID
}

type CursorLeft struct {
	Window WindowID
}

// MouseMotion is the unfiltered device-level mouse delta, independent of any
// window or cursor position.
type MouseMotion struct {
	DeltaX float64
	DeltaY float64
}
