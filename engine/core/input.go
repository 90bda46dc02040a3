package core

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_4
	BUTTON_5
	BUTTON_6
	BUTTON_7
	BUTTON_8
	BUTTON_MAX_BUTTONS
)

// InputAction is the edge reported with a key or button event.
type InputAction uint8

const (
	ACTION_RELEASE InputAction = iota
	ACTION_PRESS
	ACTION_REPEAT
)

// ModifierKeys is a bitmask of modifiers held while an input event fired.
type ModifierKeys uint8

const (
	MOD_SHIFT ModifierKeys = 1 << iota
	MOD_CONTROL
	MOD_ALT
	MOD_SUPER
	MOD_CAPS_LOCK
	MOD_NUM_LOCK
)

// Key code definitions. Backend independent; each platform backend converts
// its native codes into these.
type KeyCode uint16

const (
	KEY_UNKNOWN KeyCode = iota
	KEY_SPACE
	KEY_APOSTROPHE
	KEY_COMMA
	KEY_MINUS
	KEY_PERIOD
	KEY_SLASH
	KEY_0
	KEY_1
	KEY_2
	KEY_3
	KEY_4
	KEY_5
	KEY_6
	KEY_7
	KEY_8
	KEY_9
	KEY_SEMICOLON
	KEY_EQUAL
	KEY_A
	KEY_B
	KEY_C
	KEY_D
	KEY_E
	KEY_F
	KEY_G
	KEY_H
	KEY_I
	KEY_J
	KEY_K
	KEY_L
	KEY_M
	KEY_N
	KEY_O
	KEY_P
	KEY_Q
	KEY_R
	KEY_S
	KEY_T
	KEY_U
	KEY_V
	KEY_W
	KEY_X
	KEY_Y
	KEY_Z
	KEY_LEFT_BRACKET
	KEY_BACKSLASH
	KEY_RIGHT_BRACKET
	KEY_GRAVE
	KEY_ESCAPE
	KEY_ENTER
	KEY_TAB
	KEY_BACKSPACE
	KEY_INSERT
	KEY_DELETE
	KEY_RIGHT
	KEY_LEFT
	KEY_DOWN
	KEY_UP
	KEY_PAGE_UP
	KEY_PAGE_DOWN
	KEY_HOME
	KEY_END
	KEY_CAPS_LOCK
	KEY_SCROLL_LOCK
	KEY_NUM_LOCK
	KEY_PRINT_SCREEN
	KEY_PAUSE
	KEY_F1
	KEY_F2
	KEY_F3
	KEY_F4
	KEY_F5
	KEY_F6
	KEY_F7
	KEY_F8
	KEY_F9
	KEY_F10
	KEY_F11
	KEY_F12
	KEY_NUMPAD0
	KEY_NUMPAD1
	KEY_NUMPAD2
	KEY_NUMPAD3
	KEY_NUMPAD4
	KEY_NUMPAD5
	KEY_NUMPAD6
	KEY_NUMPAD7
	KEY_NUMPAD8
	KEY_NUMPAD9
	KEY_NUMPAD_DECIMAL
	KEY_NUMPAD_DIVIDE
	KEY_NUMPAD_MULTIPLY
	KEY_NUMPAD_SUBTRACT
	KEY_NUMPAD_ADD
	KEY_NUMPAD_ENTER
	KEY_NUMPAD_EQUAL
	KEY_LSHIFT
	KEY_LCONTROL
	KEY_LALT
	KEY_LSUPER
	KEY_RSHIFT
	KEY_RCONTROL
	KEY_RALT
	KEY_RSUPER
	KEY_MENU
	KEY_MAX_KEYS
)
