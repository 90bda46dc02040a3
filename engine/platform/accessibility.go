package platform

// AccessibilityAdapter observes raw window events before they are
// translated, so assistive integrations can mirror window state. Adapters
// are best-effort: they must not block and cannot veto an event.
type AccessibilityAdapter interface {
	ProcessEvent(id WindowID, w *Window, ev Event)
}

// AccessibilityAdapters is an optional resource holding the installed
// adapters. The loop routes every window event through each of them, in
// order, before its own handling.
type AccessibilityAdapters struct {
	Adapters []AccessibilityAdapter
}
