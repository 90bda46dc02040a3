package platform

// EventFilter is an optional resource deciding which raw events may wake
// the loop under a reactive update mode. Install it before running:
//
//	a.InsertResource(&platform.EventFilter{
//		Filter: func(ev platform.Event, mode platform.UpdateMode) bool {
//			_, isKey := ev.(platform.KeyEvent)
//			return isKey
//		},
//	})
//
// With a nil Filter every event that passes the reactivity gate wakes the
// loop. Returning false absorbs the wake only; the event is still
// translated and window state still updates.
type EventFilter struct {
	Filter func(ev Event, mode UpdateMode) bool
}

// allows reports whether ev may mark its category's wake flag under mode.
//
// The reactivity gate runs first and is not overridable: under Continuous
// mode every category is open, under Reactive only the enabled ones, and
// uncategorized events never wake through this path. Only events that pass
// the gate reach the predicate.
func (f *EventFilter) allows(ev Event, mode UpdateMode) bool {
	var open bool
	switch ev.Category() {
	case CategoryWindow:
		open = mode.Kind == UpdateContinuous || mode.ReactTo.WindowEvents
	case CategoryDevice:
		open = mode.Kind == UpdateContinuous || mode.ReactTo.DeviceEvents
	case CategoryUser:
		open = mode.Kind == UpdateContinuous || mode.ReactTo.UserEvents
	default:
		return false
	}
	if !open {
		return false
	}
	if f == nil || f.Filter == nil {
		return true
	}
	return f.Filter(ev, mode)
}
