package platform

import (
	"testing"
	"time"
)

func TestFilterContinuousOpensEveryCategory(t *testing.T) {
	var f *EventFilter
	mode := Continuous()

	events := []Event{
		SizeEvent{Window: 1, Width: 10, Height: 10},
		MotionEvent{DX: 1},
		UserEvent[WakeUp]{},
	}
	for _, ev := range events {
		if !f.allows(ev, mode) {
			t.Errorf("continuous mode rejected %T", ev)
		}
	}
}

func TestFilterReactivityGates(t *testing.T) {
	var f *EventFilter

	low := ReactiveLowPower(time.Second)
	if f.allows(MotionEvent{DX: 1}, low) {
		t.Error("low power mode should ignore device events")
	}
	if !f.allows(KeyEvent{Window: 1}, low) {
		t.Error("low power mode should pass window events")
	}

	manual := Manual(time.Second)
	if f.allows(KeyEvent{Window: 1}, manual) {
		t.Error("manual mode should ignore window events")
	}
	if !f.allows(UserEvent[WakeUp]{}, manual) {
		t.Error("manual mode should pass user events")
	}
}

func TestFilterLifecycleNeverWakes(t *testing.T) {
	var f *EventFilter
	if f.allows(SuspendEvent{}, Continuous()) {
		t.Error("lifecycle events must not wake through the filter path")
	}
	if f.allows(ResumeEvent{}, Reactive(time.Second)) {
		t.Error("lifecycle events must not wake through the filter path")
	}
}

func TestFilterPredicateNarrowsButCannotWiden(t *testing.T) {
	onlyKeys := &EventFilter{
		Filter: func(ev Event, mode UpdateMode) bool {
			_, isKey := ev.(KeyEvent)
			return isKey
		},
	}

	mode := Reactive(time.Second)
	if !onlyKeys.allows(KeyEvent{Window: 1}, mode) {
		t.Error("predicate should pass key events")
	}
	if onlyKeys.allows(ButtonEvent{Window: 1}, mode) {
		t.Error("predicate should absorb button events")
	}

	// A predicate cannot reopen a category the reactivity gate closed.
	everything := &EventFilter{Filter: func(Event, UpdateMode) bool { return true }}
	if everything.allows(MotionEvent{DX: 1}, ReactiveLowPower(time.Second)) {
		t.Error("predicate must not override the reactivity gate")
	}
}
