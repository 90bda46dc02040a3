// Package state wires a declarative app-state machine into the engine
// schedule. States are plain comparable values; transitions are requested by
// queueing a next state and applied once per frame, before the update stage.
package state

import (
	"fmt"

	"github.com/spaghettifunk/finestra/engine/app"
	"github.com/spaghettifunk/finestra/engine/core"
)

// States is the constraint for app-state types, typically a small enum.
type States interface{ comparable }

// State holds the current value for one registered state type.
type State[S States] struct {
	current S
}

func (s *State[S]) Get() S { return s.current }

// NextState queues at most one pending transition. Setting it twice within
// a frame keeps the last value.
type NextState[S States] struct {
	pending *S
}

// Transition is emitted on the bus whenever a state change applies.
type Transition[S States] struct {
	From S
	To   S
}

type handlers[S States] struct {
	enter      map[S][]app.System
	exit       map[S][]app.System
	transition []func(a *app.App, from, to S)
}

// Register installs the State and NextState resources for S and schedules
// the transition system in PreUpdate. Call once per state type before Run.
func Register[S States](a *app.App, initial S) {
	a.InsertResource(&State[S]{current: initial})
	a.InsertResource(&NextState[S]{})
	a.InsertResource(&handlers[S]{
		enter: make(map[S][]app.System),
		exit:  make(map[S][]app.System),
	})
	a.AddSystems(app.StagePreUpdate, apply[S])
}

// apply performs at most one transition per frame: take the pending state,
// and when it differs from the current one, swap it in, then run exit
// handlers for the old state, enter handlers for the new one and the generic
// transition handlers, in that order.
func apply[S States](a *app.App) {
	next := mustResource[NextState[S]](a)
	if next.pending == nil {
		return
	}
	target := *next.pending
	next.pending = nil

	st := mustResource[State[S]](a)
	if target == st.current {
		return
	}
	from := st.current
	st.current = target
	core.LogDebug("state %T: %v -> %v", target, from, target)

	app.Emit(a, Transition[S]{From: from, To: target})

	h := mustResource[handlers[S]](a)
	for _, sys := range h.exit[from] {
		sys(a)
	}
	for _, sys := range h.enter[target] {
		sys(a)
	}
	for _, fn := range h.transition {
		fn(a, from, target)
	}
}

// SetNext queues a transition for the next frame.
func SetNext[S States](a *app.App, s S) {
	mustResource[NextState[S]](a).pending = &s
}

// Current reads the active state.
func Current[S States](a *app.App) S {
	return mustResource[State[S]](a).current
}

// OnEnter registers systems that run right after S becomes s.
func OnEnter[S States](a *app.App, s S, systems ...app.System) {
	h := mustResource[handlers[S]](a)
	h.enter[s] = append(h.enter[s], systems...)
}

// OnExit registers systems that run right before S stops being s.
func OnExit[S States](a *app.App, s S, systems ...app.System) {
	h := mustResource[handlers[S]](a)
	h.exit[s] = append(h.exit[s], systems...)
}

// OnTransition registers a handler for every state change of S.
func OnTransition[S States](a *app.App, fn func(a *app.App, from, to S)) {
	h := mustResource[handlers[S]](a)
	h.transition = append(h.transition, fn)
}

func mustResource[T any](a *app.App) *T {
	res := app.Resource[T](a)
	if res == nil {
		panic(fmt.Sprintf("state: %T not registered, call Register first", *new(T)))
	}
	return res
}
