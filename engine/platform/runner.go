package platform

import (
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/finestra/engine/app"
	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/event"
)

// ErrMissingEventLoop aborts Run when the loop resource is absent, which
// means the platform plugin was never added or Run was called twice.
var ErrMissingEventLoop = errors.New("no event loop present; was the platform plugin added?")

// startupForcedUpdates is how many frame updates run unconditionally after
// startup, so plugin initialization and the first windows settle before the
// update policy takes over.
const startupForcedUpdates = 5

type activityState uint8

const (
	stateNotYetStarted activityState = iota
	stateActive
	stateSuspended
	stateWillSuspend
	stateWillResume
)

// isActive reports whether frame updates may run. The transitional edge
// states count as active so the application can react one last time.
func (s activityState) isActive() bool {
	switch s {
	case stateActive, stateWillSuspend, stateWillResume:
		return true
	}
	return false
}

// runnerState is the loop's accumulated view of one iteration. Owned
// exclusively by the loop goroutine for the lifetime of the run.
type runnerState struct {
	activity activityState
	// mode caches the update mode the control flow was last armed for;
	// comparing against a fresh read detects policy changes.
	mode                UpdateMode
	windowEventReceived bool
	deviceEventReceived bool
	userEventReceived   bool
	redrawRequested     bool
	waitElapsed         bool
	forcedUpdates       int
}

func newRunnerState() runnerState {
	return runnerState{
		activity:      stateNotYetStarted,
		mode:          Continuous(),
		forcedUpdates: startupForcedUpdates,
	}
}

func (s *runnerState) markReceived(cat EventCategory) {
	switch cat {
	case CategoryWindow:
		s.windowEventReceived = true
	case CategoryDevice:
		s.deviceEventReceived = true
	case CategoryUser:
		s.userEventReceived = true
	}
}

func (s *runnerState) anyReceived() bool {
	return s.windowEventReceived || s.deviceEventReceived || s.userEventReceived
}

// resetOnUpdate clears the per-update wake flags. The redraw latch and
// waitElapsed survive; they are consumed elsewhere.
func (s *runnerState) resetOnUpdate() {
	s.windowEventReceived = false
	s.deviceEventReceived = false
	s.userEventReceived = false
}

// shouldUpdate decides whether a frame update runs this iteration. The
// received flags were already gated per category when set, so a plain OR
// suffices here.
func (s *runnerState) shouldUpdate() bool {
	return (s.waitElapsed || s.anyReceived()) && s.activity.isActive()
}

// waitWasElapsed derives the timer-fired signal from the control flow a
// pump was armed with: a poll or plain wait always counts as elapsed, an
// armed deadline only once it has passed. An event arriving before the
// deadline therefore does not by itself trigger a reactive update.
func waitWasElapsed(flow ControlFlow, now time.Time) bool {
	if flow.Kind == FlowWaitUntil {
		return !now.Before(flow.Deadline)
	}
	return true
}

// EventLoop is the resource handing the backend to the runner. The runner
// takes it out of the app when it starts; it cannot be started twice.
type EventLoop[T any] struct {
	backend Backend
	proxy   *Proxy[T]
	watcher *SettingsWatcher
}

func newEventLoop[T any](b Backend, watcher *SettingsWatcher) *EventLoop[T] {
	return &EventLoop[T]{
		backend: b,
		proxy:   newProxy[T](b.Wake),
		watcher: watcher,
	}
}

// Proxy returns the cross-thread wake handle. Grab it before Run; it stays
// valid until the loop stops.
func (l *EventLoop[T]) Proxy() *Proxy[T] {
	return l.proxy
}

type runner[T any] struct {
	app     *app.App
	backend Backend
	proxy   *Proxy[T]
	watcher *SettingsWatcher
	store   *WindowStore

	state runnerState
	flow  ControlFlow
	frame *core.Clock
	evBuf []Event

	exitReader    event.Reader[event.AppExit]
	redrawReader  event.Reader[event.RequestRedraw]
	destroyReader event.Reader[event.WindowDestroyed]
}

// runEventLoop is the app runner installed by the plugin: pump, handle,
// idle, repeat, until an AppExit event or a fatal error.
func runEventLoop[T any](a *app.App) error {
	loop := app.RemoveResource[EventLoop[T]](a)
	if loop == nil {
		return ErrMissingEventLoop
	}

	store := app.Resource[WindowStore](a)
	if store == nil {
		store = NewWindowStore()
		a.InsertResource(store)
	}

	r := &runner[T]{
		app:     a,
		backend: loop.backend,
		proxy:   loop.proxy,
		watcher: loop.watcher,
		store:   store,
		state:   newRunnerState(),
		flow:    Poll(),
		frame:   core.NewClock(),
	}

	core.MetricsInitialize()
	core.LogDebug("event loop starting")

	defer func() {
		r.proxy.close()
		if r.watcher != nil {
			r.watcher.Close()
		}
		r.store.destroyAll()
		r.backend.Shutdown()
		core.LogDebug("event loop stopped")
	}()

	for {
		evs, err := r.backend.Pump(r.evBuf[:0], r.flow)
		if err != nil {
			core.LogError("event loop aborted: %s", err.Error())
			return fmt.Errorf("pumping events: %w", err)
		}
		r.state.waitElapsed = waitWasElapsed(r.flow, time.Now())
		evs = r.proxy.drain(evs)
		r.evBuf = evs

		if err := r.advanceStartup(); err != nil {
			core.LogError("event loop aborted: %s", err.Error())
			return err
		}

		for _, ev := range evs {
			r.handleEvent(ev)
			if r.exitRequested() {
				return nil
			}
		}

		if err := r.idle(); err != nil {
			core.LogError("event loop aborted: %s", err.Error())
			return err
		}
		if r.exitRequested() {
			return nil
		}
	}
}

// advanceStartup drives plugin initialization to completion and
// materializes pending windows. It runs before events are handled and again
// at the idle point, so windows spawned by a frame update exist by the time
// the next events arrive.
func (r *runner[T]) advanceStartup() error {
	if r.app.PluginsState() != app.PluginsCleaned {
		if r.app.PluginsState() == app.PluginsReady {
			if err := r.app.FinishPlugins(); err != nil {
				return err
			}
		}
		r.state.redrawRequested = true
	}
	return r.store.createPending(r.backend, r.app.Events())
}

func (r *runner[T]) currentMode() UpdateMode {
	settings := app.Resource[Settings](r.app)
	if settings == nil {
		return r.state.mode
	}
	return settings.UpdateMode(r.store.anyFocused())
}

func (r *runner[T]) handleEvent(ev Event) {
	if cat := ev.Category(); cat != CategoryNone {
		if app.Resource[EventFilter](r.app).allows(ev, r.currentMode()) {
			r.state.markReceived(cat)
		}
	}

	switch e := ev.(type) {
	case SuspendEvent:
		app.Emit(r.app, event.Lifecycle{Phase: event.LifecycleSuspended})
		// Let the schedule run one last time before actually suspending,
		// so the application can react.
		r.state.activity = stateWillSuspend

	case ResumeEvent:
		if r.state.activity == stateNotYetStarted {
			app.Emit(r.app, event.Lifecycle{Phase: event.LifecycleStarted})
		} else {
			app.Emit(r.app, event.Lifecycle{Phase: event.LifecycleResumed})
		}
		r.state.activity = stateWillResume

	case UserEvent[T]:
		r.state.redrawRequested = true
		app.Emit(r.app, e.Payload)

	case MotionEvent:
		app.Emit(r.app, event.MouseMotion{DeltaX: e.DX, DeltaY: e.DY})

	case RedrawEvent:
		// Wake only. The redraw itself is the frame update this event
		// just made eligible.

	default:
		r.handleWindowEvent(ev)
	}
}

func (r *runner[T]) handleWindowEvent(ev Event) {
	id, ok := windowIDOf(ev)
	if !ok {
		return
	}
	e := r.store.entry(id)
	if e == nil {
		core.LogWarn("skipped event %T for unknown window %d", ev, id)
		return
	}

	if adapters := app.Resource[AccessibilityAdapters](r.app); adapters != nil {
		for _, ad := range adapters.Adapters {
			ad.ProcessEvent(id, e.window, ev)
		}
	}

	w := e.window
	switch ev := ev.(type) {
	case SizeEvent:
		w.Resolution.setPhysical(ev.Width, ev.Height)
		e.cached.Resolution = w.Resolution
		r.state.redrawRequested = true
		app.Emit(r.app, event.WindowResized{
			Window: id,
			Width:  w.Resolution.Width(),
			Height: w.Resolution.Height(),
		})

	case ScaleEvent:
		priorW, priorH := w.Resolution.Width(), w.Resolution.Height()
		w.Resolution.setBackendScaleFactor(ev.Scale)
		e.cached.Resolution = w.Resolution
		r.state.redrawRequested = true

		app.Emit(r.app, event.WindowBackendScaleFactorChanged{Window: id, ScaleFactor: ev.Scale})
		if w.Resolution.scaleFactorOverride == 0 {
			app.Emit(r.app, event.WindowScaleFactorChanged{Window: id, ScaleFactor: w.Resolution.ScaleFactor()})
		}
		// The logical size only moves when no override pins it; stay quiet
		// within float rounding noise.
		if !relativeEq(priorW, w.Resolution.Width()) || !relativeEq(priorH, w.Resolution.Height()) {
			app.Emit(r.app, event.WindowResized{
				Window: id,
				Width:  w.Resolution.Width(),
				Height: w.Resolution.Height(),
			})
		}

	case PosEvent:
		w.Position = At(ev.X, ev.Y)
		e.cached.Position = w.Position
		app.Emit(r.app, event.WindowMoved{Window: id, X: ev.X, Y: ev.Y})

	case FocusEvent:
		w.Focused = ev.Focused
		e.cached.Focused = ev.Focused
		app.Emit(r.app, event.WindowFocused{Window: id, Focused: ev.Focused})

	case CloseEvent:
		app.Emit(r.app, event.WindowCloseRequested{Window: id})

	case CursorPosEvent:
		s := w.Resolution.ScaleFactor()
		px, py := ev.X*s, ev.Y*s
		var dx, dy float32
		if w.cursorInside {
			dx = float32((px - w.cursorX) / s)
			dy = float32((py - w.cursorY) / s)
		}
		w.setPhysicalCursor(px, py)
		app.Emit(r.app, event.CursorMoved{
			Window: id,
			X:      float32(ev.X),
			Y:      float32(ev.Y),
			DeltaX: dx,
			DeltaY: dy,
		})

	case CursorEnterEvent:
		if ev.Entered {
			app.Emit(r.app, event.CursorEntered{Window: id})
		} else {
			w.clearCursor()
			app.Emit(r.app, event.CursorLeft{Window: id})
		}

	case KeyEvent:
		app.Emit(r.app, event.KeyInput{
			Window:   id,
			Key:      ev.Key,
			Scancode: ev.Scancode,
			Action:   ev.Action,
			Mods:     ev.Mods,
		})

	case CharEvent:
		app.Emit(r.app, event.CharInput{Window: id, Char: ev.Char})

	case ButtonEvent:
		app.Emit(r.app, event.MouseButtonInput{
			Window: id,
			Button: ev.Button,
			Action: ev.Action,
			Mods:   ev.Mods,
		})

	case ScrollEvent:
		app.Emit(r.app, event.MouseWheel{Window: id, X: float32(ev.X), Y: float32(ev.Y)})

	case DropEvent:
		app.Emit(r.app, event.FileDropped{Window: id, Paths: ev.Paths})
	}
}

func windowIDOf(ev Event) (WindowID, bool) {
	switch e := ev.(type) {
	case SizeEvent:
		return e.Window, true
	case ScaleEvent:
		return e.Window, true
	case PosEvent:
		return e.Window, true
	case FocusEvent:
		return e.Window, true
	case CloseEvent:
		return e.Window, true
	case CursorPosEvent:
		return e.Window, true
	case CursorEnterEvent:
		return e.Window, true
	case KeyEvent:
		return e.Window, true
	case CharEvent:
		return e.Window, true
	case ButtonEvent:
		return e.Window, true
	case ScrollEvent:
		return e.Window, true
	case DropEvent:
		return e.Window, true
	}
	return 0, false
}

// idle is the decision point at the end of each iteration, once every
// pending event has been handled.
func (r *runner[T]) idle() error {
	if err := r.advanceStartup(); err != nil {
		return err
	}

	// Explicit redraw requests from the frame update latch until here.
	if len(event.Read(r.app.Events(), &r.redrawReader)) > 0 {
		r.state.redrawRequested = true
	}

	if r.watcher != nil {
		if s, ok := r.watcher.Take(); ok {
			if res := app.Resource[Settings](r.app); res != nil {
				*res = s
			}
		}
	}

	mode := r.currentMode()
	should := r.state.shouldUpdate()

	if r.state.forcedUpdates > 0 {
		r.state.forcedUpdates--
		should = true
	}

	if r.state.activity == stateWillSuspend {
		r.state.activity = stateSuspended
		// One last update so the application observes the suspension.
		should = true
		if sm, ok := r.backend.(SurfaceManager); ok {
			sm.DropSurfaces()
		}
	}

	if r.state.activity == stateWillResume {
		r.state.activity = stateActive
		should = true
		r.state.redrawRequested = true
		if sm, ok := r.backend.(SurfaceManager); ok {
			if err := sm.RecreateSurfaces(); err != nil {
				return fmt.Errorf("recreating surfaces: %w", err)
			}
		}
	}

	// Recorded before the update so the next deadline starts from here; an
	// update longer than the wait interval re-fires immediately.
	r.frame.Start()

	if should {
		r.runAppUpdate()
		// The update may have replaced the settings resource or moved
		// focus, so the mode must be read again.
		mode = r.currentMode()
	}

	// Windows spawned by this update are created now rather than on the
	// next OS event; the pump that follows may sleep for a long time.
	if err := r.store.createPending(r.backend, r.app.Events()); err != nil {
		return err
	}

	if mode != r.state.mode {
		r.state.redrawRequested = true
		// The pending wait was armed for the old policy; treat it as
		// elapsed so the new one takes effect now.
		r.state.waitElapsed = true
		r.state.mode = mode
	}

	switch mode.Kind {
	case UpdateContinuous:
		// Waiting is only safe while a visible window keeps the redraw
		// round-trip alive; hidden windows or a backend that cannot
		// report visibility give no wake guarantee, so poll instead.
		if vr, ok := r.backend.(VisibilityReporter); ok && vr.AnyWindowVisible() {
			r.flow = Wait()
			r.state.redrawRequested = true
		} else {
			r.flow = Poll()
		}

	case UpdateReactive:
		if r.state.waitElapsed {
			r.flow = WaitUntil(r.frame.StartedAt().Add(mode.Wait))
		}
	}

	// A despawned window delivers no further OS events, so the loop must
	// come around on its own for the last-window exit decision to run.
	if len(event.Read(r.app.Events(), &r.destroyReader)) > 0 {
		r.state.windowEventReceived = true
		r.flow = Poll()
	}

	if r.state.redrawRequested && r.state.activity != stateSuspended {
		r.store.eachNative(func(nw NativeWindow) {
			nw.RequestRedraw()
		})
		r.state.redrawRequested = false
	}

	return nil
}

func (r *runner[T]) runAppUpdate() {
	r.state.resetOnUpdate()
	if r.app.PluginsState() == app.PluginsCleaned {
		r.app.Update()
		r.frame.Update()
		core.MetricsUpdate(r.frame.Elapsed().Seconds())
	}
}

func (r *runner[T]) exitRequested() bool {
	return len(event.Read(r.app.Events(), &r.exitReader)) > 0
}
