package platform

import (
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/spaghettifunk/finestra/engine/app"
	"github.com/spaghettifunk/finestra/engine/containers"
	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/event"
)

// errPumpBudget fails a test loop that outlived its script instead of
// letting it spin forever.
var errPumpBudget = errors.New("pump budget exhausted")

// fakeNative records every call the loop makes against one native window.
type fakeNative struct {
	backend *fakeBackend
	id      WindowID

	physW, physH int
	scale        float64
	visible      bool
	destroyed    bool
	redraws      int
	calls        []string
}

// RequestRedraw queues a redraw wake for the next pump, the way the real
// backend keeps a waiting loop spinning.
func (n *fakeNative) RequestRedraw() {
	n.redraws++
	n.backend.queue = append(n.backend.queue, RedrawEvent{Window: n.id})
}

func (n *fakeNative) PhysicalSize() (int, int) { return n.physW, n.physH }
func (n *fakeNative) ScaleFactor() float64     { return n.scale }
func (n *fakeNative) IsVisible() bool          { return n.visible && !n.destroyed }

func (n *fakeNative) record(format string, args ...any) {
	n.calls = append(n.calls, fmt.Sprintf(format, args...))
}

func (n *fakeNative) SetTitle(title string) { n.record("title:%s", title) }

func (n *fakeNative) SetSize(w, h int) {
	n.physW = int(float64(w) * n.scale)
	n.physH = int(float64(h) * n.scale)
	n.record("size:%dx%d", w, h)
}

func (n *fakeNative) SetPosition(x, y int) { n.record("pos:%d,%d", x, y) }

func (n *fakeNative) SetSizeLimits(minW, minH, maxW, maxH int) {
	n.record("limits:%d,%d,%d,%d", minW, minH, maxW, maxH)
}

func (n *fakeNative) SetVisible(v bool) {
	n.visible = v
	n.record("visible:%t", v)
}

func (n *fakeNative) SetResizable(v bool)        { n.record("resizable:%t", v) }
func (n *fakeNative) SetDecorated(v bool)        { n.record("decorated:%t", v) }
func (n *fakeNative) SetAlwaysOnTop(v bool)      { n.record("ontop:%t", v) }
func (n *fakeNative) SetCursorMode(m CursorMode) { n.record("cursor:%d", m) }

func (n *fakeNative) SetMode(m WindowMode) error {
	if n.backend.rejectModeChange {
		return errors.New("mode change rejected")
	}
	n.record("mode:%d", m)
	return nil
}

func (n *fakeNative) SetIcon(images []image.Image) { n.record("icon:%d", len(images)) }
func (n *fakeNative) Focus()                       { n.record("focus") }
func (n *fakeNative) Destroy()                     { n.destroyed = true }

// fakeBackend deals scripted event batches, one per pump, so loop behavior
// is deterministic. Like the real backend it reports the resume edge on the
// first pump and turns redraw requests into wakes for the next one.
type fakeBackend struct {
	script *containers.RingQueue[[]Event]
	queue  []Event

	pumps   int
	budget  int
	flows   []ControlFlow
	wakes   int
	started bool
	// onPump runs at the start of the numbered pump, for injecting work
	// that must happen while the loop is running.
	onPump func(pump int)

	scale   float64
	natives map[WindowID]*fakeNative

	rejectModeChange bool
	surfaceDrops     int
	surfaceRebuilds  int
	initialized      bool
	shutdowns        int
}

func newFakeBackend(batches ...[]Event) *fakeBackend {
	script := containers.NewRingQueue[[]Event](len(batches) + 1)
	for _, b := range batches {
		if err := script.Enqueue(b); err != nil {
			panic(err)
		}
	}
	return &fakeBackend{
		script:  script,
		budget:  32,
		scale:   1,
		natives: make(map[WindowID]*fakeNative),
	}
}

func (b *fakeBackend) Init() error {
	b.initialized = true
	return nil
}

func (b *fakeBackend) Shutdown() { b.shutdowns++ }

func (b *fakeBackend) CreateWindow(id WindowID, w *Window) (NativeWindow, error) {
	n := &fakeNative{
		backend: b,
		id:      id,
		physW:   int(float64(w.Resolution.Width()) * b.scale),
		physH:   int(float64(w.Resolution.Height()) * b.scale),
		scale:   b.scale,
		visible: w.Visible,
	}
	b.natives[id] = n
	return n, nil
}

func (b *fakeBackend) Pump(dst []Event, flow ControlFlow) ([]Event, error) {
	b.pumps++
	b.flows = append(b.flows, flow)
	if b.pumps > b.budget {
		return nil, errPumpBudget
	}
	if b.onPump != nil {
		b.onPump(b.pumps)
	}
	if !b.started {
		b.started = true
		dst = append(dst, ResumeEvent{})
	}
	if batch, err := b.script.Dequeue(); err == nil {
		dst = append(dst, batch...)
	}
	dst = append(dst, b.queue...)
	b.queue = b.queue[:0]
	return dst, nil
}

func (b *fakeBackend) Wake() { b.wakes++ }

func (b *fakeBackend) AnyWindowVisible() bool {
	for _, n := range b.natives {
		if n.IsVisible() {
			return true
		}
	}
	return false
}

func (b *fakeBackend) DropSurfaces() { b.surfaceDrops++ }

func (b *fakeBackend) RecreateSurfaces() error {
	b.surfaceRebuilds++
	return nil
}

// buildLoopApp wires an app with the platform plugin over a fake backend
// and an update counter.
func buildLoopApp(t *testing.T, b *fakeBackend, s Settings, mut func(*Plugin[WakeUp])) (*app.App, *int) {
	t.Helper()

	a := app.New()
	w := NewWindow("loop test", 320, 240)
	plug := &Plugin[WakeUp]{Backend: b, PrimaryWindow: &w, Settings: &s}
	if mut != nil {
		mut(plug)
	}
	if err := a.AddPlugin(plug); err != nil {
		t.Fatalf("building plugin: %v", err)
	}

	updates := new(int)
	a.AddSystems(app.StageUpdate, func(*app.App) { *updates++ })
	return a, updates
}

func reactiveHour() Settings {
	return Settings{
		FocusedMode:   Reactive(time.Hour),
		UnfocusedMode: Reactive(time.Hour),
	}
}

// A slow reactive loop runs the startup updates, settles, and only moves
// again for events.
func TestLoopStartupThenQuiescent(t *testing.T) {
	backend := newFakeBackend(
		nil, nil, nil, nil, nil, nil, nil, nil,
		[]Event{CloseEvent{Window: 1}},
	)
	a, updates := buildLoopApp(t, backend, reactiveHour(), nil)

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Five startup updates, one for the close request, one for the exit
	// decision after the window is gone.
	if *updates != 7 {
		t.Fatalf("got %d updates, want 7", *updates)
	}
	if backend.surfaceRebuilds != 1 {
		t.Fatalf("got %d surface rebuilds, want 1", backend.surfaceRebuilds)
	}
	if backend.shutdowns != 1 {
		t.Fatalf("got %d shutdowns, want 1", backend.shutdowns)
	}
	if n := backend.natives[1]; !n.destroyed {
		t.Fatal("window 1 should be destroyed")
	}

	// After the first iteration the loop sleeps on the hour-long deadline.
	if got := backend.flows[1].Kind; got != FlowWaitUntil {
		t.Fatalf("second pump flow = %d, want FlowWaitUntil", got)
	}
	if until := time.Until(backend.flows[1].Deadline); until < 30*time.Minute {
		t.Fatalf("deadline only %s out, want close to an hour", until)
	}
	// The last pump is forced to poll so the exit decision runs even
	// though the destroyed window can produce no more events.
	if got := backend.flows[len(backend.flows)-1].Kind; got != FlowPoll {
		t.Fatalf("final pump flow = %d, want FlowPoll", got)
	}
}

// Focused continuous mode parks the loop in Wait and keeps it spinning
// through the redraw-request wake cycle.
func TestLoopContinuousRedrawCycle(t *testing.T) {
	backend := newFakeBackend(
		[]Event{FocusEvent{Window: 1, Focused: true}},
		nil, nil, nil, nil, nil, nil, nil, nil,
		[]Event{CloseEvent{Window: 1}},
	)
	a, updates := buildLoopApp(t, backend, GameSettings(), nil)

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// One update per iteration: nine spinning, one handling the close, one
	// deciding the exit.
	if *updates != 11 {
		t.Fatalf("got %d updates, want 11", *updates)
	}
	if got := backend.natives[1].redraws; got != 9 {
		t.Fatalf("got %d redraw requests, want 9", got)
	}
	for i := 1; i <= 9; i++ {
		if backend.flows[i].Kind != FlowWait {
			t.Fatalf("pump %d flow = %d, want FlowWait", i+1, backend.flows[i].Kind)
		}
	}
}

// Losing focus switches the update mode within one iteration and re-arms
// the wait timer for the new policy.
func TestLoopFocusSwitchesMode(t *testing.T) {
	settings := Settings{
		FocusedMode:   Reactive(time.Hour),
		UnfocusedMode: ReactiveLowPower(time.Minute),
	}
	backend := newFakeBackend(
		[]Event{FocusEvent{Window: 1, Focused: true}},
		nil, nil,
		[]Event{FocusEvent{Window: 1, Focused: false}},
		nil, nil, nil,
		[]Event{CloseEvent{Window: 1}},
	)
	a, updates := buildLoopApp(t, backend, settings, nil)

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if *updates != 7 {
		t.Fatalf("got %d updates, want 7", *updates)
	}

	// Focused arms the hour-long fallback timer.
	if got := backend.flows[1]; got.Kind != FlowWaitUntil || time.Until(got.Deadline) < 30*time.Minute {
		t.Fatalf("focused flow = %+v, want a deadline about an hour out", got)
	}
	// The focus loss re-arms for the low-power minute immediately, without
	// waiting out the old deadline.
	got := backend.flows[4]
	if got.Kind != FlowWaitUntil {
		t.Fatalf("unfocused flow kind = %d, want FlowWaitUntil", got.Kind)
	}
	if until := time.Until(got.Deadline); until < 30*time.Second || until > 30*time.Minute {
		t.Fatalf("unfocused deadline %s out, want about a minute", until)
	}
	if backend.natives[1].redraws != 2 {
		t.Fatalf("got %d redraws, want one per mode change", backend.natives[1].redraws)
	}
}

// Suspension runs exactly one more update, drops surfaces, and freezes the
// loop until the resume edge rebuilds them.
func TestLoopSuspendResume(t *testing.T) {
	backend := newFakeBackend(
		nil, nil, nil, nil, nil, nil,
		[]Event{SuspendEvent{}},
		nil,
		[]Event{ResumeEvent{}},
		nil,
		[]Event{CloseEvent{Window: 1}},
	)
	a, updates := buildLoopApp(t, backend, reactiveHour(), nil)

	var phases []event.LifecyclePhase
	var reader event.Reader[event.Lifecycle]
	a.AddSystems(app.StageUpdate, func(ia *app.App) {
		for _, ev := range event.Read(ia.Events(), &reader) {
			phases = append(phases, ev.Phase)
		}
	})

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Startup 5, suspend 1, resume 1, post-resume redraw 1, close 1,
	// exit 1.
	if *updates != 10 {
		t.Fatalf("got %d updates, want 10", *updates)
	}
	if backend.surfaceDrops != 1 {
		t.Fatalf("got %d surface drops, want 1", backend.surfaceDrops)
	}
	if backend.surfaceRebuilds != 2 {
		t.Fatalf("got %d surface rebuilds, want 2 (startup and resume)", backend.surfaceRebuilds)
	}

	want := []event.LifecyclePhase{
		event.LifecycleStarted,
		event.LifecycleSuspended,
		event.LifecycleResumed,
	}
	if len(phases) != len(want) {
		t.Fatalf("got lifecycle phases %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase %d = %v, want %v", i, phases[i], want[i])
		}
	}
}

// Manual mode ignores window events for waking but still translates them,
// and a proxy message both wakes the loop and arrives as an engine event.
func TestLoopManualModeProxyWake(t *testing.T) {
	manual := Settings{
		FocusedMode:   Manual(time.Hour),
		UnfocusedMode: Manual(time.Hour),
	}
	backend := newFakeBackend(
		nil, nil, nil, nil, nil, nil,
		[]Event{KeyEvent{Window: 1, Key: core.KEY_A, Action: core.ACTION_PRESS}},
	)
	a, updates := buildLoopApp(t, backend, manual, nil)

	loop := app.Resource[EventLoop[WakeUp]](a)
	proxy := loop.Proxy()
	backend.onPump = func(pump int) {
		if pump == 8 {
			if err := proxy.Send(WakeUp{}); err != nil {
				t.Errorf("proxy send: %v", err)
			}
		}
	}

	var keys int
	var wakeups int
	var keyReader event.Reader[event.KeyInput]
	var wakeReader event.Reader[WakeUp]
	a.AddSystems(app.StageUpdate, func(ia *app.App) {
		keys += len(event.Read(ia.Events(), &keyReader))
		for range event.Read(ia.Events(), &wakeReader) {
			wakeups++
			app.Emit(ia, event.AppExit{})
		}
	})

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Startup 5, then only the proxy wake; the key press must not add one.
	if *updates != 6 {
		t.Fatalf("got %d updates, want 6", *updates)
	}
	if wakeups != 1 {
		t.Fatalf("got %d wake payloads, want 1", wakeups)
	}
	if keys != 1 {
		t.Fatalf("got %d key events, want 1 (translation is not filtered)", keys)
	}
	if backend.wakes == 0 {
		t.Fatal("proxy send should wake the backend")
	}
}

// Events for a window the store does not know are skipped without
// disturbing the loop.
func TestLoopUnknownWindowSkipped(t *testing.T) {
	backend := newFakeBackend(
		nil,
		[]Event{KeyEvent{Window: 99, Key: core.KEY_A, Action: core.ACTION_PRESS}},
		[]Event{CloseEvent{Window: 1}},
	)
	a, _ := buildLoopApp(t, backend, reactiveHour(), nil)

	var keys int
	var keyReader event.Reader[event.KeyInput]
	a.AddSystems(app.StageUpdate, func(ia *app.App) {
		keys += len(event.Read(ia.Events(), &keyReader))
	})

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if keys != 0 {
		t.Fatalf("got %d key events for an unknown window, want 0", keys)
	}
}

// With auto close disabled a close request reaches the application and
// nothing else happens.
func TestLoopAutoCloseDisabled(t *testing.T) {
	backend := newFakeBackend(
		nil, nil, nil, nil, nil, nil,
		[]Event{CloseEvent{Window: 1}},
	)
	a, updates := buildLoopApp(t, backend, reactiveHour(), func(p *Plugin[WakeUp]) {
		p.DisableAutoClose = true
	})

	var closeRequests int
	var reader event.Reader[event.WindowCloseRequested]
	a.AddSystems(app.StageUpdate, func(ia *app.App) {
		for range event.Read(ia.Events(), &reader) {
			closeRequests++
			app.Emit(ia, event.AppExit{})
		}
	})

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if closeRequests != 1 {
		t.Fatalf("got %d close requests, want 1", closeRequests)
	}
	if *updates != 6 {
		t.Fatalf("got %d updates, want 6", *updates)
	}
	store := app.Resource[WindowStore](a)
	if store.Count() != 1 {
		t.Fatalf("window despawned despite DisableAutoClose")
	}
	// Shutdown still tears the native window down.
	if !backend.natives[1].destroyed {
		t.Fatal("native window should be destroyed at loop shutdown")
	}
}

// A filter predicate absorbs wakes for the events it rejects without
// stopping their translation.
func TestLoopFilterAbsorbsWakes(t *testing.T) {
	backend := newFakeBackend(
		nil, nil, nil, nil, nil, nil,
		[]Event{KeyEvent{Window: 1, Key: core.KEY_A, Action: core.ACTION_PRESS}},
		nil,
		[]Event{ButtonEvent{Window: 1, Button: core.BUTTON_LEFT, Action: core.ACTION_PRESS}},
		nil,
		[]Event{CloseEvent{Window: 1}},
	)
	a, updates := buildLoopApp(t, backend, reactiveHour(), func(p *Plugin[WakeUp]) {
		p.Filter = func(ev Event, mode UpdateMode) bool {
			_, isKey := ev.(KeyEvent)
			return !isKey
		}
	})

	var keys, buttons int
	var keyReader event.Reader[event.KeyInput]
	var buttonReader event.Reader[event.MouseButtonInput]
	a.AddSystems(app.StageUpdate, func(ia *app.App) {
		keys += len(event.Read(ia.Events(), &keyReader))
		buttons += len(event.Read(ia.Events(), &buttonReader))
	})

	if err := a.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Startup 5, button 1, close 1, exit 1. The key press wakes nothing.
	if *updates != 8 {
		t.Fatalf("got %d updates, want 8", *updates)
	}
	if keys != 1 {
		t.Fatalf("got %d key events, want 1", keys)
	}
	if buttons != 1 {
		t.Fatalf("got %d button events, want 1", buttons)
	}
}

func TestRunWithoutPlatformPlugin(t *testing.T) {
	a := app.New()
	a.SetRunner(runEventLoop[WakeUp])
	if err := a.Run(); !errors.Is(err, ErrMissingEventLoop) {
		t.Fatalf("got %v, want ErrMissingEventLoop", err)
	}
}
